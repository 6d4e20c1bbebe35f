package selection

import (
	"net/url"
	"sort"
	"strings"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

// Params ограничения пула разнообразия.
type Params struct {
	PoolSize             int
	PerTopicGuarantee    int
	MaxPerSource         int
	SimilarityThreshold  float64
	DiscussionFloor      int
	AggregatorHost       string
	MaxAggregator        int
	DesperationThreshold int
}

// DefaultParams значения, с которыми пул совпадает с историческими выгрузками.
func DefaultParams() Params {
	return Params{
		PoolSize:             50,
		PerTopicGuarantee:    3,
		MaxPerSource:         3,
		SimilarityThreshold:  0.85,
		DiscussionFloor:      5,
		AggregatorHost:       "news.google.com",
		MaxAggregator:        4,
		DesperationThreshold: 20,
	}
}

// Result итог отбора.
type Result struct {
	Items []domain.ScoredCandidate
	// DesperationFill true, если после основного добора пул был меньше порога.
	DesperationFill bool
}

// Selector строит пул без дублей, с ограничением по источникам и представленностью рубрик.
type Selector struct {
	params Params
}

// New создаёт селектор. Нулевые поля заменяются значениями по умолчанию.
func New(p Params) *Selector {
	def := DefaultParams()
	if p.PoolSize <= 0 {
		p.PoolSize = def.PoolSize
	}
	if p.PerTopicGuarantee <= 0 {
		p.PerTopicGuarantee = def.PerTopicGuarantee
	}
	if p.MaxPerSource <= 0 {
		p.MaxPerSource = def.MaxPerSource
	}
	if p.SimilarityThreshold <= 0 {
		p.SimilarityThreshold = def.SimilarityThreshold
	}
	if p.DiscussionFloor < 0 {
		p.DiscussionFloor = 0
	}
	if p.MaxAggregator <= 0 {
		p.MaxAggregator = def.MaxAggregator
	}
	if p.DesperationThreshold < 0 {
		p.DesperationThreshold = 0
	}
	return &Selector{params: p}
}

// Params возвращает действующие параметры.
func (s *Selector) Params() Params {
	return s.params
}

// run состояние одного отбора. Счётчики живут только в пределах вызова Select.
type run struct {
	params     Params
	sorted     []domain.ScoredCandidate
	admitted   []int
	taken      map[int]bool
	perSource  map[string]int
	aggregator int
	discussion int
}

// Select сокращает пул до params.PoolSize.
func (s *Selector) Select(pool []domain.ScoredCandidate) Result {
	if len(pool) == 0 {
		return Result{Items: []domain.ScoredCandidate{}}
	}
	r := &run{
		params:    s.params,
		sorted:    SortByScore(pool),
		taken:     make(map[int]bool),
		perSource: make(map[string]int),
	}

	for _, bucket := range r.buckets() {
		limit := s.params.PerTopicGuarantee
		if limit > len(bucket) {
			limit = len(bucket)
		}
		for _, idx := range bucket[:limit] {
			r.tryAdmit(idx, true)
		}
	}

	for idx := range r.sorted {
		if r.discussion >= s.params.DiscussionFloor || r.full() {
			break
		}
		if r.sorted[idx].Candidate.FromDiscussion() {
			r.tryAdmit(idx, true)
		}
	}

	for idx := range r.sorted {
		if r.full() {
			break
		}
		r.tryAdmit(idx, true)
	}

	res := Result{}
	if len(r.admitted) < s.params.DesperationThreshold {
		res.DesperationFill = true
		for idx := range r.sorted {
			if r.full() {
				break
			}
			r.tryAdmit(idx, false)
		}
	}

	sort.Ints(r.admitted)
	res.Items = make([]domain.ScoredCandidate, 0, len(r.admitted))
	for _, idx := range r.admitted {
		res.Items = append(res.Items, r.sorted[idx])
	}
	return res
}

// buckets группирует индексы по рубрике в порядке первого появления рубрики.
func (r *run) buckets() [][]int {
	var order []domain.Topic
	byTopic := make(map[domain.Topic][]int)
	for idx, item := range r.sorted {
		if _, ok := byTopic[item.Topic]; !ok {
			order = append(order, item.Topic)
		}
		byTopic[item.Topic] = append(byTopic[item.Topic], idx)
	}
	out := make([][]int, 0, len(order))
	for _, topic := range order {
		out = append(out, byTopic[topic])
	}
	return out
}

func (r *run) full() bool {
	return len(r.admitted) >= r.params.PoolSize
}

func (r *run) tryAdmit(idx int, capped bool) bool {
	if r.taken[idx] || r.full() {
		return false
	}
	item := r.sorted[idx].Candidate
	isAggregator := r.isAggregator(item.URL)
	if capped {
		if r.perSource[item.Source] >= r.params.MaxPerSource {
			return false
		}
		if isAggregator && r.aggregator >= r.params.MaxAggregator {
			return false
		}
	}
	if r.isDuplicate(item) {
		return false
	}
	r.taken[idx] = true
	r.admitted = append(r.admitted, idx)
	r.perSource[item.Source]++
	if isAggregator {
		r.aggregator++
	}
	if item.FromDiscussion() {
		r.discussion++
	}
	return true
}

func (r *run) isDuplicate(c domain.Candidate) bool {
	for _, idx := range r.admitted {
		if IsNearDuplicate(r.sorted[idx].Candidate, c, r.params.SimilarityThreshold) {
			return true
		}
	}
	return false
}

func (r *run) isAggregator(rawURL string) bool {
	if r.params.AggregatorHost == "" {
		return false
	}
	return HostMatches(rawURL, r.params.AggregatorHost)
}

// IsNearDuplicate совпадающий URL или сходство заголовков выше порога.
func IsNearDuplicate(a, b domain.Candidate, threshold float64) bool {
	if a.URL != "" && a.URL == b.URL {
		return true
	}
	return TitleSimilarity(a.Title, b.Title) > threshold
}

// HostMatches сообщает, что хост URL равен host или является его поддоменом.
func HostMatches(rawURL, host string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	h := strings.ToLower(parsed.Hostname())
	host = strings.ToLower(host)
	return h == host || strings.HasSuffix(h, "."+host)
}

// SortByScore возвращает копию, отсортированную по убыванию оценки с сохранением исходного порядка равных.
func SortByScore(items []domain.ScoredCandidate) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
