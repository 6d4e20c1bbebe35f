package briefing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
	"github.com/yu-lin0312/news-collector/internal/usecase/scoring"
	"github.com/yu-lin0312/news-collector/internal/usecase/selection"
)

// ErrNoCandidates сигнализирует, что за окно не нашлось ни одного кандидата и сохранён пустой брифинг.
var ErrNoCandidates = errors.New("нет кандидатов для брифинга")

// ErrKeptPrevious сигнализирует, что пустой результат не перезаписал существующий брифинг.
var ErrKeptPrevious = errors.New("пустой результат, оставлен прежний брифинг")

// ErrRunInProgress возвращается, если брифинг за дату уже строится.
var ErrRunInProgress = errors.New("брифинг за эту дату уже строится")

// FallbackNote дописывается к аннотации, если полный текст статьи не загрузился.
const FallbackNote = "(Note: Full article content could not be fetched. Analyze based on this summary.)"

// Options параметры прогона.
type Options struct {
	WindowDays     int
	RuleWindowDays int
	BriefingSize   int
	EditorPick     int
	MaxEnriched    int
	ItemTimeout    time.Duration
	LockTTL        time.Duration
	NotifyTTL      time.Duration
	ArticleTTL     time.Duration
	Location       *time.Location
}

// DefaultOptions значения по умолчанию.
func DefaultOptions() Options {
	return Options{
		WindowDays:     7,
		RuleWindowDays: 7,
		BriefingSize:   10,
		EditorPick:     20,
		MaxEnriched:    12,
		ItemTimeout:    60 * time.Second,
		LockTTL:        30 * time.Minute,
		NotifyTTL:      36 * time.Hour,
		ArticleTTL:     24 * time.Hour,
		Location:       time.UTC,
	}
}

// Service строит ежедневный брифинг.
type Service struct {
	candidates  domain.CandidateRepo
	briefings   domain.BriefingRepo
	editor      domain.Editor
	fetcher     domain.ArticleFetcher
	cache       domain.Cache
	notifiers   []domain.Notifier
	scorer      *scoring.Scorer
	categorizer *scoring.Categorizer
	selector    *selection.Selector
	opts        Options
	log         zerolog.Logger
	now         func() time.Time
}

// Deps внешние зависимости сервиса. Editor, Fetcher и Cache могут быть nil.
type Deps struct {
	Candidates  domain.CandidateRepo
	Briefings   domain.BriefingRepo
	Editor      domain.Editor
	Fetcher     domain.ArticleFetcher
	Cache       domain.Cache
	Notifiers   []domain.Notifier
	Scorer      *scoring.Scorer
	Categorizer *scoring.Categorizer
	Selector    *selection.Selector
}

// NewService создаёт сервис брифингов.
func NewService(deps Deps, opts Options, logger zerolog.Logger) *Service {
	def := DefaultOptions()
	if opts.WindowDays <= 0 {
		opts.WindowDays = def.WindowDays
	}
	if opts.RuleWindowDays <= 0 {
		opts.RuleWindowDays = def.RuleWindowDays
	}
	if opts.BriefingSize <= 0 {
		opts.BriefingSize = def.BriefingSize
	}
	if opts.EditorPick <= 0 {
		opts.EditorPick = def.EditorPick
	}
	if opts.MaxEnriched <= 0 {
		opts.MaxEnriched = def.MaxEnriched
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = def.ItemTimeout
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = def.LockTTL
	}
	if opts.NotifyTTL <= 0 {
		opts.NotifyTTL = def.NotifyTTL
	}
	if opts.ArticleTTL <= 0 {
		opts.ArticleTTL = def.ArticleTTL
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if deps.Scorer == nil {
		deps.Scorer = scoring.NewScorer(nil, opts.Location)
	}
	if deps.Categorizer == nil {
		deps.Categorizer = scoring.NewCategorizer(nil)
	}
	if deps.Selector == nil {
		deps.Selector = selection.New(selection.DefaultParams())
	}
	return &Service{
		candidates:  deps.Candidates,
		briefings:   deps.Briefings,
		editor:      deps.Editor,
		fetcher:     deps.Fetcher,
		cache:       deps.Cache,
		notifiers:   deps.Notifiers,
		scorer:      deps.Scorer,
		categorizer: deps.Categorizer,
		selector:    deps.Selector,
		opts:        opts,
		log:         logger.With().Str("component", "briefing").Logger(),
		now:         time.Now,
	}
}

// Generate строит брифинг за день date выбранным способом и сохраняет его.
// Ошибки ErrNoCandidates и ErrKeptPrevious не фатальны и возвращаются вместе с брифингом.
func (s *Service) Generate(ctx context.Context, date time.Time, method domain.Method) (domain.Briefing, error) {
	key := domain.DateKey(date, s.opts.Location)
	if s.cache == nil {
		return s.generate(ctx, date, method)
	}
	var (
		result domain.Briefing
		runErr error
	)
	err := s.cache.Lock(ctx, "briefing:lock:"+key, s.opts.LockTTL, func() error {
		result, runErr = s.generate(ctx, date, method)
		return nil
	})
	if errors.Is(err, domain.ErrLocked) {
		return domain.Briefing{}, ErrRunInProgress
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("briefing: блокировка недоступна, строим без неё")
		return s.generate(ctx, date, method)
	}
	return result, runErr
}

func (s *Service) generate(ctx context.Context, date time.Time, method domain.Method) (domain.Briefing, error) {
	start := s.now()
	runID := uuid.NewString()
	logger := s.log.With().Str("run_id", runID).Str("date", domain.DateKey(date, s.opts.Location)).Str("method", string(method)).Logger()

	var (
		b   domain.Briefing
		err error
	)
	switch method {
	case domain.MethodDeepAnalysis:
		if s.editor == nil {
			logger.Warn().Msg("briefing: редактор не настроен, используем отбор по правилам")
			metrics.IncDegradation("editor")
			b, err = s.ruleBased(ctx, date, runID, logger)
			break
		}
		b, err = s.deep(ctx, date, runID, logger)
	default:
		b, err = s.ruleBased(ctx, date, runID, logger)
	}

	metrics.ObserveBriefing(string(b.Method), outcomeOf(err), len(b.Items), start)
	switch {
	case err == nil:
		logger.Info().Int("items", len(b.Items)).Dur("took", s.now().Sub(start)).Msg("briefing: опубликован")
		s.notify(ctx, b, logger)
	case errors.Is(err, ErrNoCandidates), errors.Is(err, ErrKeptPrevious):
		logger.Warn().Err(err).Msg("briefing: пустой результат")
	default:
		logger.Error().Err(err).Msg("briefing: прогон завершился ошибкой")
	}
	return b, err
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "published"
	case errors.Is(err, ErrNoCandidates):
		return "empty"
	case errors.Is(err, ErrKeptPrevious):
		return "kept_previous"
	default:
		return "error"
	}
}

func (s *Service) newBriefing(date time.Time, method domain.Method, runID string) domain.Briefing {
	return domain.Briefing{
		Date:        domain.DateKey(date, s.opts.Location),
		GeneratedAt: s.now().UTC(),
		Items:       []domain.BriefingItem{},
		Method:      method,
		Stats:       domain.BriefingStats{RunID: runID},
	}
}

func (s *Service) loadScored(ctx context.Context, date time.Time, window int) ([]domain.ScoredCandidate, error) {
	cands, err := s.candidates.QueryRecent(ctx, window, date)
	if err != nil {
		return nil, fmt.Errorf("получение кандидатов: %w", err)
	}
	return scoring.Evaluate(cands, s.scorer, s.categorizer, date), nil
}

// ruleBased отбирает материалы по квотам рубрик без участия редактора.
func (s *Service) ruleBased(ctx context.Context, date time.Time, runID string, logger zerolog.Logger) (domain.Briefing, error) {
	b := s.newBriefing(date, domain.MethodRuleBased, runID)
	scored, err := s.loadScored(ctx, date, s.opts.RuleWindowDays)
	if err != nil {
		return b, err
	}
	b.Stats.NewsCount = len(scored)
	b.Stats.TopicCounts = countTopics(scored)
	if len(scored) == 0 {
		return s.persistFinal(ctx, b, logger)
	}
	b.Items = NewQuota(RuleBasedQuotas, s.opts.BriefingSize).Assemble(scored)
	return s.persistFinal(ctx, b, logger)
}

// deep строит пул разнообразия, отдаёт его редактору и обогащает отобранное.
func (s *Service) deep(ctx context.Context, date time.Time, runID string, logger zerolog.Logger) (domain.Briefing, error) {
	b := s.newBriefing(date, domain.MethodDeepAnalysis, runID)
	scored, err := s.loadScored(ctx, date, s.opts.WindowDays)
	if err != nil {
		return b, err
	}
	b.Stats.NewsCount = len(scored)
	if len(scored) == 0 {
		return s.persistFinal(ctx, b, logger)
	}

	pool := s.selector.Select(scored)
	b.Stats.PoolSize = len(pool.Items)
	b.Stats.DesperationFill = pool.DesperationFill
	if pool.DesperationFill {
		logger.Info().Int("pool", len(pool.Items)).Msg("briefing: мало кандидатов, пул добран без ограничения по источникам")
	}

	ranked := s.rankAndSelect(ctx, pool.Items, s.opts.EditorPick, logger)
	assembler := NewBalanced(domain.EditorTopics, s.opts.BriefingSize)

	var accepted []domain.ScoredCandidate
	for _, item := range ranked {
		if len(accepted) >= s.opts.MaxEnriched {
			break
		}
		if err := ctx.Err(); err != nil {
			return b, fmt.Errorf("прогон прерван: %w", err)
		}
		b.Stats.Processed++
		enriched, ok := s.enrich(ctx, item, logger)
		if !ok {
			b.Stats.Failed++
			continue
		}
		accepted = append(accepted, enriched)
		b.Stats.Accepted = len(accepted)

		checkpoint := b
		checkpoint.Items = assembler.Assemble(accepted)
		checkpoint.GeneratedAt = s.now().UTC()
		if err := s.briefings.SaveBriefing(ctx, checkpoint); err != nil {
			logger.Warn().Err(err).Msg("briefing: промежуточное сохранение не удалось")
		}
	}

	if len(accepted) == 0 {
		logger.Warn().Int("processed", b.Stats.Processed).Msg("briefing: редактор не обогатил ни одного материала, используем отбор по правилам")
		metrics.IncDegradation("editor_summarize")
		return s.ruleBased(ctx, date, runID, logger)
	}

	b.Items = assembler.Assemble(accepted)
	b.Daily = s.dailySummary(ctx, b.Items, logger)
	b.GeneratedAt = s.now().UTC()
	return s.persistFinal(ctx, b, logger)
}

// rankAndSelect спрашивает редактора; при сбое берёт первые k из отсортированного входа.
func (s *Service) rankAndSelect(ctx context.Context, pool []domain.ScoredCandidate, k int, logger zerolog.Logger) []domain.ScoredCandidate {
	fallback := firstK(pool, k)
	if s.editor == nil {
		return fallback
	}
	picked, err := s.editor.RankAndSelect(ctx, pool, k)
	metrics.ObserveEditorCall("rank_and_select", err)
	if err != nil {
		logger.Warn().Err(err).Msg("briefing: редактор не выбрал материалы, берём лучшие по оценке")
		metrics.IncDegradation("editor_rank")
		return fallback
	}
	picked = restrictToPool(picked, pool, k)
	if len(picked) == 0 {
		logger.Warn().Msg("briefing: редактор вернул пустой выбор, берём лучшие по оценке")
		metrics.IncDegradation("editor_rank")
		return fallback
	}
	return picked
}

func firstK(items []domain.ScoredCandidate, k int) []domain.ScoredCandidate {
	if k > len(items) {
		k = len(items)
	}
	out := make([]domain.ScoredCandidate, k)
	copy(out, items[:k])
	return out
}

// restrictToPool оставляет только материалы из пула, без повторов, не более k.
func restrictToPool(picked, pool []domain.ScoredCandidate, k int) []domain.ScoredCandidate {
	byURL := make(map[string]domain.ScoredCandidate, len(pool))
	for _, it := range pool {
		byURL[it.Candidate.URL] = it
	}
	seen := make(map[string]bool, len(picked))
	out := make([]domain.ScoredCandidate, 0, k)
	for _, it := range picked {
		if len(out) >= k {
			break
		}
		orig, ok := byURL[it.Candidate.URL]
		if !ok || seen[it.Candidate.URL] {
			continue
		}
		seen[it.Candidate.URL] = true
		out = append(out, orig)
	}
	return out
}

// enrich делает ровно одну попытку пересказа в пределах бюджета на материал.
func (s *Service) enrich(ctx context.Context, item domain.ScoredCandidate, logger zerolog.Logger) (domain.ScoredCandidate, bool) {
	itemCtx, cancel := context.WithTimeout(ctx, s.opts.ItemTimeout)
	defer cancel()

	url := item.Candidate.URL
	body := s.articleBody(itemCtx, item.Candidate, logger)
	enrichment, err := s.editor.Summarize(itemCtx, item, body)
	metrics.ObserveEditorCall("summarize", err)
	if err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("briefing: пересказ не получен, материал пропущен")
		return item, false
	}
	if strings.TrimSpace(enrichment.Summary) == "" {
		logger.Warn().Str("url", url).Msg("briefing: пустой пересказ, материал пропущен")
		return item, false
	}
	if enrichment.Topic == "" {
		enrichment.Topic = domain.TopicBreaking
	}
	item.Candidate.Enrichment = enrichment
	item.Topic = enrichment.Topic

	if ok, err := s.candidates.AttachEnrichment(ctx, url, enrichment); err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("briefing: не удалось сохранить обогащение")
	} else if !ok {
		logger.Debug().Str("url", url).Msg("briefing: кандидат для обогащения не найден")
	}
	return item, true
}

// articleBody возвращает полный текст или аннотацию с пометкой о запасном варианте.
func (s *Service) articleBody(ctx context.Context, c domain.Candidate, logger zerolog.Logger) string {
	fallback := strings.TrimSpace(c.Summary + "\n\n" + FallbackNote)
	if s.fetcher == nil {
		return fallback
	}
	cacheKey := "article:" + c.URL
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			return string(cached)
		}
	}
	text, err := s.fetcher.Fetch(ctx, c.URL)
	if err != nil || strings.TrimSpace(text) == "" {
		logger.Debug().Err(err).Str("url", c.URL).Msg("briefing: полный текст недоступен, используем аннотацию")
		return fallback
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, []byte(text), s.opts.ArticleTTL); err != nil {
			logger.Debug().Err(err).Msg("briefing: не удалось закэшировать текст статьи")
		}
	}
	return text
}

func (s *Service) dailySummary(ctx context.Context, items []domain.BriefingItem, logger zerolog.Logger) domain.DailySummary {
	summary, err := s.editor.DailySummary(ctx, items)
	metrics.ObserveEditorCall("daily_summary", err)
	if err != nil {
		logger.Warn().Err(err).Msg("briefing: общий вывод не получен")
		return domain.DailySummary{}
	}
	return summary
}

// persistFinal сохраняет итог. Пустой результат не перезаписывает непустой брифинг за ту же дату.
func (s *Service) persistFinal(ctx context.Context, b domain.Briefing, logger zerolog.Logger) (domain.Briefing, error) {
	if len(b.Items) > 0 {
		if err := s.briefings.SaveBriefing(ctx, b); err != nil {
			return b, fmt.Errorf("сохранение брифинга: %w", err)
		}
		return b, nil
	}
	existing, ok, err := s.briefings.GetBriefing(ctx, b.Date)
	if err != nil {
		return b, fmt.Errorf("проверка существующего брифинга: %w", err)
	}
	if ok && len(existing.Items) > 0 {
		logger.Info().Int("items", len(existing.Items)).Msg("briefing: оставляем существующий брифинг")
		return existing, ErrKeptPrevious
	}
	if err := s.briefings.SaveBriefing(ctx, b); err != nil {
		return b, fmt.Errorf("сохранение брифинга: %w", err)
	}
	return b, ErrNoCandidates
}

// notify доставляет брифинг не чаще одного раза за дату на каждый канал.
func (s *Service) notify(ctx context.Context, b domain.Briefing, logger zerolog.Logger) {
	for _, n := range s.notifiers {
		channel := fmt.Sprintf("%T", n)
		send := func() error { return n.Notify(ctx, b) }
		var err error
		if s.cache != nil {
			err = s.cache.Once(ctx, "briefing:notified:"+b.Date+":"+channel, s.opts.NotifyTTL, send)
		} else {
			err = send()
		}
		if err != nil {
			metrics.NotifySendErrors.WithLabelValues(channel).Inc()
			logger.Error().Err(err).Str("notifier", channel).Msg("briefing: не удалось отправить брифинг")
		}
	}
}

// Get возвращает сохранённый брифинг за дату.
func (s *Service) Get(ctx context.Context, date string) (domain.Briefing, bool, error) {
	return s.briefings.GetBriefing(ctx, date)
}

// List возвращает последние брифинги.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Briefing, error) {
	return s.briefings.ListBriefings(ctx, limit)
}

func countTopics(items []domain.ScoredCandidate) map[string]int {
	counts := make(map[string]int, len(domain.RuleBasedTopics))
	for _, t := range domain.RuleBasedTopics {
		counts[string(t)] = 0
	}
	for _, it := range items {
		counts[string(it.Topic)]++
	}
	return counts
}
