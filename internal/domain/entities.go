package domain

import (
	"strings"
	"time"
)

// DateLayout формат календарной даты, которым ключуются брифинги и даты публикации.
const DateLayout = "2006-01-02"

// Topic описывает редакционную рубрику новости.
type Topic string

// Рубрики правил отбора.
const (
	TopicPolicy     Topic = "Policy"
	TopicTechnology Topic = "Technology"
	TopicIndustry   Topic = "Industry"
	TopicBusiness   Topic = "Business"
	TopicRisk       Topic = "Risk"
)

// Рубрики редактора.
const (
	TopicBreaking Topic = "Breaking"
	TopicTools    Topic = "Tools"
	TopicCreative Topic = "Creative"
	TopicResearch Topic = "Research"
	TopicRules    Topic = "Rules"
)

// RuleBasedTopics порядок рубрик детерминированного отбора.
var RuleBasedTopics = []Topic{TopicPolicy, TopicTechnology, TopicIndustry, TopicBusiness, TopicRisk}

// EditorTopics порядок приоритета рубрик при балансировке брифинга редактора.
var EditorTopics = []Topic{TopicBreaking, TopicTools, TopicBusiness, TopicCreative, TopicResearch, TopicRules, TopicRisk}

// ParseEditorTopic приводит ответ редактора к известной рубрике. Неизвестное значение становится Breaking.
func ParseEditorTopic(raw string) Topic {
	trimmed := strings.TrimSpace(raw)
	for _, t := range EditorTopics {
		if strings.EqualFold(trimmed, string(t)) {
			return t
		}
	}
	return TopicBreaking
}

// Method способ построения брифинга.
type Method string

const (
	// MethodRuleBased отбор только по правилам.
	MethodRuleBased Method = "rule-based"
	// MethodDeepAnalysis отбор с участием редактора.
	MethodDeepAnalysis Method = "deep-ai-analysis"
)

// Candidate описывает статью, претендующую на попадание в брифинг.
type Candidate struct {
	Title        string
	URL          string
	Source       string
	CategoryHint string
	// PublishedAt нулевое, если дату не удалось разобрать.
	PublishedAt   time.Time
	Summary       string
	DiscussionURL string
	ImageURL      string
	Enrichment    Enrichment
	CreatedAt     time.Time
}

// FromDiscussion сообщает, найдена ли статья через агрегатор обсуждений.
func (c Candidate) FromDiscussion() bool {
	return strings.TrimSpace(c.DiscussionURL) != ""
}

// Text возвращает заголовок и аннотацию для поиска ключевых слов.
func (c Candidate) Text() string {
	return strings.ToLower(c.Title + " " + c.Summary)
}

// Enrichment хранит поля, добавленные редактором после вставки.
type Enrichment struct {
	Summary string
	Topic   Topic
}

// IsZero сообщает, что обогащения нет.
func (e Enrichment) IsZero() bool {
	return e.Summary == "" && e.Topic == ""
}

// ScoredCandidate кандидат с оценкой и рубрикой текущего прогона.
type ScoredCandidate struct {
	Candidate Candidate
	Score     float64
	Topic     Topic
}

// BriefingItem позиция в опубликованном брифинге.
type BriefingItem struct {
	Rank    int     `json:"rank" bson:"rank"`
	Title   string  `json:"title" bson:"title"`
	URL     string  `json:"url" bson:"url"`
	Source  string  `json:"source" bson:"source"`
	Topic   Topic   `json:"topic" bson:"topic"`
	Score   float64 `json:"score" bson:"score"`
	Summary string  `json:"summary" bson:"summary"`
}

// DailySummary общий вывод по брифингу.
type DailySummary struct {
	Title     string `json:"title_summary,omitempty" bson:"title_summary,omitempty"`
	Takeaways string `json:"key_takeaways,omitempty" bson:"key_takeaways,omitempty"`
}

// IsZero сообщает, что вывода нет.
func (d DailySummary) IsZero() bool {
	return d.Title == "" && d.Takeaways == ""
}

// BriefingStats статистика прогона.
type BriefingStats struct {
	RunID           string         `json:"run_id,omitempty" bson:"run_id,omitempty"`
	NewsCount       int            `json:"news_count" bson:"news_count"`
	PoolSize        int            `json:"pool_size,omitempty" bson:"pool_size,omitempty"`
	Processed       int            `json:"processed,omitempty" bson:"processed,omitempty"`
	Accepted        int            `json:"accepted,omitempty" bson:"accepted,omitempty"`
	Failed          int            `json:"failed,omitempty" bson:"failed,omitempty"`
	DesperationFill bool           `json:"desperation_fill,omitempty" bson:"desperation_fill,omitempty"`
	TopicCounts     map[string]int `json:"topic_counts,omitempty" bson:"topic_counts,omitempty"`
}

// Briefing ежедневный опубликованный список новостей.
type Briefing struct {
	Date        string         `json:"date" bson:"date"`
	GeneratedAt time.Time      `json:"generated_at" bson:"generated_at"`
	Items       []BriefingItem `json:"items" bson:"items"`
	Method      Method         `json:"method" bson:"method"`
	Daily       DailySummary   `json:"daily_briefing" bson:"daily_briefing"`
	Stats       BriefingStats  `json:"analysis_stats" bson:"analysis_stats"`
}

// DateKey возвращает ключ брифинга для момента времени в заданной зоне.
func DateKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// SourceConfig описывает источник из sources.yaml.
type SourceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	// Weight переопределяет авторитетность источника, если больше нуля.
	Weight  int  `yaml:"weight"`
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled по умолчанию источник включён.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// RawItem кортеж, который адаптеры источников передают на вход сбора.
type RawItem struct {
	Title         string
	URL           string
	Source        string
	CategoryHint  string
	PublishedRaw  string
	Summary       string
	DiscussionURL string
	ImageURL      string
}
