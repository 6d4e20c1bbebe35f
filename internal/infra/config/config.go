package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL"`
	TZ       string `envconfig:"TZ" default:"Asia/Taipei"`
	Port     int    `envconfig:"PORT" default:"8080"`
	Metrics  string `envconfig:"METRICS_ADDR" default:":9090"`

	Store struct {
		Backend  string `envconfig:"STORE_BACKEND" default:"postgres"`
		PGDSN    string `envconfig:"PG_DSN"`
		MongoURI string `envconfig:"MONGO_URI"`
		MongoDB  string `envconfig:"MONGO_DB" default:"news"`
	} `envconfig:""`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	Editor struct {
		Provider      string        `envconfig:"EDITOR_PROVIDER" default:"gemini"`
		Timeout       time.Duration `envconfig:"EDITOR_TIMEOUT" default:"60s"`
		OpenAIKey     string        `envconfig:"OPENAI_API_KEY"`
		OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL"`
		OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
		GeminiKey     string        `envconfig:"GEMINI_API_KEY"`
		GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	} `envconfig:""`

	Selection struct {
		PoolSize             int     `envconfig:"POOL_SIZE" default:"50"`
		PerTopicGuarantee    int     `envconfig:"PER_TOPIC_GUARANTEE" default:"3"`
		MaxPerSource         int     `envconfig:"MAX_PER_SOURCE" default:"3"`
		SimilarityThreshold  float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.85"`
		DiscussionFloor      int     `envconfig:"DISCUSSION_FLOOR" default:"5"`
		AggregatorHost       string  `envconfig:"AGGREGATOR_HOST" default:"news.google.com"`
		MaxAggregator        int     `envconfig:"MAX_AGGREGATOR" default:"4"`
		DesperationThreshold int     `envconfig:"DESPERATION_THRESHOLD" default:"20"`
	} `envconfig:""`

	Briefing struct {
		Size           int           `envconfig:"BRIEFING_SIZE" default:"10"`
		EditorPick     int           `envconfig:"EDITOR_PICK" default:"20"`
		MaxEnriched    int           `envconfig:"MAX_ENRICHED" default:"12"`
		WindowDays     int           `envconfig:"WINDOW_DAYS" default:"7"`
		RuleWindowDays int           `envconfig:"RULE_WINDOW_DAYS" default:"7"`
		ItemTimeout    time.Duration `envconfig:"ITEM_TIMEOUT" default:"60s"`
		RetentionDays  int           `envconfig:"RETENTION_DAYS" default:"30"`
	} `envconfig:""`

	Fetch struct {
		Timeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
		MaxChars    int           `envconfig:"FETCH_MAX_CHARS" default:"12000"`
		FeedTimeout time.Duration `envconfig:"FEED_TIMEOUT" default:"20s"`
		FeedItems   int           `envconfig:"FEED_MAX_ITEMS" default:"50"`
		SourcesFile string        `envconfig:"SOURCES_FILE" default:"configs/sources.yaml"`
	} `envconfig:""`

	Telegram struct {
		Token  string `envconfig:"TG_BOT_TOKEN"`
		ChatID int64  `envconfig:"TG_CHAT_ID"`
	} `envconfig:""`

	SMTP struct {
		Host string   `envconfig:"SMTP_HOST"`
		Port int      `envconfig:"SMTP_PORT" default:"587"`
		User string   `envconfig:"SMTP_USER"`
		Pass string   `envconfig:"SMTP_PASS"`
		From string   `envconfig:"SMTP_FROM"`
		To   []string `envconfig:"SMTP_TO"`
	} `envconfig:""`

	Queues struct {
		Backend   string `envconfig:"QUEUE_BACKEND" default:"redis"`
		Key       string `envconfig:"GENERATION_QUEUE_KEY" default:"briefing_jobs"`
		RabbitURL string `envconfig:"RABBITMQ_URL"`
	} `envconfig:""`

	Schedule struct {
		Ingest    string `envconfig:"INGEST_CRON" default:"0 */2 * * *"`
		Briefing  string `envconfig:"BRIEFING_CRON" default:"30 7 * * *"`
		Retention string `envconfig:"RETENTION_CRON" default:"0 3 * * *"`
		Method    string `envconfig:"BRIEFING_METHOD" default:"deep-ai-analysis"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Location возвращает часовой пояс брифингов. Неизвестная зона заменяется на UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Method способ построения брифинга по расписанию.
func (c AppConfig) Method() domain.Method {
	if domain.Method(c.Schedule.Method) == domain.MethodRuleBased {
		return domain.MethodRuleBased
	}
	return domain.MethodDeepAnalysis
}

type sourcesFile struct {
	Sources []domain.SourceConfig `yaml:"sources"`
}

// LoadSources читает список источников из YAML.
func LoadSources(path string) ([]domain.SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}
	return ParseSources(data)
}

// ParseSources разбирает YAML со списком источников. Источник без имени или url считается ошибкой.
func ParseSources(data []byte) ([]domain.SourceConfig, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("разбор источников: %w", err)
	}
	seen := make(map[string]bool, len(file.Sources))
	for i, src := range file.Sources {
		name := strings.TrimSpace(src.Name)
		if name == "" || strings.TrimSpace(src.URL) == "" {
			return nil, fmt.Errorf("источник #%d: нужны name и url", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("источник %q описан дважды", name)
		}
		seen[name] = true
		file.Sources[i].Name = name
	}
	return file.Sources, nil
}
