package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

const datePattern = `^\d{4}-\d{2}-\d{2}$`

// Mongo реализует репозитории поверх документной БД: коллекции news и briefings.
type Mongo struct {
	candidates *mongo.Collection
	briefings  *mongo.Collection
	loc        *time.Location
}

var _ domain.Store = (*Mongo)(nil)

// NewMongo создаёт адаптер для базы db.
func NewMongo(db *mongo.Database, loc *time.Location) *Mongo {
	if loc == nil {
		loc = time.UTC
	}
	return &Mongo{
		candidates: db.Collection("news"),
		briefings:  db.Collection("briefings"),
		loc:        loc,
	}
}

type candidateDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	URL           string             `bson:"url"`
	Source        string             `bson:"source"`
	CategoryHint  string             `bson:"category,omitempty"`
	PublishedAt   any                `bson:"published_at,omitempty"`
	Summary       string             `bson:"summary,omitempty"`
	DiscussionURL string             `bson:"discussion_url,omitempty"`
	ImageURL      string             `bson:"image_url,omitempty"`
	AISummary     string             `bson:"ai_rundown,omitempty"`
	AITopic       string             `bson:"ai_category,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
}

type briefingDoc struct {
	ID              string `bson:"_id"`
	domain.Briefing `bson:",inline"`
}

// EnsureIndexes создаёт уникальный индекс по url и индекс по дате публикации.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	start := time.Now()
	_, err := m.candidates.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "published_at", Value: 1}}},
	})
	metrics.ObserveNetworkRequest("mongo", "create_indexes", "news", start, err)
	if err != nil {
		return fmt.Errorf("создание индексов: %w", err)
	}
	return nil
}

// Exists реализует domain.CandidateRepo.
func (m *Mongo) Exists(ctx context.Context, url string) (bool, error) {
	start := time.Now()
	n, err := m.candidates.CountDocuments(ctx, bson.M{"url": url}, options.Count().SetLimit(1))
	metrics.ObserveNetworkRequest("mongo", "exists", "news", start, err)
	if err != nil {
		return false, fmt.Errorf("проверка кандидата: %w", err)
	}
	return n > 0, nil
}

// Insert реализует domain.CandidateRepo. Дубликат url возвращает false без ошибки.
func (m *Mongo) Insert(ctx context.Context, c domain.Candidate) (bool, error) {
	doc := m.toDoc(c)
	start := time.Now()
	_, err := m.candidates.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		metrics.ObserveNetworkRequest("mongo", "insert", "news", start, nil)
		return false, nil
	}
	metrics.ObserveNetworkRequest("mongo", "insert", "news", start, err)
	if err != nil {
		return false, fmt.Errorf("вставка кандидата: %w", err)
	}
	return true, nil
}

// QueryRecent реализует domain.CandidateRepo. Документы с отсутствующей или нераспознаваемой
// датой включаются с нулевой датой публикации; дата со временем обрезается до дня.
func (m *Mongo) QueryRecent(ctx context.Context, windowDays int, now time.Time) ([]domain.Candidate, error) {
	from, to := Window(windowDays, now, m.loc)
	filter := bson.M{"$or": bson.A{
		bson.M{"published_at": bson.M{"$gte": from, "$lte": to}},
		bson.M{"published_at": bson.M{"$not": primitive.Regex{Pattern: datePattern}}},
	}}
	start := time.Now()
	cur, err := m.candidates.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	metrics.ObserveNetworkRequest("mongo", "find_recent", "news", start, err)
	if err != nil {
		return nil, fmt.Errorf("получение кандидатов: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Candidate
	for cur.Next(ctx) {
		var doc candidateDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("чтение кандидата: %w", err)
		}
		c := m.fromDoc(doc)
		if !c.PublishedAt.IsZero() {
			if day := domain.DateKey(c.PublishedAt, m.loc); day < from || day > to {
				continue
			}
		}
		out = append(out, c)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("чтение кандидатов: %w", err)
	}
	return out, nil
}

// AttachEnrichment реализует domain.CandidateRepo.
func (m *Mongo) AttachEnrichment(ctx context.Context, url string, e domain.Enrichment) (bool, error) {
	start := time.Now()
	res, err := m.candidates.UpdateOne(ctx, bson.M{"url": url}, bson.M{"$set": bson.M{
		"ai_rundown":  e.Summary,
		"ai_category": string(e.Topic),
	}})
	metrics.ObserveNetworkRequest("mongo", "update", "news", start, err)
	if err != nil {
		return false, fmt.Errorf("обновление кандидата: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteOlderThan реализует domain.CandidateRepo. Документы без корректной даты не трогаются.
func (m *Mongo) DeleteOlderThan(ctx context.Context, days int, now time.Time) (int, error) {
	cutoff := domain.DateKey(now.AddDate(0, 0, -days), m.loc)
	start := time.Now()
	res, err := m.candidates.DeleteMany(ctx, bson.M{"published_at": bson.M{
		"$lt":    cutoff,
		"$regex": datePattern,
	}})
	metrics.ObserveNetworkRequest("mongo", "delete_many", "news", start, err)
	if err != nil {
		return 0, fmt.Errorf("очистка кандидатов: %w", err)
	}
	return int(res.DeletedCount), nil
}

// SaveBriefing реализует domain.BriefingRepo: документ briefings/{date} заменяется целиком.
func (m *Mongo) SaveBriefing(ctx context.Context, b domain.Briefing) error {
	if b.Items == nil {
		b.Items = []domain.BriefingItem{}
	}
	start := time.Now()
	_, err := m.briefings.ReplaceOne(ctx, bson.M{"_id": b.Date}, briefingDoc{ID: b.Date, Briefing: b}, options.Replace().SetUpsert(true))
	metrics.ObserveNetworkRequest("mongo", "replace", "briefings", start, err)
	if err != nil {
		return fmt.Errorf("сохранение брифинга: %w", err)
	}
	return nil
}

// GetBriefing реализует domain.BriefingRepo.
func (m *Mongo) GetBriefing(ctx context.Context, date string) (domain.Briefing, bool, error) {
	start := time.Now()
	var doc briefingDoc
	err := m.briefings.FindOne(ctx, bson.M{"_id": date}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.ObserveNetworkRequest("mongo", "find_one", "briefings", start, nil)
		return domain.Briefing{}, false, nil
	}
	metrics.ObserveNetworkRequest("mongo", "find_one", "briefings", start, err)
	if err != nil {
		return domain.Briefing{}, false, fmt.Errorf("получение брифинга: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []domain.BriefingItem{}
	}
	return doc.Briefing, true, nil
}

// ListBriefings реализует domain.BriefingRepo, новые первыми.
func (m *Mongo) ListBriefings(ctx context.Context, limit int) ([]domain.Briefing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	start := time.Now()
	cur, err := m.briefings.Find(ctx, bson.M{}, opts)
	metrics.ObserveNetworkRequest("mongo", "find", "briefings", start, err)
	if err != nil {
		return nil, fmt.Errorf("получение брифингов: %w", err)
	}
	defer cur.Close(ctx)
	var out []domain.Briefing
	for cur.Next(ctx) {
		var doc briefingDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("чтение брифинга: %w", err)
		}
		out = append(out, doc.Briefing)
	}
	return out, cur.Err()
}

func (m *Mongo) toDoc(c domain.Candidate) candidateDoc {
	doc := candidateDoc{
		Title:         c.Title,
		URL:           c.URL,
		Source:        c.Source,
		CategoryHint:  c.CategoryHint,
		Summary:       c.Summary,
		DiscussionURL: c.DiscussionURL,
		ImageURL:      c.ImageURL,
		AISummary:     c.Enrichment.Summary,
		AITopic:       string(c.Enrichment.Topic),
		CreatedAt:     c.CreatedAt,
	}
	if !c.PublishedAt.IsZero() {
		doc.PublishedAt = domain.DateKey(c.PublishedAt, m.loc)
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	return doc
}

func (m *Mongo) fromDoc(doc candidateDoc) domain.Candidate {
	c := domain.Candidate{
		Title:         doc.Title,
		URL:           doc.URL,
		Source:        doc.Source,
		CategoryHint:  doc.CategoryHint,
		Summary:       doc.Summary,
		DiscussionURL: doc.DiscussionURL,
		ImageURL:      doc.ImageURL,
		Enrichment:    domain.Enrichment{Summary: doc.AISummary, Topic: domain.Topic(doc.AITopic)},
		CreatedAt:     doc.CreatedAt,
	}
	c.PublishedAt = m.publishedDay(doc.PublishedAt)
	return c
}

// publishedDay приводит хранимую дату публикации к началу дня. Значения неизвестного типа дают нулевую дату.
func (m *Mongo) publishedDay(v any) time.Time {
	var t time.Time
	switch raw := v.(type) {
	case string:
		if len(raw) > len(domain.DateLayout) {
			raw = raw[:len(domain.DateLayout)]
		}
		parsed, err := time.ParseInLocation(domain.DateLayout, raw, m.loc)
		if err != nil {
			return time.Time{}
		}
		return parsed
	case primitive.DateTime:
		t = raw.Time()
	case time.Time:
		t = raw
	default:
		return time.Time{}
	}
	y, mo, d := t.In(m.loc).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, m.loc)
}
