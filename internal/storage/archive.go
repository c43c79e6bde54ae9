package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LJTian/NewsHarvest/internal/processor"
)

// Channel is one harvested source as stored in the archive.
type Channel struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Code    string `gorm:"size:128;uniqueIndex" json:"code"`
	Name    string `gorm:"size:128" json:"name"`
	BaseURL string `gorm:"size:256" json:"baseUrl"`
	Status  string `gorm:"size:32;index" json:"status"` // active / disabled

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// News is an archived article. The serving cache never reads from here.
type News struct {
	ID            string            `gorm:"primaryKey;size:40" json:"id"`
	Title         string            `gorm:"size:512" json:"title"`
	URL           string            `gorm:"size:1024;index" json:"url,omitempty"`
	Source        string            `gorm:"size:128;index" json:"source"`
	Summary       string            `gorm:"size:1024" json:"summary"`
	Topic         string            `gorm:"size:32;index" json:"topic"`
	Sentiment     string            `gorm:"size:16" json:"sentiment"`
	Entities      datatypes.JSONMap `gorm:"type:jsonb" json:"entities"`
	PublishedAt   time.Time         `gorm:"index" json:"publishedAt"`
	PublishedDate string            `gorm:"size:10;index" json:"publishedDate"` // YYYY-MM-DD, IST

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HistoryQuery filters archived articles. Zero values mean "any".
type HistoryQuery struct {
	Source string
	Topic  string
	Date   string // 2006-01-02
	Limit  int
}

// Archive stores every real run's articles in Postgres and caches list
// queries in Redis.
type Archive struct {
	DB    *gorm.DB
	Redis *redis.Client
}

const listCacheTTL = 5 * time.Minute

// NewArchive connects to Postgres and, when redisAddr is set, Redis.
func NewArchive(dsn, redisAddr string) (*Archive, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}

	if err := db.AutoMigrate(&Channel{}, &News{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	a := &Archive{DB: db}
	if redisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed: %v", err)
		}
	}
	return a, nil
}

// EnsureChannel creates the channel row for code unless it already exists.
func (a *Archive) EnsureChannel(code, name, baseURL string) (*Channel, error) {
	ch := &Channel{}
	if err := a.DB.Where("code = ?", code).First(ch).Error; err == nil {
		return ch, nil
	}

	ch = &Channel{
		Code:    code,
		Name:    name,
		BaseURL: baseURL,
		Status:  "active",
	}
	if err := a.DB.Create(ch).Error; err != nil {
		return nil, err
	}
	return ch, nil
}

// locIST is India Standard Time; archive dates are IST calendar days.
var locIST *time.Location

func init() {
	locIST, _ = time.LoadLocation("Asia/Kolkata")
	if locIST == nil {
		locIST = time.FixedZone("IST", 5*3600+1800)
	}
}

// toValidUTF8 replaces invalid byte sequences, which Postgres rejects.
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// truncateRunesDB trims s and cuts it to limit runes to fit a column.
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

func toNews(it processor.Article) News {
	return News{
		ID:        it.ID,
		Title:     truncateRunesDB(toValidUTF8(it.Title), 512),
		URL:       truncateRunesDB(it.URL, 1024),
		Source:    it.Source,
		Summary:   truncateRunesDB(toValidUTF8(it.Summary), 1024),
		Topic:     it.Topic,
		Sentiment: it.Sentiment,
		Entities: datatypes.JSONMap{
			"states": it.Entities.States,
			"people": it.Entities.People,
		},
		PublishedAt:   it.Timestamp,
		PublishedDate: it.Timestamp.In(locIST).Format("2006-01-02"),
	}
}

// SaveBatch upserts a run's articles by ID.
func (a *Archive) SaveBatch(items []processor.Article) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]News, 0, len(items))
	for _, it := range items {
		rows = append(rows, toNews(it))
	}

	if err := upsertNews(a.DB, rows).Error; err != nil {
		return fmt.Errorf("storage: save batch: %w", err)
	}
	// cached history lists are not invalidated; they expire with listCacheTTL
	return nil
}

// upsertNews uses the article ID as the idempotency key and refreshes the
// enrichment fields of rows that already exist.
func upsertNews(db *gorm.DB, rows []News) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "summary", "topic", "sentiment", "entities", "published_at", "published_date", "updated_at"}),
	}).Create(&rows)
}

func normalizeQuery(q HistoryQuery) HistoryQuery {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 50
	}
	q.Source = strings.TrimSpace(q.Source)
	q.Topic = strings.ToLower(strings.TrimSpace(q.Topic))
	q.Date = strings.TrimSpace(q.Date)
	return q
}

func historyCacheKey(q HistoryQuery) string {
	return fmt.Sprintf("news:history:%s:%s:%s:%d", q.Source, q.Topic, q.Date, q.Limit)
}

// historyScope applies a normalized query's filters, newest first.
func historyScope(db *gorm.DB, q HistoryQuery) *gorm.DB {
	db = db.Model(&News{})
	if q.Source != "" {
		db = db.Where("source = ?", q.Source)
	}
	if q.Topic != "" {
		db = db.Where("topic = ?", q.Topic)
	}
	if q.Date != "" {
		db = db.Where("published_date = ?", q.Date)
	}
	return db.Order("published_at DESC").Limit(q.Limit)
}

// ListHistory returns archived articles newest first.
func (a *Archive) ListHistory(ctx context.Context, q HistoryQuery) ([]News, error) {
	q = normalizeQuery(q)
	cacheKey := historyCacheKey(q)

	if a.Redis != nil {
		if bs, err := a.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []News
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var list []News
	if err := historyScope(a.DB.WithContext(ctx), q).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("storage: list history: %w", err)
	}

	if a.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = a.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return list, nil
}

// Close releases the database and Redis connections.
func (a *Archive) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
