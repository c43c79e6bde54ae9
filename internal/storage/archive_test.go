package storage

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/LJTian/NewsHarvest/internal/processor"
)

// dryRunDB builds statements against the postgres dialector without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func newTestArchive(t *testing.T) (*Archive, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Archive{DB: dryRunDB(t), Redis: client}, mr
}

func TestUpsertNewsOnConflictByID(t *testing.T) {
	rows := []News{toNews(processor.Article{ID: "abc", Source: "NDTV", Title: "t", Timestamp: time.Now()})}

	stmt := upsertNews(dryRunDB(t), rows).Statement
	sql := stmt.SQL.String()
	if !strings.Contains(sql, `ON CONFLICT ("id") DO UPDATE SET`) {
		t.Fatalf("missing upsert clause: %s", sql)
	}
	for _, col := range []string{"title", "summary", "sentiment", "entities", "published_date"} {
		if !strings.Contains(sql, `"`+col+`"="excluded"."`+col+`"`) {
			t.Fatalf("column %s not refreshed on conflict: %s", col, sql)
		}
	}
	if strings.Contains(sql, `"source"="excluded"."source"`) {
		t.Fatalf("source should not be rewritten on conflict: %s", sql)
	}
}

func TestSaveBatch(t *testing.T) {
	a := &Archive{DB: dryRunDB(t)}
	if err := a.SaveBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := a.SaveBatch([]processor.Article{{ID: "x", Source: "NDTV", Title: "t", Timestamp: time.Now()}}); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
}

func TestHistoryScopeFilters(t *testing.T) {
	q := normalizeQuery(HistoryQuery{Source: "NDTV", Topic: "sports", Date: "2024-05-01", Limit: 10})

	var list []News
	stmt := historyScope(dryRunDB(t), q).Find(&list).Statement
	sql := stmt.SQL.String()
	for _, want := range []string{"source = $1", "topic = $2", "published_date = $3", "ORDER BY published_at DESC", "LIMIT"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("query %q missing %q", sql, want)
		}
	}
	if len(stmt.Vars) < 3 || stmt.Vars[0] != "NDTV" || stmt.Vars[1] != "sports" || stmt.Vars[2] != "2024-05-01" {
		t.Fatalf("unexpected vars: %v", stmt.Vars)
	}

	var all []News
	open := historyScope(dryRunDB(t), normalizeQuery(HistoryQuery{})).Find(&all).Statement.SQL.String()
	if strings.Contains(open, "WHERE") {
		t.Fatalf("empty query should not filter: %s", open)
	}
}

func TestListHistoryServesRedisCache(t *testing.T) {
	a, mr := newTestArchive(t)
	q := HistoryQuery{Source: "NDTV", Limit: 5}

	cached := []News{{ID: "cached", Title: "From cache", Source: "NDTV"}}
	bs, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := mr.Set(historyCacheKey(normalizeQuery(q)), string(bs)); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	got, err := a.ListHistory(context.Background(), q)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(got) != 1 || got[0].ID != "cached" {
		t.Fatalf("expected cached list, got %+v", got)
	}
}

func TestListHistoryMissSkipsEmptyResult(t *testing.T) {
	a, mr := newTestArchive(t)
	q := HistoryQuery{Topic: "business"}

	got, err := a.ListHistory(context.Background(), q)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("dry-run db should return nothing, got %d", len(got))
	}
	if mr.Exists(historyCacheKey(normalizeQuery(q))) {
		t.Fatalf("empty results must not be cached")
	}
}

func TestListHistoryIgnoresCorruptCache(t *testing.T) {
	a, mr := newTestArchive(t)
	q := HistoryQuery{Source: "News18"}
	if err := mr.Set(historyCacheKey(normalizeQuery(q)), "not json"); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	if _, err := a.ListHistory(context.Background(), q); err != nil {
		t.Fatalf("corrupt cache entry should fall through to the db, got %v", err)
	}
}
