package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/NewsHarvest/internal/processor"
	"github.com/LJTian/NewsHarvest/internal/storage"
	"github.com/gin-gonic/gin"
)

// Harvester is the read side of the pipeline plus its manual trigger.
type Harvester interface {
	Articles() []processor.Article
	RunOnce() bool
}

// Historian answers queries over archived runs.
type Historian interface {
	ListHistory(ctx context.Context, q storage.HistoryQuery) ([]storage.News, error)
}

// Server serves the current articles and, when an archive is configured,
// their history.
type Server struct {
	harvester Harvester
	history   Historian
	topics    []string
	now       func() time.Time
}

// NewServer builds the API. history may be nil when no archive is
// configured; topics lists the categories reported by /api/news/topics even
// when they have no articles.
func NewServer(h Harvester, history Historian, topics []string) *Server {
	return &Server{
		harvester: h,
		history:   history,
		topics:    append([]string(nil), topics...),
		now:       time.Now,
	}
}

// RegisterRoutes mounts the health, news and history routes on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	news := r.Group("/api/news")
	{
		news.GET("", s.listNews)
		news.GET("/topics", s.topicCounts)
		news.GET("/source/:source", s.newsBySource)
		news.GET("/topic/:topic", s.newsByTopic)
		news.POST("/refresh", s.refresh)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news/history", s.listHistory)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": s.now()})
}

func (s *Server) listNews(c *gin.Context) {
	items := filterArticles(s.harvester.Articles(), c.Query("source"), c.Query("topic"))
	ok(c, applyLimit(items, c.Query("limit")))
}

func (s *Server) newsBySource(c *gin.Context) {
	items := filterArticles(s.harvester.Articles(), c.Param("source"), "")
	ok(c, applyLimit(items, c.Query("limit")))
}

func (s *Server) newsByTopic(c *gin.Context) {
	items := filterArticles(s.harvester.Articles(), "", c.Param("topic"))
	ok(c, applyLimit(items, c.Query("limit")))
}

func (s *Server) topicCounts(c *gin.Context) {
	counts := make(map[string]int, len(s.topics))
	for _, t := range s.topics {
		counts[t] = 0
	}
	for _, a := range s.harvester.Articles() {
		counts[a.Topic]++
	}
	ok(c, counts)
}

func (s *Server) refresh(c *gin.Context) {
	started := s.harvester.RunOnce()
	msg := "refresh started"
	if !started {
		msg = "refresh already in progress"
	}
	c.JSON(http.StatusAccepted, gin.H{
		"code":    "accepted",
		"message": msg,
		"data":    gin.H{"started": started},
	})
}

func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		fail(c, http.StatusServiceUnavailable, "archive_disabled", "archive is not configured")
		return
	}

	date := strings.TrimSpace(c.Query("date"))
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			fail(c, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
			return
		}
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := s.history.ListHistory(c.Request.Context(), storage.HistoryQuery{
		Source: c.Query("source"),
		Topic:  c.Query("topic"),
		Date:   date,
		Limit:  limit,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, items)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

// filterArticles keeps articles whose source matches case-insensitively and
// whose topic matches; empty filters match everything.
func filterArticles(items []processor.Article, source, topic string) []processor.Article {
	source = strings.TrimSpace(source)
	topic = strings.ToLower(strings.TrimSpace(topic))
	if source == "" && topic == "" {
		return items
	}
	out := make([]processor.Article, 0, len(items))
	for _, a := range items {
		if source != "" && !strings.EqualFold(a.Source, source) {
			continue
		}
		if topic != "" && a.Topic != topic {
			continue
		}
		out = append(out, a)
	}
	return out
}

// applyLimit truncates items to a positive limit; anything else means no limit.
func applyLimit(items []processor.Article, raw string) []processor.Article {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit >= len(items) {
		return items
	}
	return items[:limit]
}
