package mw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"casilleros-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestCache(t *testing.T) {
	calls := 0
	outcome := OutcomeOK

	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute, nil))
	r.GET("/items", func(c *gin.Context) {
		calls++
		SetOutcome(c, outcome)
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.POST("/items", func(c *gin.Context) {
		SetOutcome(c, OutcomeOK)
		c.Status(http.StatusOK)
	})

	t.Run("second GET is served from the cache", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/items")
		assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
		assert.JSONEq(t, `{"calls":1}`, w.Body.String())

		w = serve(r, http.MethodGet, "/items")
		assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"calls":1}`, w.Body.String())
		assert.Equal(t, 1, calls)
	})

	t.Run("write flushes the cache", func(t *testing.T) {
		serve(r, http.MethodPost, "/items")

		w := serve(r, http.MethodGet, "/items")
		assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
		assert.JSONEq(t, `{"calls":2}`, w.Body.String())
	})

	t.Run("failed outcomes are not cached", func(t *testing.T) {
		serve(r, http.MethodPost, "/items")
		outcome = "store"

		serve(r, http.MethodGet, "/items")
		w := serve(r, http.MethodGet, "/items")
		assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
		assert.JSONEq(t, `{"calls":4}`, w.Body.String())
	})
}

func TestCache_ReadOverlappingWrite(t *testing.T) {
	var mu sync.Mutex
	value := "old"
	hold := true
	entered := make(chan struct{})
	release := make(chan struct{})

	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute, nil))
	r.GET("/value", func(c *gin.Context) {
		mu.Lock()
		v, wait := value, hold
		hold = false
		mu.Unlock()
		if wait {
			close(entered)
			<-release
		}
		SetOutcome(c, OutcomeOK)
		c.String(http.StatusOK, v)
	})
	r.POST("/value", func(c *gin.Context) {
		mu.Lock()
		value = "new"
		mu.Unlock()
		SetOutcome(c, OutcomeOK)
		c.Status(http.StatusOK)
	})

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- serve(r, http.MethodGet, "/value") }()
	<-entered

	serve(r, http.MethodPost, "/value")
	close(release)
	assert.Equal(t, "old", (<-done).Body.String())

	w := serve(r, http.MethodGet, "/value")
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
	assert.Equal(t, "new", w.Body.String())

	w = serve(r, http.MethodGet, "/value")
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.Equal(t, "new", w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2, nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/").Code)

	w := serve(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)

	a := l.GetLimiter("10.0.0.1")
	assert.Same(t, a, l.GetLimiter("10.0.0.1"))
	assert.NotSame(t, a, l.GetLimiter("10.0.0.2"))
	assert.Equal(t, 2, l.Len())

	assert.True(t, a.Allow())
	assert.False(t, a.Allow())
	assert.True(t, l.GetLimiter("10.0.0.2").Allow())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := serve(r, http.MethodGet, "/")
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestOutcome(t *testing.T) {
	r := gin.New()
	r.GET("/set", func(c *gin.Context) {
		SetOutcome(c, "validation")
		c.String(http.StatusOK, Outcome(c))
	})
	r.GET("/default", func(c *gin.Context) {
		c.String(http.StatusOK, Outcome(c))
	})

	assert.Equal(t, "validation", serve(r, http.MethodGet, "/set").Body.String())
	assert.Equal(t, OutcomeOK, serve(r, http.MethodGet, "/default").Body.String())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/api/bloques", func(c *gin.Context) {
		SetOutcome(c, OutcomeOK)
		c.Status(http.StatusOK)
	})
	r.DELETE("/api/bloques/:id", func(c *gin.Context) {
		SetOutcome(c, "not_found")
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/api/bloques")
	serve(r, http.MethodGet, "/api/bloques")
	serve(r, http.MethodDelete, "/api/bloques/9")
	serve(r, http.MethodGet, "/nowhere")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("/api/bloques", "GET", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("/api/bloques/:id", "DELETE", "not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "error")))
}

type statsStore struct {
	store.Store
	stats store.Stats
	err   error
}

func (s statsStore) Stats(_ context.Context) (store.Stats, error) {
	return s.stats, s.err
}

func TestLockerCollector(t *testing.T) {
	lc := NewLockerCollector(statsStore{stats: store.Stats{Total: 4, Available: 2, Occupied: 1, Damaged: 1}}, nil)

	expected := `
# HELP casilleros_lockers Number of lockers by state.
# TYPE casilleros_lockers gauge
casilleros_lockers{estado="Averiado"} 1
casilleros_lockers{estado="Disponible"} 2
casilleros_lockers{estado="Ocupado"} 1
`
	require.NoError(t, testutil.CollectAndCompare(lc, strings.NewReader(expected)))

	failing := NewLockerCollector(statsStore{err: errors.New("db down")}, nil)
	assert.Equal(t, 0, testutil.CollectAndCount(failing))
}
