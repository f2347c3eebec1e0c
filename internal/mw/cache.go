package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// CacheHeader reports whether a GET response was served from the cache.
const CacheHeader = "X-Cache"

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache is a middleware for in-memory caching of GET requests. Only responses
// whose handler reported a successful outcome are stored. Any request with
// another method flushes the whole cache once it has been handled, so reads
// never observe data older than the last write. A GET that was in flight while
// a write completed is served but not stored.
func Cache(store *cache.Cache, duration time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	// generation counts completed writes. It is read and bumped under mu
	// together with the store, so a flush cannot slip between check and Set.
	var (
		mu         sync.Mutex
		generation uint64
	)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			mu.Lock()
			generation++
			n := store.ItemCount()
			store.Flush()
			mu.Unlock()
			if n > 0 {
				log.Debug("response cache flushed",
					zap.String("method", c.Request.Method),
					zap.String("path", c.FullPath()),
					zap.Int("entries", n))
			}
			return
		}

		key := c.Request.RequestURI
		if resp, found := store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			SetOutcome(c, OutcomeOK)
			c.Abort()
			return
		}

		mu.Lock()
		started := generation
		mu.Unlock()

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw
		c.Header(CacheHeader, "MISS")

		c.Next()

		if blw.Status() < 200 || blw.Status() >= 300 || Outcome(c) != OutcomeOK {
			return
		}
		headers := blw.Header().Clone()
		headers.Del(CacheHeader)
		headers.Del(RequestIDHeader)

		mu.Lock()
		defer mu.Unlock()
		if generation != started {
			log.Debug("stale response not cached", zap.String("path", key))
			return
		}
		store.Set(key, cachedResponse{
			status:  blw.Status(),
			headers: headers,
			body:    blw.body.Bytes(),
		}, duration)
	}
}
