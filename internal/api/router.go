package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"casilleros-backend/config"
	"casilleros-backend/internal/mw"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Server config.ServerConfig
	// Registry receives the HTTP and locker metrics. A fresh registry is used
	// when nil.
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		mw.NewLockerCollector(h.store, log),
	)
	metrics := mw.NewMetrics(reg)

	r := gin.New()
	r.Use(
		gin.CustomRecovery(func(c *gin.Context, err any) {
			log.Error("panic recovered", zap.Any("error", err), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Error interno del servidor",
			})
		}),
		mw.RequestID(),
		mw.Logger(log.Named("http")),
		metrics.Handler(),
		cors.New(corsConfig(opts.Server.AllowOrigins)),
	)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	rateLimiter := mw.RateLimiter(rate.Limit(opts.Server.RateLimitPerSec), opts.Server.RateLimitBurst, log)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/health", h.Health)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
	}

	// Inventory routes share one response cache; every write flushes it.
	inventory := api.Group("")
	if ttl := opts.Server.CacheTTLSeconds; ttl > 0 {
		duration := time.Duration(ttl) * time.Second
		inventory.Use(mw.Cache(cache.New(duration, 2*duration), duration, log))
	}
	{
		inventory.GET("/bloques", h.ListBlocks)
		inventory.POST("/bloques", h.CreateBlock)
		inventory.DELETE("/bloques/:id", h.DeleteBlock)

		inventory.GET("/casilleros/:bloqueId", h.ListLockers)
		inventory.POST("/casilleros", h.CreateLocker)
		inventory.PUT("/casilleros/:id", h.UpdateLocker)
		inventory.DELETE("/casilleros/:id", h.DeleteLocker)

		inventory.GET("/estadisticas", h.Stats)
	}

	r.NoRoute(noRoute(opts.Server.StaticDir))
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", mw.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", mw.RequestIDHeader, mw.CacheHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// noRoute serves the static frontend when one is configured and answers
// anything else with a failure envelope.
func noRoute(staticDir string) gin.HandlerFunc {
	var files http.Handler
	if staticDir != "" {
		files = http.FileServer(http.Dir(staticDir))
	}
	return func(c *gin.Context) {
		if files != nil && (c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead) {
			files.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Ruta no encontrada"})
	}
}
