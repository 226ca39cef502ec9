package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/simple_mysql_go/internal/metrics"
	"github.com/simple_mysql_go/internal/store"
)

// Server exposes one store.Helper over HTTP. The helper is not safe for
// concurrent use, so every request holds mu while it touches it.
type Server struct {
	mu      sync.Mutex
	helper  *store.Helper
	timeout time.Duration
}

// NewServer wraps helper. timeout bounds each request's database work.
func NewServer(helper *store.Helper, timeout time.Duration) *Server {
	return &Server{helper: helper, timeout: timeout}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.POST("/query", s.query)
	api.GET("/tables/:table/count", s.count)
	api.POST("/tables/:table/rows", s.insert)
	api.PATCH("/tables/:table/rows", s.update)
	api.DELETE("/tables/:table/rows", s.delete)
	api.GET("/last-id", s.lastID)
	api.GET("/logs/work", s.workLog)
	api.GET("/logs/errors", s.errorLog)

	return router
}

// withHelper runs fn with exclusive access to the helper and a context bound
// to the request timeout.
func (s *Server) withHelper(c *gin.Context, fn func(ctx context.Context, h *store.Helper)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	fn(ctx, s.helper)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.Observe(duration.Seconds())

		event := log.Debug()
		if status >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("took", duration).
			Msg("HTTP request")
	}
}
