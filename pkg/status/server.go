package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"xwatch/pkg/logger"
)

// Server exposes /health, /progress and /metrics for an unattended crawl
type Server struct {
	addr    string
	engine  *gin.Engine
	tracker *Tracker
	log     logger.Logger
}

// NewServer builds the routes. metrics may be nil.
func NewServer(addr string, tracker *Tracker, metrics http.Handler, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		addr:    addr,
		engine:  gin.New(),
		tracker: tracker,
		log:     log.WithField("component", "status"),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/health", s.health)
	s.engine.GET("/progress", s.progress)
	if metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(metrics))
	}
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "xwatch",
			"endpoints": []string{"/health", "/progress", "/metrics"},
		})
	})
	return s
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoWithFields("Status server listening", map[string]interface{}{"addr": s.addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	snap := s.tracker.Snapshot()
	code := http.StatusOK
	if snap.State == StateStopped {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": snap.State,
		"uptime": time.Since(snap.StartedAt).Round(time.Second).String(),
	})
}

func (s *Server) progress(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.DebugWithFields("Status request", map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
	}
}
