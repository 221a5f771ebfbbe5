package router

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RunInfo is what /health reports about the current run
type RunInfo interface {
	RunID() string
	Progress() (done, total int)
}

// SetupRouter builds the status endpoints of a run
func SetupRouter(info RunInfo, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// ============ Health Check ============
	r.GET("/health", func(c *gin.Context) {
		done, total := info.Progress()
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "hyperlane-register",
			"run_id":  info.RunID(),
			"done":    done,
			"total":   total,
		})
	})

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}

// StatusServer serves the status router in the background for the length of a run
type StatusServer struct {
	srv      *http.Server
	listener net.Listener
	logger   *logrus.Logger
	done     chan error
}

// Start binds addr and begins serving
func Start(addr string, handler http.Handler, logger *logrus.Logger) (*StatusServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &StatusServer{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		logger:   logger,
		done:     make(chan error, 1),
	}
	go func() {
		s.done <- s.srv.Serve(ln)
	}()

	logger.WithField("addr", ln.Addr().String()).Info("status server listening")
	return s, nil
}

// Addr is the bound address, useful when started on port 0
func (s *StatusServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-s.done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.WithError(err).Warn("status server stopped with error")
	}
	return nil
}
