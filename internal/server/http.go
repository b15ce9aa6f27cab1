package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/meo-insight/internal/conf"
	"github.com/lk2023060901/meo-insight/internal/meo/service"
	apperrors "github.com/lk2023060901/meo-insight/internal/pkg/errors"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/lk2023060901/meo-insight/internal/pkg/ratelimit"
	"github.com/lk2023060901/meo-insight/internal/pkg/response"
	"go.uber.org/zap"
)

type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

// NewHTTPServer builds the gin engine; limiter may be nil to disable rate limiting
func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	meoService *service.MEOService,
	limiter *ratelimit.Limiter,
) *HTTPServer {
	if config.Server.Mode != "" {
		gin.SetMode(config.Server.Mode)
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:              config.Server.Addr(),
			Handler:           NewRouter(log, meoService, limiter),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// NewRouter wires middleware and routes
func NewRouter(log *logger.Logger, meoService *service.MEOService, limiter *ratelimit.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log, logger.MiddlewareOptions{SkipPaths: []string{"/health"}}))
	router.SetHTMLTemplate(service.Templates())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.NoRoute(func(c *gin.Context) {
		response.ErrorWithCode(c, apperrors.ErrNotFound, c.Request.URL.Path)
	})

	var limit gin.HandlerFunc
	if limiter != nil {
		limit = limiter.Middleware()
	}

	// API routes
	api := router.Group("/api/v1")
	meoService.RegisterRoutes(router, api, limit)

	return router
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
