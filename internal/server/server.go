// Package server exposes the collector's HTTP API: agents push snapshots,
// operators list and delete machine records.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/config"
	"github.com/Guliveer/pcstatus/internal/machines"
)

const (
	// AgentTokenHeader authenticates snapshot pushes.
	AgentTokenHeader = "X-Agent-Token"
	// AdminTokenHeader authenticates record deletion.
	AdminTokenHeader = "X-Admin-Token"

	bodyLimit = "1M"
)

// Server is the collector HTTP server.
type Server struct {
	echo   *echo.Echo
	cfg    config.CollectorConfig
	svc    *machines.Service
	logger *zap.Logger
}

// New builds the server and registers its routes.
func New(cfg config.CollectorConfig, svc *machines.Service, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		cfg:    cfg,
		svc:    svc,
		logger: logger.Named("server"),
	}

	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, AgentTokenHeader, AdminTokenHeader},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.health)

	m := s.echo.Group("/machines")
	m.GET("", s.listMachines)
	m.GET("/:id", s.getMachine)
	m.POST("/:id", s.ingest, s.tokenAuth(AgentTokenHeader, s.cfg.Auth.AgentToken, "agent"))
	m.DELETE("/:id", s.deleteMachine, s.tokenAuth(AdminTokenHeader, s.cfg.Auth.AdminToken, "admin"))
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("Collector listening", zap.String("addr", s.cfg.HTTP.ListenAddr))
	err := s.echo.Start(s.cfg.HTTP.ListenAddr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("Request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP))
			return nil
		},
	})
}
