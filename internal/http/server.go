package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/jmehdipour/contact-site/internal/config"
	"github.com/jmehdipour/contact-site/internal/metrics"
	"github.com/jmehdipour/contact-site/internal/service/contact"
	"github.com/jmehdipour/contact-site/web"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, contactSvc *contact.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(echoLevel(cfg.Log.Level))
	e.Use(echoMid.Recover(), echoMid.Logger())

	limit := cfg.HTTP.BodyLimit
	if limit == "" {
		limit = "100K"
	}
	e.Use(echoMid.BodyLimit(limit))

	origins := cfg.HTTP.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(echoMid.CORSWithConfig(echoMid.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	metrics.MustRegister(prometheus.DefaultRegisterer)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health + admin
	e.GET("/health", healthHandler(contactSvc))
	e.GET("/admin/recent-logs", recentLogsHandler(contactSvc, cfg.Submissions.RecentLimit, logger))

	// routes
	e.POST("/contact", contactHandler(contactSvc, logger))

	// static site
	if cfg.HTTP.ServeFrontend {
		e.StaticFS("/", echo.MustSubFS(web.Assets, "static"))
	}

	return &Server{e: e, log: logger}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func echoLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
