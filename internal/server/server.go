package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/enrichment"
	"github.com/venskies/flightwatch/internal/reconcile"
	"github.com/venskies/flightwatch/internal/resolver"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke((*Server).RegisterRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogging(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	reconcileSvc reconcile.Service
	resolverSvc  resolver.Service
	enrichSvc    enrichment.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	ReconcileSvc reconcile.Service
	ResolverSvc  resolver.Service
	EnrichSvc    enrichment.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		reconcileSvc: p.ReconcileSvc,
		resolverSvc:  p.ResolverSvc,
		enrichSvc:    p.EnrichSvc,
	}
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api", s.CronAuth())
	api.GET("/sync", s.Sync)
	api.GET("/cleanup", s.Cleanup)
	api.GET("/enrich-aircraft", s.EnrichAircraft)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
