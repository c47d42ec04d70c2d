package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	billingdomain "github.com/smallbiznis/scriptly/internal/billing/domain"
	"github.com/smallbiznis/scriptly/internal/clock"
	"github.com/smallbiznis/scriptly/internal/config"
	"github.com/smallbiznis/scriptly/internal/identity"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	"github.com/smallbiznis/scriptly/internal/observability"
	obsmiddleware "github.com/smallbiznis/scriptly/internal/observability/logger"
	postdomain "github.com/smallbiznis/scriptly/internal/post/domain"
	publicationdomain "github.com/smallbiznis/scriptly/internal/publication/domain"
	quotadomain "github.com/smallbiznis/scriptly/internal/quota/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewEngine(obsCfg observability.Config, db *gorm.DB) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	clock          clock.Clock
	resolver       identity.Resolver
	postSvc        postdomain.Service
	publicationSvc publicationdomain.Service
	quotaSvc       quotadomain.Service
	jobSvc         jobdomain.Service
	reconciler     billingdomain.Reconciler
}

type ServerParams struct {
	fx.In

	Engine         *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Clock          clock.Clock
	Resolver       identity.Resolver
	PostSvc        postdomain.Service
	PublicationSvc publicationdomain.Service
	QuotaSvc       quotadomain.Service
	JobSvc         jobdomain.Service
	Reconciler     billingdomain.Reconciler
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Engine,
		cfg:            p.Cfg,
		log:            p.Log.Named("server"),
		clock:          p.Clock,
		resolver:       p.Resolver,
		postSvc:        p.PostSvc,
		publicationSvc: p.PublicationSvc,
		quotaSvc:       p.QuotaSvc,
		jobSvc:         p.JobSvc,
		reconciler:     p.Reconciler,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.POST("/webhooks/stripe", s.handleStripeWebhook)

	v1 := s.engine.Group("/v1")
	v1.Use(SubjectAuthMiddleware(s.resolver))
	{
		v1.POST("/posts/generate", s.handleGeneratePost)
		v1.GET("/posts", s.handleListPosts)
		v1.GET("/posts/:id", s.handleGetPost)
		v1.POST("/posts/:id/schedule", s.handleSchedulePublication)
		v1.GET("/publications", s.handleListPublications)
		v1.DELETE("/publications/:id", s.handleCancelPublication)
		v1.GET("/usage", s.handleGetUsage)
	}
}

func run(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", s.cfg.HTTPAddr))
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
