package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/unirate/api/swagger"
	"github.com/noah-isme/unirate/internal/handler"
	"github.com/noah-isme/unirate/internal/repository"
	"github.com/noah-isme/unirate/internal/service"
	"github.com/noah-isme/unirate/pkg/cache"
	"github.com/noah-isme/unirate/pkg/config"
	"github.com/noah-isme/unirate/pkg/database"
	"github.com/noah-isme/unirate/pkg/identity"
	"github.com/noah-isme/unirate/pkg/jobs"
	"github.com/noah-isme/unirate/pkg/logger"
	"github.com/noah-isme/unirate/web"
)

// @title UniRate API
// @version 1.0.0
// @description Anonymous university subject reviews
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	app, err := buildApp(cfg, logr, db, redisClient)
	if err != nil {
		return err
	}
	if err := app.refresher.Refresh(ctx); err != nil {
		logr.Warn("initial subject stats refresh failed", zap.Error(err))
	}
	if app.queue != nil {
		app.queue.Start(ctx)
		defer app.queue.Stop()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	router    *gin.Engine
	queue     *jobs.Queue
	refresher *service.StatsRefreshService
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) (*app, error) {
	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	universityRepo := repository.NewUniversityRepository(db, metrics)
	facultyRepo := repository.NewFacultyRepository(db, metrics)
	subjectRepo := repository.NewSubjectRepository(db, metrics)
	reviewRepo := repository.NewReviewRepository(db, metrics)
	statsViewRepo := repository.NewStatsViewRepository(db, metrics)

	universities := service.NewUniversityService(universityRepo, cacheSvc, logr)
	faculties := service.NewFacultyService(facultyRepo, cacheSvc, logr)
	subjects := service.NewSubjectService(subjectRepo, cacheSvc, logr, cfg.Pages.SubjectsPerPage)
	refresher := service.NewStatsRefreshService(statsViewRepo, cacheSvc, metrics, logr)

	reviewCfg := service.ReviewServiceConfig{
		Cache:           cacheSvc,
		Metrics:         metrics,
		Validator:       validate,
		Logger:          logr,
		DefaultPageSize: cfg.Pages.ReviewsPerPage,
	}
	var queue *jobs.Queue
	if cfg.StatsRefresh.Enabled {
		queue = jobs.NewQueue("stats", refresher.Handle, jobs.QueueConfig{
			Workers:    cfg.StatsRefresh.Workers,
			MaxRetries: cfg.StatsRefresh.MaxRetries,
			RetryDelay: cfg.StatsRefresh.RetryDelay,
			Logger:     logr,
		})
		reviewCfg.Queue = queue
	}
	reviews := service.NewReviewService(reviewRepo, reviewCfg)

	pages := service.NewPageService(universities, subjects, faculties, reviews, service.PageConfig{
		SubjectsPerPage: cfg.Pages.SubjectsPerPage,
		ReviewsPerPage:  cfg.Pages.ReviewsPerPage,
	}, logr)
	exporter := service.NewStatsExportService(subjects, reviews, logr)

	provider := identity.NewClient(identity.Config{
		BaseURL: cfg.Auth.ProviderURL,
		APIKey:  cfg.Auth.ProviderAPIKey,
		Timeout: cfg.Auth.RequestTimeout,
	})
	auth := service.NewAuthService(provider, validate, logr, service.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		Audience:  cfg.Auth.Audience,
	})

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	registerRoutes(r, routeDeps{
		cfg:          cfg,
		logger:       logr,
		metrics:      metrics,
		auth:         auth,
		pages:        handler.NewPageHandler(pages, universities, reviews, logr),
		authHandler:  handler.NewAuthHandler(auth, handler.CookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}, logr),
		universities: handler.NewUniversityHandler(universities, faculties, subjects),
		subjects:     handler.NewSubjectHandler(universities, subjects, reviews, cfg.Pages.APIDefaultLimit),
		reviews:      handler.NewReviewHandler(subjects, reviews, exporter),
		health:       handler.NewMetricsHandler(metrics, db),
	})

	return &app{router: r, queue: queue, refresher: refresher}, nil
}
