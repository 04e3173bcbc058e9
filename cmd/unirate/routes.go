package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/unirate/internal/handler"
	"github.com/noah-isme/unirate/internal/middleware"
	"github.com/noah-isme/unirate/internal/service"
	"github.com/noah-isme/unirate/pkg/config"
	"github.com/noah-isme/unirate/pkg/logger"
	corsmiddleware "github.com/noah-isme/unirate/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/unirate/pkg/middleware/requestid"
)

type routeDeps struct {
	cfg          *config.Config
	logger       *zap.Logger
	metrics      *service.MetricsService
	auth         *service.AuthService
	pages        *handler.PageHandler
	authHandler  *handler.AuthHandler
	universities *handler.UniversityHandler
	subjects     *handler.SubjectHandler
	reviews      *handler.ReviewHandler
	health       *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	cookie := d.cfg.Auth.CookieName

	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(middleware.Metrics(d.metrics, "/metrics"))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", d.health.Health)
	r.GET("/ready", d.health.Ready)
	r.GET("/metrics", d.health.Prometheus)
	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	pages := r.Group("/")
	pages.Use(middleware.OptionalSession(d.auth, cookie))
	pages.GET("/", d.pages.Landing)
	pages.GET("/login", d.authHandler.LoginForm)
	pages.POST("/login", d.authHandler.Login)
	pages.POST("/logout", d.authHandler.Logout)
	pages.GET("/universities", d.pages.Universities)
	pages.GET("/universities/:name", d.pages.Subjects)
	pages.GET("/universities/:name/:subjectCode", d.pages.Subject)

	write := pages.Group("/universities/:name/:subjectCode/write-review")
	write.Use(middleware.RequireSessionPage(d.auth, cookie))
	write.GET("", d.pages.WriteReviewForm)
	write.POST("", d.pages.SubmitReview)

	r.NoRoute(d.pages.NotFound)

	api := r.Group(d.cfg.APIPrefix)
	api.POST("/auth/token", d.authHandler.Token)
	api.GET("/universities", d.universities.List)
	api.GET("/universities/:name", d.universities.Get)
	api.GET("/universities/:name/faculties", d.universities.Faculties)
	api.GET("/universities/:name/categories", d.universities.Categories)
	api.GET("/universities/:name/subjects", d.subjects.List)
	api.GET("/universities/:name/subjects/:code", d.subjects.Get)
	api.GET("/universities/:name/subjects/:code/reviews", d.subjects.Reviews)
	api.GET("/subjects/:id/stats", d.reviews.Stats)
	api.GET("/subjects/:id/stats/export", d.reviews.ExportStats)
	api.POST("/subjects/:id/reviews", middleware.RequireSessionAPI(d.auth, cookie), d.reviews.Create)
}
