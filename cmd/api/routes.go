package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/weprep-api/api/swagger"
	"github.com/noah-isme/weprep-api/internal/handler"
	"github.com/noah-isme/weprep-api/internal/middleware"
	"github.com/noah-isme/weprep-api/internal/models"
	"github.com/noah-isme/weprep-api/internal/service"
	"github.com/noah-isme/weprep-api/pkg/config"
	"github.com/noah-isme/weprep-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/weprep-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/weprep-api/pkg/middleware/requestid"
)

type routerDeps struct {
	tokens   middleware.TokenValidator
	metrics  *service.MetricsService
	courses  *handler.CourseHandler
	requests *handler.TeachingRequestHandler
	health   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(deps.metrics, "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := string(models.RoleAdmin)
	learner := string(models.RoleLearner)
	tutor := string(models.RoleTutor)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.tokens))

	courses := api.Group("/courses")
	courses.POST("", middleware.RBAC(learner, admin), deps.courses.Create)
	courses.GET("", deps.courses.List)
	courses.GET("/:id", deps.courses.Get)
	courses.PUT("/:id", middleware.RBAC(learner, admin), deps.courses.Update)
	courses.POST("/:id/teaching-requests", middleware.RBAC(tutor), deps.requests.Create)
	courses.GET("/:id/teaching-requests", middleware.RBAC(admin), deps.requests.ListByCourse)
	courses.POST("/:id/assign", middleware.RBAC(admin), deps.courses.Assign)
	courses.POST("/:id/dissociate", middleware.RBAC(admin), deps.courses.Dissociate)
	courses.POST("/:id/confirm", middleware.RBAC(learner, admin), deps.courses.Confirm)
	courses.POST("/:id/review", middleware.RBAC(learner), deps.courses.Review)
	courses.POST("/:id/refund", middleware.RBAC(admin), deps.courses.Refund)
	courses.PATCH("/:id/status", middleware.RBAC(admin), deps.courses.SetStatus)

	api.GET("/tutors/:id/teaching-requests", middleware.RBAC(admin, middleware.Self), deps.requests.ListByTutor)

	return r
}
