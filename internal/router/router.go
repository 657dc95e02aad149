package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/studio-schedule-api/internal/handler"
	"github.com/noah-isme/studio-schedule-api/internal/middleware"
	"github.com/noah-isme/studio-schedule-api/internal/models"
	"github.com/noah-isme/studio-schedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/studio-schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/studio-schedule-api/pkg/middleware/requestid"
)

// Options wires handlers and cross-cutting concerns into the engine.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger

	Tokens   middleware.TokenValidator
	Observer middleware.RequestObserver
	Audit    middleware.AuditRecorder

	Schedules *handler.ScheduleHandler
	Teachers  *handler.TeacherHandler
	Metrics   *handler.MetricsHandler
}

// New builds the gin engine with every route of the schedule API.
func New(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}
	r.Use(middleware.WithResponseMeta())

	if opts.Metrics != nil {
		r.GET("/health", opts.Metrics.Health)
		r.GET("/ready", opts.Metrics.Ready)
		r.GET("/metrics", opts.Metrics.Prometheus)
	}
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix(opts.APIPrefix))
	api.Use(middleware.JWT(opts.Tokens))

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	audit := func(action string) gin.HandlerFunc {
		return middleware.Audit(opts.Audit, action, "schedule")
	}

	if h := opts.Schedules; h != nil {
		schedules := api.Group("/schedules")
		schedules.GET("", staff, h.List)
		schedules.GET("/week", h.Week)
		schedules.GET("/export", admin, h.Export)
		schedules.POST("/conflicts", admin, h.CheckConflicts)
		schedules.GET("/:id", staff, h.Get)
		schedules.POST("", admin, audit(models.AuditActionScheduleCreate), h.Create)
		schedules.PUT("/:id", admin, audit(models.AuditActionScheduleUpdate), h.Update)
		schedules.PATCH("/:id/active", admin, audit(models.AuditActionScheduleToggle), h.SetActive)
		schedules.DELETE("/:id", admin, audit(models.AuditActionScheduleDelete), h.Delete)

		api.GET("/teachers/:id/schedules", middleware.RBAC(string(models.RoleAdmin), middleware.RoleSelf), h.ListByTeacher)
	}
	if h := opts.Teachers; h != nil {
		api.GET("/teachers", admin, h.List)
		api.GET("/teachers/:id", admin, h.Get)
	}
	if opts.Metrics != nil {
		api.GET("/metrics/summary", admin, opts.Metrics.Summary)
	}

	return r
}

func prefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/api/v1"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}
