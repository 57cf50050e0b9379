package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/kintai-api/internal/middleware"
	"github.com/noah-isme/kintai-api/internal/models"
	"github.com/noah-isme/kintai-api/internal/repository"
	"github.com/noah-isme/kintai-api/internal/service"
	"github.com/noah-isme/kintai-api/pkg/config"
)

// Handlers aggregates every HTTP handler needed to serve the API.
type Handlers struct {
	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Report     *ReportHandler
	Summary    *SummaryHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes attaches all routes to the engine. Ops endpoints live at
// the root; business endpoints under the configured API prefix.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, h Handlers, authSvc *service.AuthService, metricsSvc *service.MetricsService, userRepo *repository.UserRepository) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Metrics(metricsSvc))

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)

		authed := auth.Group("")
		authed.Use(middleware.JWT(authSvc))
		authed.POST("/logout", h.Auth.Logout)
		authed.POST("/change-password", middleware.Audit(userRepo, "PASSWORD_CHANGE", "auth"), h.Auth.ChangePassword)
		authed.GET("/me", h.Auth.Me)
	}

	attendance := api.Group("/attendance")
	attendance.Use(middleware.JWT(authSvc))
	{
		attendance.POST("", h.Attendance.Punch)
		attendance.DELETE("", h.Attendance.DeleteToday)
		attendance.GET("/status", h.Attendance.Status)
		attendance.GET("/history", h.Attendance.History)
		attendance.PUT("/:id", h.Attendance.Update)
		attendance.DELETE("/:id", h.Attendance.Delete)
		attendance.POST("/:id/approve", h.Attendance.Approve)
	}

	reports := api.Group("/reports")
	reports.Use(middleware.JWT(authSvc))
	reports.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleReviewer, models.RoleEmployee))
	{
		reports.GET("", h.Report.List)
		reports.POST("", h.Report.Create)
		reports.PUT("", h.Report.UpdateByBody)
		reports.GET("/:id", h.Report.Get)
		reports.PUT("/:id", h.Report.Update)
		reports.DELETE("/:id", h.Report.Delete)
		reports.GET("/:id/comments", h.Report.ListComments)
		reports.POST("/:id/comments", h.Report.AddComment)
	}

	report := api.Group("/report")
	report.Use(middleware.JWT(authSvc))
	{
		report.GET("", h.Summary.Summary)
		report.GET("/export", h.Summary.Export)
	}
}
