package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/academic-portal-api/api/swagger"
	"github.com/noah-isme/academic-portal-api/internal/handler"
	"github.com/noah-isme/academic-portal-api/internal/middleware"
	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/repository"
	"github.com/noah-isme/academic-portal-api/internal/service"
	"github.com/noah-isme/academic-portal-api/pkg/cache"
	"github.com/noah-isme/academic-portal-api/pkg/config"
	"github.com/noah-isme/academic-portal-api/pkg/database"
	"github.com/noah-isme/academic-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-portal-api/pkg/middleware/requestid"
)

// @title Academic Portal API
// @version 1.0.0
// @description Role-scoped course, assignment and attendance management
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	classRepo := repository.NewCourseClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academic-portal-api",
	})
	scopeService := service.NewScopeService(courseRepo, enrollmentRepo, logr)
	courseService := service.NewCourseService(courseRepo, classRepo, materialRepo, scopeService, cacheService, nil, logr)
	approvalService := service.NewApprovalService(courseRepo, userRepo, cacheService, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, courseRepo, scopeService, enrollmentRepo, cacheService, nil, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, enrollmentRepo, courseRepo, scopeService, nil, logr)
	materialService := service.NewMaterialService(materialRepo, courseRepo, enrollmentRepo, nil, logr)
	announcementService := service.NewAnnouncementService(announcementRepo, cacheService, nil, logr)
	exportService := service.NewExportService(attendanceService, nil, nil, logr)
	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Users:         userRepo,
		Courses:       courseRepo,
		Assignments:   assignmentRepo,
		Announcements: announcementRepo,
		Cache:         cacheService,
		Logger:        logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:          cfg.Dashboard.CacheTTL,
			AnnouncementLimit: cfg.Dashboard.AnnouncementLimit,
		},
	})

	authHandler := handler.NewAuthHandler(authService)
	courseHandler := handler.NewCourseHandler(courseService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, exportService)
	materialHandler := handler.NewMaterialHandler(materialService)
	announcementHandler := handler.NewAnnouncementHandler(announcementService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := string(models.RoleAdmin)
	lecturer := string(models.RoleLecturer)
	student := string(models.RoleStudent)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("")
		authed.Use(middleware.JWT(authService))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		protected.GET("/courses", courseHandler.List)
		protected.POST("/courses", middleware.RBAC(admin, lecturer), courseHandler.Create)
		protected.GET("/courses/:id", courseHandler.Detail)
		protected.PUT("/courses/:id", middleware.RBAC(admin, lecturer), courseHandler.Update)
		protected.DELETE("/courses/:id", middleware.RBAC(admin, lecturer), courseHandler.Delete)
		protected.GET("/courses/:id/classes", courseHandler.ListClasses)
		protected.POST("/courses/:id/classes", middleware.RBAC(admin, lecturer), courseHandler.CreateClass)
		protected.GET("/courses/:id/materials", materialHandler.ListByCourse)
		protected.POST("/courses/:id/materials", middleware.RBAC(admin, lecturer), materialHandler.Create)
		protected.DELETE("/materials/:id", middleware.RBAC(admin, lecturer), materialHandler.Delete)

		protected.GET("/courses/:id/attendance/roster", middleware.RBAC(admin, lecturer), attendanceHandler.Roster)
		protected.GET("/attendance", attendanceHandler.List)
		protected.POST("/attendance", middleware.RBAC(admin, lecturer), middleware.Audit(userRepo, "ATTENDANCE_RECORD", "attendance"), attendanceHandler.SubmitBatch)
		protected.GET("/attendance/export", middleware.RBAC(admin, lecturer), attendanceHandler.Export)

		protected.GET("/assignments", assignmentHandler.List)
		protected.POST("/assignments", middleware.RBAC(admin, lecturer), assignmentHandler.Create)
		protected.PUT("/assignments/:id", middleware.RBAC(admin, lecturer), assignmentHandler.Update)
		protected.DELETE("/assignments/:id", middleware.RBAC(admin, lecturer), assignmentHandler.Delete)
		protected.POST("/assignments/:id/submissions", middleware.RBAC(student), assignmentHandler.Submit)
		protected.GET("/assignments/:id/submissions", middleware.RBAC(admin, lecturer), assignmentHandler.ListSubmissions)
		protected.PUT("/submissions/:id/grade", middleware.RBAC(admin, lecturer), assignmentHandler.Grade)

		protected.GET("/approvals", middleware.RBAC(admin), approvalHandler.Overview)
		protected.PUT("/courses/:id/approval", middleware.RBAC(admin), approvalHandler.Decide)

		protected.GET("/announcements", announcementHandler.List)
		protected.POST("/announcements", middleware.RBAC(admin, lecturer), announcementHandler.Create)

		protected.GET("/dashboard/admin", middleware.RBAC(admin), dashboardHandler.Admin)
		protected.GET("/dashboard/status", middleware.RBAC(admin), metricsHandler.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
