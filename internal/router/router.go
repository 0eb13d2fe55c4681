package router

import (
	"time"

	"assettracker/internal/config"
	"assettracker/internal/handler"
	"assettracker/internal/infra"
	"assettracker/internal/metrics"
	"assettracker/internal/middleware"
	"assettracker/internal/repository"
	"assettracker/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
//
// notifier receives low-stock alerts from both CSV ingestion and direct
// edits; nil disables them.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer, notifier service.Notifier) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	inventoryRepo := repository.NewInventoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationConfigRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	csvSvc := service.NewCSVService(inventoryRepo, notifier, cfg.BaseURL)
	inventorySvc := service.NewInventoryService(inventoryRepo, auditRepo, notifier, cfg.BaseURL)
	configSvc := service.NewConfigurationService(notificationRepo)
	exportSvc := service.NewExportService(auditRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	csvH := handler.NewCSVHandler(csvSvc, cfg.MaxUploadBytes)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	configH := handler.NewConfigurationHandler(configSvc)
	exportH := handler.NewExportHandler(exportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailer))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	writers := middleware.RequireRole(middleware.RoleServiceDesk, middleware.RoleAdmin)
	admins := middleware.RequireRole(middleware.RoleAdmin)

	// Protected routes. Reads are open to any authenticated role.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		csv := v1.Group("/csv")
		{
			csv.GET("/template", csvH.Template)
			csv.POST("/upload", writers, middleware.UploadRateLimiter(cfg.UploadRatePerMinute), csvH.Upload)
		}

		inv := v1.Group("/inventory")
		{
			inv.GET("", inventoryH.List)
			inv.GET("/:id", inventoryH.Get)
			inv.GET("/:id/audit", inventoryH.ListAuditByItem)
			inv.POST("", writers, inventoryH.Create)
			inv.PUT("/:id", writers, inventoryH.Update)
			inv.POST("/adjust", writers, inventoryH.AdjustQuantity)
			inv.DELETE("/:id", admins, inventoryH.Delete)
		}

		v1.GET("/audit", inventoryH.ListAudit)
		v1.GET("/audit/export", exportH.AuditXLSX)
		v1.GET("/dashboard", inventoryH.Dashboard)

		conf := v1.Group("/configuration", admins)
		{
			conf.GET("/notifications", configH.GetNotification)
			conf.PUT("/notifications", configH.UpdateNotification)
		}
	}

	// Swagger UI, outside production only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
