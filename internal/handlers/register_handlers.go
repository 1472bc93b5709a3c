package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"

	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/handlers/docs"
	"github.com/SscSPs/school_finance_core/internal/middleware"
	"github.com/SscSPs/school_finance_core/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	setupAPIV1Routes(r, cfg, services, rateLimiter)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))
	if rateLimiter != nil {
		v1.Use(middleware.RateLimit(rateLimiter))
	}

	RegisterCatalogRoutes(v1, services.Catalog)
	RegisterScholarshipRoutes(v1, services.Scholarship)
	RegisterStudentRoutes(v1, services.Invoice, services.Scholarship)
	RegisterInvoiceRoutes(v1, services.Invoice, services.Ledger)
	RegisterPaymentRoutes(v1, services.Ledger)
	RegisterWaiverRoutes(v1, services.Waiver)
	RegisterAnalyticsRoutes(v1, services.Analytics, cfg.DefaulterThresholdDays)
	RegisterJobRoutes(v1, services)
}

func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
