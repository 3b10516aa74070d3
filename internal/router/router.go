package router

import (
	"time"

	"stockledger/internal/config"
	"stockledger/internal/handler"
	"stockledger/internal/infra"
	"stockledger/internal/middleware"
	"stockledger/internal/observability"
	"stockledger/internal/repository"
	"stockledger/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services groups the business layer shared by the HTTP API and the workers.
type Services struct {
	Auth     service.AuthService
	Products service.ProductService
	Sales    service.SaleService
	Reports  service.ReportService
	LowStock service.LowStockService
}

// NewServices wires the business layer. cache and queue may be nil.
// Dependency graph: Service ← Store ← DB/Redis
func NewServices(cfg *config.Config, store repository.Store, cache *infra.ReportCache, queue service.ReportMailQueue) *Services {
	return &Services{
		Auth:     service.NewAuthService(store, cfg),
		Products: service.NewProductService(store),
		Sales:    service.NewSaleService(store, cfg.TxTimeout()),
		Reports:  service.NewReportService(store, cache, queue, cfg.Location()),
		LowStock: service.NewLowStockService(store, cfg.LowStockThreshold),
	}
}

// New returns a configured Gin engine. db, rdb and mailer only feed /health;
// they and metrics may be nil.
func New(cfg *config.Config, svcs *Services, db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer, metrics *observability.Metrics) *gin.Engine {
	production := cfg.Env == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.SecureHeaders(production))
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svcs.Auth)
	productsH := handler.NewProductsHandler(svcs.Products, svcs.LowStock)
	salesH := handler.NewSalesHandler(svcs.Sales)
	reportsH := handler.NewReportsHandler(svcs.Reports, cfg.Location())

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailer))
	r.GET("/metrics", metrics.Handler())

	auth := r.Group("/v1/auth", middleware.AuthRateLimiter(20, time.Minute))
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
	}

	// Protected routes: every handler reads the owner from the token.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		products := v1.Group("/products")
		{
			products.GET("", productsH.List)
			products.POST("", productsH.Create)
			products.GET("/low-stock", productsH.LowStock)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
			products.PATCH("/:id/stock", productsH.AdjustStock)
			products.GET("/:id/movements", productsH.Movements)
			products.GET("/:id/price-changes", productsH.PriceChanges)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", salesH.Record)
			sales.GET("", salesH.List)
			sales.GET("/:id", salesH.Get)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/daily", reportsH.Daily)
			reports.GET("/daily/:date", reportsH.OnDate)
			reports.GET("/daily/:date/pdf", reportsH.PDF)
			reports.POST("/daily/:date/email", reportsH.Email)
			reports.GET("/yearly/:year", reportsH.Yearly)
		}
	}

	// Swagger UI, only enabled outside production
	if !production {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
