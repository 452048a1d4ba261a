// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"vitrina/internal/cart"
	"vitrina/internal/catalog"
	"vitrina/internal/currency"
	"vitrina/internal/infrastructure/http/v1/handlers"
	"vitrina/internal/infrastructure/http/v1/middleware"
	"vitrina/internal/infrastructure/storage/postgres"
	"vitrina/internal/pricing"
	"vitrina/internal/search"
	"vitrina/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool        *postgres.Pool
	Redis       *redis.Client
	Logger      *logger.Logger
	Registry    *currency.Registry
	Departments *catalog.DepartmentService
	Categories  *catalog.CategoryService
	Products    *catalog.ProductService
	Calculator  *pricing.Calculator
	Ledger      *cart.Ledger
	Search      *search.Aggregator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	catalogHandler := handlers.NewCatalogHandler(cfg.Departments, cfg.Categories, cfg.Products, cfg.Calculator)
	currencyHandler := handlers.NewCurrencyHandler(cfg.Registry)
	cartHandler := handlers.NewCartHandler(cfg.Ledger, cfg.Products)
	searchHandler := handlers.NewSearchHandler(cfg.Search)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/departments", catalogHandler.ListDepartments)
		v1.GET("/departments/:id", catalogHandler.GetDepartment)
		v1.GET("/categories", catalogHandler.ListCategories)
		v1.GET("/categories/:id", catalogHandler.GetCategory)
		v1.GET("/products", catalogHandler.ListProducts)
		v1.GET("/products/:id", catalogHandler.GetProduct)
		v1.GET("/products/:id/price", catalogHandler.GetProductPrice)

		v1.GET("/currencies", currencyHandler.List)
		v1.GET("/currencies/selected", currencyHandler.Selected)
		v1.PUT("/currencies/selected", currencyHandler.Select)
		v1.GET("/discounts", currencyHandler.ListDiscounts)

		v1.GET("/cart", cartHandler.Get)
		v1.POST("/cart/items", cartHandler.AddItem)
		v1.DELETE("/cart/items/:id", cartHandler.RemoveItem)
		v1.DELETE("/cart", cartHandler.Clear)

		v1.GET("/search", searchHandler.Search)
	}

	return router
}
