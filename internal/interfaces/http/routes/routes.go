// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/user"
	"github.com/your-org/pos-backend/internal/interfaces/http/handlers"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes. Role levels are ordered
// staff < manager < admin < super admin; a level grants everything below it.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	setupAuthRoutes(rg, db, cfg)
	setupShopRoutes(rg, db, cfg)
	setupProductRoutes(rg, db, cfg)
	setupInventoryRoutes(rg, db, cfg)
	setupSalesRoutes(rg, db, cfg)
	setupCustomerRoutes(rg, db, cfg)
}

// setupCustomerRoutes sets up walk-in customer routes
func setupCustomerRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	customerHandler := handlers.NewCustomerHandler(db, cfg)

	customers := rg.Group("/customers")
	customers.Use(middleware.AuthMiddleware(cfg))
	{
		customers.POST("", customerHandler.CreateCustomer)
		customers.GET("/:id", customerHandler.GetCustomer)
	}
}

// setupAuthRoutes sets up authentication related routes
func setupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)

			// Only admins can create accounts
			protected.POST("/register",
				middleware.RequireLevel(user.RoleAdmin), authHandler.Register)
		}
	}
}

// setupShopRoutes sets up shop related routes
func setupShopRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	shopHandler := handlers.NewShopHandler(db, cfg)

	shops := rg.Group("/shops")
	shops.Use(middleware.AuthMiddleware(cfg))
	{
		shops.GET("", shopHandler.GetShops)
		shops.GET("/:id", shopHandler.GetShop)

		admin := shops.Group("")
		admin.Use(middleware.RequireLevel(user.RoleAdmin))
		{
			admin.POST("", shopHandler.CreateShop)
			admin.PUT("/:id", shopHandler.UpdateShop)
		}
	}
}

// setupProductRoutes sets up catalog related routes
func setupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)

	products := rg.Group("/products")
	products.Use(middleware.AuthMiddleware(cfg))
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/categories", productHandler.GetCategories)
		products.GET("/:id", productHandler.GetProduct)

		admin := products.Group("")
		admin.Use(middleware.RequireLevel(user.RoleAdmin))
		{
			admin.POST("", productHandler.CreateProduct)
			admin.PUT("/:id", productHandler.UpdateProduct)
			admin.POST("/categories", productHandler.CreateCategory)
		}
	}
}

// setupInventoryRoutes sets up stock ledger related routes
func setupInventoryRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	inventoryHandler := handlers.NewInventoryHandler(db, cfg)

	inv := rg.Group("/inventory")
	inv.Use(middleware.AuthMiddleware(cfg))
	{
		inv.GET("/low-stock", inventoryHandler.GetLowStock)
		inv.GET("/shop/:shop_id", inventoryHandler.GetShopInventory)
		inv.GET("/:id", inventoryHandler.GetStockRecord)
		inv.GET("/:id/movements", inventoryHandler.GetStockMovements)

		// Reservations are part of day-to-day staff work
		inv.POST("/:id/reserve", inventoryHandler.ReserveStock)
		inv.POST("/:id/release", inventoryHandler.ReleaseStock)

		manager := inv.Group("")
		manager.Use(middleware.RequireLevel(user.RoleManager))
		{
			manager.POST("", inventoryHandler.CreateStockRecord)
			manager.PUT("/:id", inventoryHandler.UpdateStockRecord)
			manager.POST("/:id/adjust", inventoryHandler.AdjustStock)
		}
	}
}

// setupSalesRoutes sets up sale and return related routes
func setupSalesRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	salesHandler := handlers.NewSalesHandler(db, cfg)

	salesGroup := rg.Group("/sales")
	salesGroup.Use(middleware.AuthMiddleware(cfg))
	{
		salesGroup.POST("", salesHandler.CreateSale)
		salesGroup.GET("", salesHandler.GetSales)
		salesGroup.GET("/today", salesHandler.GetTodaysSales)
		salesGroup.GET("/:id", salesHandler.GetSale)
		salesGroup.GET("/:id/invoice", salesHandler.GetInvoicePDF)

		// Cancellation restores stock, so it needs a manager
		salesGroup.POST("/:id/cancel",
			middleware.RequireLevel(user.RoleManager), salesHandler.CancelSale)
	}

	returns := rg.Group("/returns")
	returns.Use(middleware.AuthMiddleware(cfg))
	{
		returns.POST("", salesHandler.CreateReturn)
		returns.GET("", salesHandler.GetReturns)
		returns.GET("/:id", salesHandler.GetReturn)

		// Approving or rejecting a return needs a manager
		returns.POST("/:id/process",
			middleware.RequireLevel(user.RoleManager), salesHandler.ProcessReturn)
	}
}
