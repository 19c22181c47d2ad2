// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/sales"
	"github.com/your-org/pos-backend/internal/domain/shop"
	"github.com/your-org/pos-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Define all models that need migration in dependency order
	models := []interface{}{
		// Account domain - Base tables
		&user.User{},
		&user.Customer{},

		// Shop domain
		&shop.Shop{},

		// Catalog domain
		&product.Category{},
		&product.Product{},

		// Inventory domain
		&inventory.StockRecord{},
		&inventory.StockMovement{},

		// Sales domain - Dependent tables
		&sales.Sale{},
		&sales.SaleItem{},
		&sales.Return{},
		&sales.DocumentCounter{},
	}

	// Run auto-migration for each model
	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_role_level ON users(role_level)",
		"CREATE INDEX IF NOT EXISTS idx_users_shop ON users(shop_id)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_sku ON products(sku)",
		"CREATE INDEX IF NOT EXISTS idx_products_barcode ON products(barcode)",

		// Stock indexes
		"CREATE INDEX IF NOT EXISTS idx_stock_records_shop ON stock_records(shop_id)",
		"CREATE INDEX IF NOT EXISTS idx_stock_records_available ON stock_records((quantity - reserved_quantity))",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_record_created ON stock_movements(stock_record_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_reference ON stock_movements(reference_type, reference_id)",

		// Sale indexes
		"CREATE INDEX IF NOT EXISTS idx_sales_shop_status ON sales(shop_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_sales_staff ON sales(staff_id)",
		"CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id)",
		"CREATE INDEX IF NOT EXISTS idx_sale_items_product ON sale_items(product_id)",

		// Return indexes
		"CREATE INDEX IF NOT EXISTS idx_returns_sale ON returns(sale_id)",
		"CREATE INDEX IF NOT EXISTS idx_returns_status_created ON returns(status, created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedShop(); err != nil {
		return fmt.Errorf("failed to seed shop: %w", err)
	}

	if err := m.seedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedStaffUser(); err != nil {
		return fmt.Errorf("failed to seed staff user: %w", err)
	}

	if err := m.seedCatalog(); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedShop creates the default shop
func (m *Migration) seedShop() error {
	var count int64
	m.db.Model(&shop.Shop{}).Count(&count)
	if count > 0 {
		return nil
	}

	log.Println("🏪 Seeding default shop...")
	return m.db.Create(&shop.Shop{
		Name:     "Main Store",
		Address:  "1 Market Street",
		City:     "Chennai",
		Phone:    "+91-9000000000",
		Email:    "main@store.local",
		IsActive: true,
	}).Error
}

// seedAdminUser creates the default super admin account
func (m *Migration) seedAdminUser() error {
	var count int64
	m.db.Model(&user.User{}).Where("role_level = ?", user.RoleSuperAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	log.Println("👤 Seeding super admin user...")

	hashed, err := bcrypt.GenerateFromPassword([]byte("Admin@123456"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return m.db.Create(&user.User{
		Email:     "admin@store.local",
		Password:  string(hashed),
		FirstName: "Super",
		LastName:  "Admin",
		RoleLevel: user.RoleSuperAdmin,
		IsActive:  true,
	}).Error
}

// seedStaffUser creates a staff account for development
func (m *Migration) seedStaffUser() error {
	var count int64
	m.db.Model(&user.User{}).Where("email = ?", "staff@store.local").Count(&count)
	if count > 0 {
		return nil
	}

	log.Println("👤 Seeding staff user...")

	hashed, err := bcrypt.GenerateFromPassword([]byte("Staff@123456"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var mainShop shop.Shop
	if err := m.db.First(&mainShop).Error; err != nil {
		return err
	}

	return m.db.Create(&user.User{
		Email:     "staff@store.local",
		Password:  string(hashed),
		FirstName: "Test",
		LastName:  "Staff",
		RoleLevel: user.RoleStaff,
		ShopID:    &mainShop.ID,
		IsActive:  true,
	}).Error
}

// seedCatalog creates sample categories, products and opening stock
func (m *Migration) seedCatalog() error {
	var count int64
	m.db.Model(&product.Product{}).Count(&count)
	if count > 0 {
		return nil
	}

	log.Println("🏷️ Seeding catalog...")

	categories := []product.Category{
		{Name: "Beverages", Description: "Soft drinks, juices and water", IsActive: true},
		{Name: "Snacks", Description: "Packaged snacks and confectionery", IsActive: true},
		{Name: "Household", Description: "Cleaning and household supplies", IsActive: true},
	}
	for i := range categories {
		if err := m.db.Create(&categories[i]).Error; err != nil {
			return err
		}
	}

	products := []product.Product{
		{
			SKU:        "BEV-COLA-500",
			Name:       "Cola 500ml",
			Price:      decimal.NewFromFloat(45.00),
			CostPrice:  decimal.NewFromFloat(32.00),
			CategoryID: &categories[0].ID,
			Barcode:    "8901234500017",
			Unit:       "pcs",
			IsActive:   true,
		},
		{
			SKU:        "SNK-CHIPS-90",
			Name:       "Potato Chips 90g",
			Price:      decimal.NewFromFloat(30.00),
			CostPrice:  decimal.NewFromFloat(21.00),
			CategoryID: &categories[1].ID,
			Barcode:    "8901234500024",
			Unit:       "pcs",
			IsActive:   true,
		},
		{
			SKU:        "HSH-SOAP-4PK",
			Name:       "Bath Soap 4 Pack",
			Price:      decimal.NewFromFloat(120.00),
			CostPrice:  decimal.NewFromFloat(88.00),
			CategoryID: &categories[2].ID,
			Barcode:    "8901234500031",
			Unit:       "pack",
			IsActive:   true,
		},
	}

	var mainShop shop.Shop
	if err := m.db.First(&mainShop).Error; err != nil {
		return err
	}

	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return err
		}
		stock := inventory.StockRecord{
			ProductID:     products[i].ID,
			ShopID:        mainShop.ID,
			Quantity:      100,
			MinStockLevel: 10,
			MaxStockLevel: 500,
		}
		if err := m.db.Create(&stock).Error; err != nil {
			return err
		}
	}

	return nil
}

// GetTableInfo logs row counts for the main tables
func (m *Migration) GetTableInfo() {
	tables := []string{
		"users", "shops", "categories", "products",
		"stock_records", "stock_movements",
		"sales", "sale_items", "returns",
	}

	log.Println("📊 Database table info:")
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			log.Printf("  %s: error (%v)", table, err)
			continue
		}
		log.Printf("  %s: %d rows", table, count)
	}
}
