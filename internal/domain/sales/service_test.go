package sales

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/shop"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	models := []interface{}{
		&shop.Shop{}, &product.Category{}, &product.Product{},
		&inventory.StockRecord{}, &inventory.StockMovement{},
		&Sale{}, &SaleItem{}, &Return{}, &DocumentCounter{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			t.Fatalf("failed to migrate %T: %v", model, err)
		}
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Sales: config.SalesConfig{
			TaxRate:           0.18,
			Currency:          "INR",
			InvoicePrefix:     "INV",
			ReturnPrefix:      "RET",
			LowStockThreshold: 5,
		},
	}
}

type fixture struct {
	db        *gorm.DB
	inventory *inventory.Service
	sales     *Service
	shopID    uint
	products  []product.Product
	stocks    []inventory.StockRecord
}

// newFixture seeds a shop and n products, each with the given opening stock
func newFixture(t *testing.T, openingStock ...int) *fixture {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig()
	invSvc := inventory.NewService(db, cfg)

	s := shop.Shop{Name: "Test Shop", IsActive: true}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("failed to seed shop: %v", err)
	}

	f := &fixture{
		db:        db,
		inventory: invSvc,
		sales:     NewService(db, cfg, invSvc),
		shopID:    s.ID,
	}

	for i, qty := range openingStock {
		p := product.Product{
			SKU:      fmt.Sprintf("SKU-%03d", i+1),
			Name:     fmt.Sprintf("Product %d", i+1),
			Price:    decimal.NewFromInt(100),
			Unit:     "pcs",
			IsActive: true,
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("failed to seed product: %v", err)
		}
		record, err := invSvc.CreateStockRecord(&inventory.CreateStockRecordRequest{
			ProductID: p.ID,
			ShopID:    s.ID,
			Quantity:  qty,
		})
		if err != nil {
			t.Fatalf("failed to seed stock: %v", err)
		}
		f.products = append(f.products, p)
		f.stocks = append(f.stocks, *record)
	}

	return f
}

func (f *fixture) stockQuantity(t *testing.T, idx int) int {
	t.Helper()
	record, err := f.inventory.GetStockRecord(f.stocks[idx].ID)
	if err != nil {
		t.Fatalf("failed to reload stock: %v", err)
	}
	return record.Quantity
}

func (f *fixture) setPrice(t *testing.T, idx int, price decimal.Decimal) {
	t.Helper()
	if err := f.db.Model(&f.products[idx]).Update("price", price).Error; err != nil {
		t.Fatalf("failed to set price: %v", err)
	}
	f.products[idx].Price = price
}

func TestCreateSaleTotals(t *testing.T) {
	f := newFixture(t, 10)
	f.setPrice(t, 0, decimal.NewFromInt(500))

	sale, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCash,
		Items:         []SaleItemRequest{{ProductID: f.products[0].ID, Quantity: 1}},
	}, 1)
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	if !sale.Subtotal.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected subtotal 500, got %s", sale.Subtotal)
	}
	if !sale.TaxAmount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("expected tax 90, got %s", sale.TaxAmount)
	}
	if !sale.TotalAmount.Equal(decimal.NewFromInt(590)) {
		t.Errorf("expected total 590, got %s", sale.TotalAmount)
	}
	if sale.Status != SaleStatusCompleted {
		t.Errorf("expected status completed, got %s", sale.Status)
	}

	if got := f.stockQuantity(t, 0); got != 9 {
		t.Errorf("expected stock 9 after sale, got %d", got)
	}
}

func TestCreateSaleDiscountPolicy(t *testing.T) {
	f := newFixture(t, 10)

	sale, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCard,
		Items: []SaleItemRequest{
			{ProductID: f.products[0].ID, Quantity: 2, Discount: decimal.NewFromInt(20)},
		},
	}, 1)
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	// Gross subtotal, discount in its own column, and netted line total:
	// 2 x 100 = 200 gross, discount 20, tax 36, total 216
	if !sale.Subtotal.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected subtotal 200, got %s", sale.Subtotal)
	}
	if !sale.DiscountAmount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected discount 20, got %s", sale.DiscountAmount)
	}
	if !sale.TaxAmount.Equal(decimal.NewFromInt(36)) {
		t.Errorf("expected tax 36, got %s", sale.TaxAmount)
	}
	if !sale.TotalAmount.Equal(decimal.NewFromInt(216)) {
		t.Errorf("expected total 216, got %s", sale.TotalAmount)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(sale.Items))
	}
	if !sale.Items[0].TotalPrice.Equal(decimal.NewFromInt(180)) {
		t.Errorf("expected item total 180, got %s", sale.Items[0].TotalPrice)
	}
}

func TestCreateSaleSnapshotsCatalog(t *testing.T) {
	f := newFixture(t, 10)

	sale, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodUPI,
		Items:         []SaleItemRequest{{ProductID: f.products[0].ID, Quantity: 1}},
	}, 1)
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	// Later catalog changes must not affect the recorded line
	f.setPrice(t, 0, decimal.NewFromInt(999))

	reloaded, err := f.sales.GetSale(sale.ID)
	if err != nil {
		t.Fatalf("get sale failed: %v", err)
	}
	item := reloaded.Items[0]
	if item.ProductName != "Product 1" || item.ProductSKU != "SKU-001" {
		t.Errorf("expected snapshotted name and sku, got %s/%s", item.ProductName, item.ProductSKU)
	}
	if !item.UnitPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected snapshotted unit price 100, got %s", item.UnitPrice)
	}
}

func TestCreateSaleAtomicity(t *testing.T) {
	f := newFixture(t, 10, 10, 2)

	// Third line exceeds its stock; nothing may be written
	_, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCash,
		Items: []SaleItemRequest{
			{ProductID: f.products[0].ID, Quantity: 5},
			{ProductID: f.products[1].ID, Quantity: 5},
			{ProductID: f.products[2].ID, Quantity: 3},
		},
	}, 1)
	if !apperrors.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}

	for i, want := range []int{10, 10, 2} {
		if got := f.stockQuantity(t, i); got != want {
			t.Errorf("line %d: expected stock %d untouched, got %d", i, want, got)
		}
	}

	var saleCount, itemCount int64
	f.db.Model(&Sale{}).Count(&saleCount)
	f.db.Model(&SaleItem{}).Count(&itemCount)
	if saleCount != 0 || itemCount != 0 {
		t.Errorf("expected no sale rows after failed creation, got %d/%d", saleCount, itemCount)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCash,
		Items:         []SaleItemRequest{},
	}, 1)
	if !apperrors.IsInvalidOperation(err) {
		t.Errorf("expected InvalidOperation for empty items, got %v", err)
	}

	_, err = f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: "barter",
		Items:         []SaleItemRequest{{ProductID: f.products[0].ID, Quantity: 1}},
	}, 1)
	if !apperrors.IsInvalidOperation(err) {
		t.Errorf("expected InvalidOperation for unknown payment method, got %v", err)
	}

	_, err = f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCash,
		Items:         []SaleItemRequest{{ProductID: 9999, Quantity: 1}},
	}, 1)
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected NotFound for unknown product, got %v", err)
	}

	_, err = f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        9999,
		PaymentMethod: PaymentMethodCash,
		Items:         []SaleItemRequest{{ProductID: f.products[0].ID, Quantity: 1}},
	}, 1)
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected NotFound for unknown shop, got %v", err)
	}
}

func TestInvoiceNumberAllocation(t *testing.T) {
	f := newFixture(t, 100)

	day := time.Now().UTC().Format("20060102")
	for i := 1; i <= 3; i++ {
		sale, err := f.sales.CreateSale(&CreateSaleRequest{
			ShopID:        f.shopID,
			PaymentMethod: PaymentMethodCash,
			Items:         []SaleItemRequest{{ProductID: f.products[0].ID, Quantity: 1}},
		}, 1)
		if err != nil {
			t.Fatalf("create sale %d failed: %v", i, err)
		}
		want := fmt.Sprintf("INV-%s-%04d", day, i)
		if sale.InvoiceNumber != want {
			t.Errorf("expected invoice number %s, got %s", want, sale.InvoiceNumber)
		}
	}
}

func TestSaleItemOrder(t *testing.T) {
	f := newFixture(t, 10, 10, 10)

	sale, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCash,
		Items: []SaleItemRequest{
			{ProductID: f.products[2].ID, Quantity: 1},
			{ProductID: f.products[0].ID, Quantity: 1},
			{ProductID: f.products[1].ID, Quantity: 1},
		},
	}, 1)
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	wantSKUs := []string{"SKU-003", "SKU-001", "SKU-002"}
	for i, want := range wantSKUs {
		if sale.Items[i].ProductSKU != want {
			t.Errorf("item %d: expected %s, got %s", i, want, sale.Items[i].ProductSKU)
		}
	}
}

func TestCancelSale(t *testing.T) {
	f := newFixture(t, 10)

	sale, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCash,
		Items:         []SaleItemRequest{{ProductID: f.products[0].ID, Quantity: 4}},
	}, 1)
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	if got := f.stockQuantity(t, 0); got != 6 {
		t.Fatalf("expected stock 6 after sale, got %d", got)
	}

	cancelled, err := f.sales.CancelSale(sale.ID, "customer changed mind", 2)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != SaleStatusCancelled {
		t.Errorf("expected status cancelled, got %s", cancelled.Status)
	}
	if got := f.stockQuantity(t, 0); got != 10 {
		t.Errorf("expected stock restored to 10, got %d", got)
	}

	// Cancelling again is rejected and must not credit twice
	_, err = f.sales.CancelSale(sale.ID, "", 2)
	if !apperrors.IsInvalidOperation(err) {
		t.Fatalf("expected InvalidOperation on double cancel, got %v", err)
	}
	if got := f.stockQuantity(t, 0); got != 10 {
		t.Errorf("double cancel must not change stock, got %d", got)
	}

	_, err = f.sales.CancelSale(9999, "", 2)
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestGetTodaysSales(t *testing.T) {
	f := newFixture(t, 100)

	first, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCash,
		Items:         []SaleItemRequest{{ProductID: f.products[0].ID, Quantity: 1}},
	}, 1)
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	second, err := f.sales.CreateSale(&CreateSaleRequest{
		ShopID:        f.shopID,
		PaymentMethod: PaymentMethodCard,
		Items:         []SaleItemRequest{{ProductID: f.products[0].ID, Quantity: 2}},
	}, 1)
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	// A sale from yesterday must not appear
	yesterday := time.Now().UTC().Add(-26 * time.Hour)
	old := Sale{
		InvoiceNumber: "INV-OLD-0001",
		ShopID:        f.shopID,
		Status:        SaleStatusCompleted,
		PaymentMethod: PaymentMethodCash,
		Subtotal:      decimal.NewFromInt(100),
		TotalAmount:   decimal.NewFromInt(118),
	}
	if err := f.db.Create(&old).Error; err != nil {
		t.Fatalf("failed to seed old sale: %v", err)
	}
	if err := f.db.Model(&old).UpdateColumn("created_at", yesterday).Error; err != nil {
		t.Fatalf("failed to backdate sale: %v", err)
	}

	// Cancelled sales still appear but are excluded from the total
	if _, err := f.sales.CancelSale(second.ID, "", 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	report, err := f.sales.GetTodaysSales(nil)
	if err != nil {
		t.Fatalf("today's sales failed: %v", err)
	}

	if report.Count != 2 {
		t.Errorf("expected 2 sales today, got %d", report.Count)
	}
	if report.CancelledCount != 1 {
		t.Errorf("expected 1 cancelled sale today, got %d", report.CancelledCount)
	}
	if !report.TotalAmount.Equal(first.TotalAmount) {
		t.Errorf("expected total %s, got %s", first.TotalAmount, report.TotalAmount)
	}
	for _, sale := range report.Sales {
		if sale.InvoiceNumber == "INV-OLD-0001" {
			t.Error("yesterday's sale must not be in today's report")
		}
	}
}
