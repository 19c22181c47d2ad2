// internal/domain/sales/service.go
package sales

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/shop"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles sale and return business logic
type Service struct {
	db        *gorm.DB
	config    *config.Config
	inventory *inventory.Service
}

// NewService creates a new sales service
func NewService(db *gorm.DB, cfg *config.Config, inv *inventory.Service) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		inventory: inv,
	}
}

// SaleItemRequest represents one requested line of a sale
type SaleItemRequest struct {
	ProductID uint            `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Discount  decimal.Decimal `json:"discount"`
}

// CreateSaleRequest represents sale creation data
type CreateSaleRequest struct {
	ShopID        uint              `json:"shop_id" binding:"required"`
	CustomerID    *uint             `json:"customer_id"`
	PaymentMethod PaymentMethod     `json:"payment_method" binding:"required"`
	PaymentRef    string            `json:"payment_reference"`
	Notes         string            `json:"notes"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

// saleLine carries one validated line through sale creation
type saleLine struct {
	product   *product.Product
	stock     *inventory.StockRecord
	quantity  int
	discount  decimal.Decimal
	lineTotal decimal.Decimal
}

// CreateSale builds and commits a sale atomically: the sale row, all of its
// line items and every stock debit land together or not at all. Validation
// runs as a pre-flight pass over every item before anything is written, so a
// failure on the third of five lines leaves the first two untouched.
func (s *Service) CreateSale(req *CreateSaleRequest, staffID uint) (*Sale, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.InvalidOperation("sale must contain at least one item")
	}
	if !ValidPaymentMethod(req.PaymentMethod) {
		return nil, apperrors.InvalidOperation("unknown payment method")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.InvalidOperation("item quantity must be positive")
		}
		if item.Discount.IsNegative() {
			return nil, apperrors.InvalidOperation("item discount must not be negative")
		}
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.First(&shop.Shop{}, req.ShopID).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.NotFound("shop")
	}

	// PRE-FLIGHT VALIDATION PASS
	lines := make([]saleLine, 0, len(req.Items))
	for _, item := range req.Items {
		var prod product.Product
		if err := tx.First(&prod, item.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("product")
			}
			return nil, fmt.Errorf("failed to resolve product: %w", err)
		}

		var stock inventory.StockRecord
		err := tx.Where("product_id = ? AND shop_id = ?", item.ProductID, req.ShopID).First(&stock).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("stock_record")
			}
			return nil, fmt.Errorf("failed to resolve stock record: %w", err)
		}

		if item.Quantity > stock.Quantity {
			tx.Rollback()
			return nil, apperrors.InsufficientStock(item.Quantity, stock.Quantity)
		}

		lineTotal := prod.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Sub(item.Discount)
		if lineTotal.IsNegative() {
			tx.Rollback()
			return nil, apperrors.InvalidOperation(
				fmt.Sprintf("discount exceeds line total for product %s", prod.SKU))
		}

		lines = append(lines, saleLine{
			product:   &prod,
			stock:     &stock,
			quantity:  item.Quantity,
			discount:  item.Discount,
			lineTotal: lineTotal,
		})
	}

	// TOTALS
	// Subtotal is gross (quantity x unit price); line discounts are summed
	// into discount_amount and also netted into each item's total_price, so
	// total_amount = subtotal - discount_amount + tax_amount.
	subtotal := decimal.Zero
	discountAmount := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.product.Price.Mul(decimal.NewFromInt(int64(line.quantity))))
		discountAmount = discountAmount.Add(line.discount)
	}
	taxRate := decimal.NewFromFloat(s.config.Sales.TaxRate)
	taxAmount := subtotal.Mul(taxRate).Round(2)
	totalAmount := subtotal.Sub(discountAmount).Add(taxAmount)

	now := time.Now().UTC()
	invoiceNumber, err := allocateNumber(tx, "invoice", s.config.Sales.InvoicePrefix, now)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	sale := &Sale{
		InvoiceNumber:  invoiceNumber,
		ShopID:         req.ShopID,
		CustomerID:     req.CustomerID,
		StaffID:        &staffID,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		TotalAmount:    totalAmount,
		Status:         SaleStatusCompleted,
		PaymentMethod:  req.PaymentMethod,
		PaymentRef:     req.PaymentRef,
		Notes:          req.Notes,
	}
	for _, line := range lines {
		productID := line.product.ID
		sale.Items = append(sale.Items, SaleItem{
			ProductID:   &productID,
			ProductName: line.product.Name,
			ProductSKU:  line.product.SKU,
			Quantity:    line.quantity,
			UnitPrice:   line.product.Price,
			Discount:    line.discount,
			TotalPrice:  line.lineTotal,
		})
	}

	if err := tx.Create(sale).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	// Debits run in the same transaction. Each one re-checks quantity, so a
	// concurrent sale that drained the stock after our pre-flight read makes
	// the whole transaction roll back rather than oversell.
	for _, line := range lines {
		if _, err := s.inventory.DebitForSale(tx, line.stock.ID, line.quantity, sale.ID, staffID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Transient("sale creation", err)
	}

	return s.GetSale(sale.ID)
}

// CancelSale transitions a completed sale to cancelled and restores stock
// for every line. The status flip is guarded so two racing cancellations
// cannot both credit the inventory.
func (s *Service) CancelSale(saleID uint, reason string, userID uint) (*Sale, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var sale Sale
	if err := tx.Preload("Items").First(&sale, saleID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("sale")
		}
		return nil, fmt.Errorf("failed to retrieve sale: %w", err)
	}

	updates := map[string]interface{}{"status": SaleStatusCancelled}
	if reason != "" {
		notes := sale.Notes
		if notes != "" {
			notes += "\n"
		}
		updates["notes"] = notes + "Cancelled: " + reason
	}

	res := tx.Model(&Sale{}).
		Where("id = ? AND status = ?", saleID, SaleStatusCompleted).
		Updates(updates)
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to cancel sale: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, apperrors.InvalidOperation(
			fmt.Sprintf("only completed sales can be cancelled, sale is %s", sale.Status))
	}

	for _, item := range sale.Items {
		if item.ProductID == nil {
			continue
		}
		var stock inventory.StockRecord
		err := tx.Where("product_id = ? AND shop_id = ?", *item.ProductID, sale.ShopID).First(&stock).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("stock_record")
			}
			return nil, fmt.Errorf("failed to resolve stock record: %w", err)
		}
		if _, err := s.inventory.CreditStock(tx, stock.ID, item.Quantity, inventory.ReasonCancel, "sale", sale.ID, userID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Transient("sale cancellation", err)
	}

	return s.GetSale(saleID)
}

// GetSale retrieves a sale with its items in original line order
func (s *Service) GetSale(id uint) (*Sale, error) {
	var sale Sale
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sale_items.id asc")
	}).First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("sale")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve sale: %w", err)
	}
	return &sale, nil
}

// SaleListRequest represents sale listing filters
type SaleListRequest struct {
	Page   int        `form:"page"`
	Limit  int        `form:"limit"`
	ShopID *uint      `form:"shop_id"`
	Status SaleStatus `form:"status"`
}

// SaleListResponse represents a page of sales
type SaleListResponse struct {
	Sales      []Sale `json:"sales"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}

// GetSales retrieves sales with pagination and filtering, newest first
func (s *Service) GetSales(req *SaleListRequest) (*SaleListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Sale{})
	if req.ShopID != nil {
		query = query.Where("shop_id = ?", *req.ShopID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	var salesList []Sale
	offset := (req.Page - 1) * req.Limit
	err := query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sale_items.id asc")
	}).Order("created_at desc").Offset(offset).Limit(req.Limit).Find(&salesList).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve sales: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &SaleListResponse{
		Sales:      salesList,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}, nil
}

// TodaysSalesReport summarizes the sales created today. Cancelled sales are
// listed and counted separately so the total reconciles with the list.
type TodaysSalesReport struct {
	Date           string          `json:"date"`
	Count          int             `json:"count"`
	CancelledCount int             `json:"cancelled_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Sales          []Sale          `json:"sales"`
}

// GetTodaysSales returns all sales created today, by server date, with an
// aggregate count and total. "Today" is measured against created_at.
func (s *Service) GetTodaysSales(shopID *uint) (*TodaysSalesReport, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := s.db.Where("created_at >= ? AND created_at < ?", start, end)
	if shopID != nil {
		query = query.Where("shop_id = ?", *shopID)
	}

	var salesList []Sale
	err := query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sale_items.id asc")
	}).Order("created_at asc").Find(&salesList).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve today's sales: %w", err)
	}

	total := decimal.Zero
	cancelled := 0
	for _, sale := range salesList {
		if sale.Status == SaleStatusCancelled {
			cancelled++
			continue
		}
		total = total.Add(sale.TotalAmount)
	}

	return &TodaysSalesReport{
		Date:           start.Format("2006-01-02"),
		Count:          len(salesList),
		CancelledCount: cancelled,
		TotalAmount:    total,
		Sales:          salesList,
	}, nil
}
