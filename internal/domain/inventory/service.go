// internal/domain/inventory/service.go
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/product"
	"github.com/your-org/pos-backend/internal/domain/shop"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles stock ledger business logic. Every mutation is a single
// guarded UPDATE whose WHERE clause re-checks the invariant, so two racing
// writers on the same record can never both pass a check the other
// invalidated. RowsAffected == 0 means the guard failed and the row is
// re-read to classify the error.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateStockRecordRequest represents stock record creation data
type CreateStockRecordRequest struct {
	ProductID        uint `json:"product_id" binding:"required"`
	ShopID           uint `json:"shop_id" binding:"required"`
	Quantity         int  `json:"quantity" binding:"min=0"`
	ReservedQuantity int  `json:"reserved_quantity" binding:"min=0"`
	MinStockLevel    int  `json:"min_stock_level"`
	MaxStockLevel    int  `json:"max_stock_level"`
}

// StockRecordPatch represents an enumerated partial update. Quantities are
// deliberately absent: on-hand and reserved amounts change only through
// ledger operations.
type StockRecordPatch struct {
	MinStockLevel *int `json:"min_stock_level"`
	MaxStockLevel *int `json:"max_stock_level"`
}

// CreateStockRecord creates the inventory row for a (product, shop) pair
func (s *Service) CreateStockRecord(req *CreateStockRecordRequest) (*StockRecord, error) {
	if req.ReservedQuantity > req.Quantity {
		return nil, apperrors.InvalidOperation("reserved quantity cannot exceed quantity")
	}

	// One row per (product, shop) pair
	var existing StockRecord
	err := s.db.Where("product_id = ? AND shop_id = ?", req.ProductID, req.ShopID).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("stock_record", "stock record already exists for this product in this shop")
	}

	// Both parents must exist
	if err := s.db.First(&product.Product{}, req.ProductID).Error; err != nil {
		return nil, apperrors.NotFound("product")
	}
	if err := s.db.First(&shop.Shop{}, req.ShopID).Error; err != nil {
		return nil, apperrors.NotFound("shop")
	}

	minLevel := req.MinStockLevel
	if minLevel == 0 {
		minLevel = 10
	}
	maxLevel := req.MaxStockLevel
	if maxLevel == 0 {
		maxLevel = 1000
	}

	record := &StockRecord{
		ProductID:        req.ProductID,
		ShopID:           req.ShopID,
		Quantity:         req.Quantity,
		ReservedQuantity: req.ReservedQuantity,
		MinStockLevel:    minLevel,
		MaxStockLevel:    maxLevel,
	}

	if err := s.insertRecord(record); err != nil {
		return nil, err
	}

	return record, nil
}

// insertRecord writes the row and classifies a unique-index violation as a
// conflict. Two racing creates for the same pair can both pass the existence
// check; the loser surfaces here instead of as an internal error.
func (s *Service) insertRecord(record *StockRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("stock_record", "stock record already exists for this product in this shop")
		}
		return fmt.Errorf("failed to create stock record: %w", err)
	}
	return nil
}

// GetStockRecord retrieves a stock record by id
func (s *Service) GetStockRecord(id uint) (*StockRecord, error) {
	return getRecord(s.db, id)
}

// GetByProductAndShop retrieves the stock record for a (product, shop) pair
func (s *Service) GetByProductAndShop(productID, shopID uint) (*StockRecord, error) {
	var record StockRecord
	err := s.db.Where("product_id = ? AND shop_id = ?", productID, shopID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("stock_record")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stock record: %w", err)
	}
	return &record, nil
}

// ListByShop retrieves all stock records for a shop
func (s *Service) ListByShop(shopID uint) ([]StockRecord, error) {
	var records []StockRecord
	err := s.db.Where("shop_id = ?", shopID).Order("product_id asc").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve shop inventory: %w", err)
	}
	return records, nil
}

// UpdateStockRecord applies a patch to the restocking thresholds
func (s *Service) UpdateStockRecord(id uint, patch *StockRecordPatch) (*StockRecord, error) {
	record, err := s.GetStockRecord(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.MinStockLevel != nil {
		if *patch.MinStockLevel < 0 {
			return nil, apperrors.InvalidOperation("min stock level must not be negative")
		}
		updates["min_stock_level"] = *patch.MinStockLevel
	}
	if patch.MaxStockLevel != nil {
		if *patch.MaxStockLevel < 0 {
			return nil, apperrors.InvalidOperation("max stock level must not be negative")
		}
		updates["max_stock_level"] = *patch.MaxStockLevel
	}

	if len(updates) == 0 {
		return record, nil
	}

	if err := s.db.Model(record).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update stock record: %w", err)
	}

	return s.GetStockRecord(id)
}

// STOCK LEDGER OPERATIONS

// AdjustStock changes the on-hand quantity by delta. Negative deltas that
// would take the quantity below zero are rejected and leave the record
// unchanged. Positive deltas stamp last_restocked_at.
func (s *Service) AdjustStock(id uint, delta int, reason string, userID uint) (*StockRecord, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	updates := map[string]any{
		"quantity": gorm.Expr("quantity + ?", delta),
	}
	if delta > 0 {
		updates["last_restocked_at"] = time.Now().UTC()
	}

	res := tx.Model(&StockRecord{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Updates(updates)
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to adjust stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		defer tx.Rollback()
		record, err := getRecord(tx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidOperation(
			fmt.Sprintf("adjustment of %d would make quantity negative (current %d)", delta, record.Quantity))
	}

	record, err := getRecord(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	movementType := MovementTypeInbound
	if delta < 0 {
		movementType = MovementTypeOutbound
	}
	if err := recordMovement(tx, record, movementType, ReasonAdjustment, delta, "", 0, reason, userID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Transient("stock adjustment", err)
	}
	return record, nil
}

// ReserveStock places a soft hold against future sale
func (s *Service) ReserveStock(id uint, amount int, userID uint) (*StockRecord, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidOperation("reservation amount must be positive")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&StockRecord{}).
		Where("id = ? AND quantity - reserved_quantity >= ?", id, amount).
		Update("reserved_quantity", gorm.Expr("reserved_quantity + ?", amount))
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to reserve stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		defer tx.Rollback()
		record, err := getRecord(tx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InsufficientStock(amount, record.Available())
	}

	record, err := getRecord(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := recordMovement(tx, record, MovementTypeReservation, ReasonReservation, amount, "", 0, "", userID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Transient("stock reservation", err)
	}
	return record, nil
}

// ReleaseStock releases a previously placed hold
func (s *Service) ReleaseStock(id uint, amount int, userID uint) (*StockRecord, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidOperation("release amount must be positive")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&StockRecord{}).
		Where("id = ? AND reserved_quantity >= ?", id, amount).
		Update("reserved_quantity", gorm.Expr("reserved_quantity - ?", amount))
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to release stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		defer tx.Rollback()
		record, err := getRecord(tx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidOperation(
			fmt.Sprintf("cannot release %d, only %d reserved", amount, record.ReservedQuantity))
	}

	record, err := getRecord(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := recordMovement(tx, record, MovementTypeRelease, ReasonReleaseHold, amount, "", 0, "", userID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Transient("stock release", err)
	}
	return record, nil
}

// DebitForSale decrements on-hand stock as part of a sale commit. It runs
// inside the caller's transaction so a multi-line sale either debits every
// record or none. The check is against raw quantity, not available:
// reservations are an independent mechanism and a sale does not require one.
func (s *Service) DebitForSale(tx *gorm.DB, recordID uint, amount int, saleID, userID uint) (*StockRecord, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidOperation("debit amount must be positive")
	}

	res := tx.Model(&StockRecord{}).
		Where("id = ? AND quantity >= ?", recordID, amount).
		Update("quantity", gorm.Expr("quantity - ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to debit stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		record, err := getRecord(tx, recordID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InsufficientStock(amount, record.Quantity)
	}

	record, err := getRecord(tx, recordID)
	if err != nil {
		return nil, err
	}

	if err := recordMovement(tx, record, MovementTypeOutbound, ReasonSale, -amount, "sale", saleID, "", userID); err != nil {
		return nil, err
	}

	return record, nil
}

// CreditStock increments on-hand stock for a return or a cancelled sale.
// max_stock_level is advisory, so no upper bound is enforced.
func (s *Service) CreditStock(tx *gorm.DB, recordID uint, amount int, reason MovementReason, referenceType string, referenceID, userID uint) (*StockRecord, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidOperation("credit amount must be positive")
	}

	res := tx.Model(&StockRecord{}).
		Where("id = ?", recordID).
		Update("quantity", gorm.Expr("quantity + ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to credit stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("stock_record")
	}

	record, err := getRecord(tx, recordID)
	if err != nil {
		return nil, err
	}

	if err := recordMovement(tx, record, MovementTypeInbound, reason, amount, referenceType, referenceID, "", userID); err != nil {
		return nil, err
	}

	return record, nil
}

// GetLowStock returns records at or below the given available threshold, or
// at or below their own minimum level, most urgent first
func (s *Service) GetLowStock(threshold int, shopID *uint) ([]StockRecord, error) {
	if threshold <= 0 {
		threshold = s.config.Sales.LowStockThreshold
	}

	query := s.db.Model(&StockRecord{}).
		Where("quantity - reserved_quantity <= ? OR quantity <= min_stock_level", threshold)
	if shopID != nil {
		query = query.Where("shop_id = ?", *shopID)
	}

	var records []StockRecord
	if err := query.Order("quantity - reserved_quantity asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve low stock records: %w", err)
	}
	return records, nil
}

// GetMovements returns the audit trail for a stock record, newest first
func (s *Service) GetMovements(recordID uint, limit int) ([]StockMovement, error) {
	if _, err := s.GetStockRecord(recordID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var movements []StockMovement
	err := s.db.Where("stock_record_id = ?", recordID).
		Order("created_at desc").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stock movements: %w", err)
	}
	return movements, nil
}

// getRecord loads a stock record inside the given transaction. Reads that
// gate a write always go through this within the same tx as the write.
func getRecord(tx *gorm.DB, id uint) (*StockRecord, error) {
	var record StockRecord
	err := tx.First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("stock_record")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stock record: %w", err)
	}
	return &record, nil
}

// recordMovement appends an audit row for a completed ledger mutation
func recordMovement(tx *gorm.DB, record *StockRecord, movementType MovementType, reason MovementReason, delta int, referenceType string, referenceID uint, notes string, userID uint) error {
	previous := record.Quantity
	current := record.Quantity
	switch movementType {
	case MovementTypeInbound, MovementTypeOutbound:
		previous = record.Quantity - delta
	}

	movement := &StockMovement{
		StockRecordID:    record.ID,
		MovementType:     movementType,
		Reason:           reason,
		Quantity:         delta,
		PreviousQuantity: previous,
		NewQuantity:      current,
		ReferenceType:    referenceType,
		ReferenceID:      referenceID,
		Notes:            notes,
		CreatedBy:        userID,
	}
	if err := tx.Create(movement).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}
