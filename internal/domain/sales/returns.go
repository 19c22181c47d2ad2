// internal/domain/sales/returns.go
package sales

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// CreateReturnRequest represents return creation data
type CreateReturnRequest struct {
	SaleID    uint   `json:"sale_id" binding:"required"`
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Reason    string `json:"reason"`
}

// CreateReturn registers a refund request against a product sold on a sale.
// The refund amount derives from the recorded line total, not the current
// catalog price, so later price changes never affect old refunds.
func (s *Service) CreateReturn(req *CreateReturnRequest) (*Return, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.InvalidOperation("return quantity must be positive")
	}

	sale, err := s.GetSale(req.SaleID)
	if err != nil {
		return nil, err
	}

	var item *SaleItem
	for i := range sale.Items {
		if sale.Items[i].ProductID != nil && *sale.Items[i].ProductID == req.ProductID {
			item = &sale.Items[i]
			break
		}
	}
	if item == nil {
		return nil, apperrors.InvalidOperation("product not in sale")
	}

	if req.Quantity > item.Quantity {
		return nil, apperrors.InvalidOperation(
			fmt.Sprintf("cannot return %d, only %d were sold", req.Quantity, item.Quantity))
	}

	// Per-unit refund from the discounted line total
	refundAmount := item.TotalPrice.
		Div(decimal.NewFromInt(int64(item.Quantity))).
		Mul(decimal.NewFromInt(int64(req.Quantity))).
		Round(2)

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	returnNumber, err := allocateNumber(tx, "return", s.config.Sales.ReturnPrefix, time.Now().UTC())
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	ret := &Return{
		ReturnNumber: returnNumber,
		SaleID:       req.SaleID,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
		RefundAmount: refundAmount,
		Status:       ReturnStatusPending,
	}
	if err := tx.Create(ret).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create return: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Transient("return creation", err)
	}
	return ret, nil
}

// ProcessReturn approves or rejects a pending return. The status flip is
// guarded on status = pending, so processing the same return twice credits
// stock exactly once and the second call fails with InvalidOperation.
func (s *Service) ProcessReturn(returnID uint, newStatus ReturnStatus, processorID uint) (*Return, error) {
	if newStatus != ReturnStatusApproved && newStatus != ReturnStatusRejected {
		return nil, apperrors.InvalidOperation("return status must be approved or rejected")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res := tx.Model(&Return{}).
		Where("id = ? AND status = ?", returnID, ReturnStatusPending).
		Updates(map[string]interface{}{
			"status":       newStatus,
			"processed_by": processorID,
			"processed_at": now,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to process return: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		defer tx.Rollback()
		var existing Return
		err := tx.First(&existing, returnID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("return")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve return: %w", err)
		}
		return nil, apperrors.InvalidOperation(
			fmt.Sprintf("return already processed, status is %s", existing.Status))
	}

	var ret Return
	if err := tx.First(&ret, returnID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to retrieve return: %w", err)
	}

	if newStatus == ReturnStatusApproved {
		var sale Sale
		if err := tx.First(&sale, ret.SaleID).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to retrieve sale for return: %w", err)
		}

		var stock inventory.StockRecord
		err := tx.Where("product_id = ? AND shop_id = ?", ret.ProductID, sale.ShopID).First(&stock).Error
		if err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("stock_record")
			}
			return nil, fmt.Errorf("failed to resolve stock record: %w", err)
		}

		if _, err := s.inventory.CreditStock(tx, stock.ID, ret.Quantity, inventory.ReasonReturn, "return", ret.ID, processorID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Transient("return processing", err)
	}
	return &ret, nil
}

// GetReturn retrieves a return by id
func (s *Service) GetReturn(id uint) (*Return, error) {
	var ret Return
	err := s.db.First(&ret, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("return")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve return: %w", err)
	}
	return &ret, nil
}

// ReturnListRequest represents return listing filters
type ReturnListRequest struct {
	Page   int          `form:"page"`
	Limit  int          `form:"limit"`
	SaleID *uint        `form:"sale_id"`
	Status ReturnStatus `form:"status"`
}

// ReturnListResponse represents a page of returns
type ReturnListResponse struct {
	Returns    []Return `json:"returns"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"total_pages"`
}

// GetReturns retrieves returns with pagination and filtering, newest first
func (s *Service) GetReturns(req *ReturnListRequest) (*ReturnListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Return{})
	if req.SaleID != nil {
		query = query.Where("sale_id = ?", *req.SaleID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count returns: %w", err)
	}

	var returns []Return
	offset := (req.Page - 1) * req.Limit
	err := query.Order("created_at desc").Offset(offset).Limit(req.Limit).Find(&returns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve returns: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ReturnListResponse{
		Returns:    returns,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}, nil
}
