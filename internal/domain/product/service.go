// internal/domain/product/service.go
package product

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	SKU         string          `json:"sku" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	CategoryID  *uint           `json:"category_id"`
	Barcode     string          `json:"barcode"`
	Unit        string          `json:"unit"`
}

// ProductPatch represents an enumerated partial update of a product.
// Nil fields are left untouched.
type ProductPatch struct {
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	CategoryID  *uint            `json:"category_id"`
	Barcode     *string          `json:"barcode"`
	Unit        *string          `json:"unit"`
	IsActive    *bool            `json:"is_active"`
}

// ProductListRequest represents catalog list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
	OnlyActive bool   `form:"only_active,default=true"`
}

// CreateProduct creates a new catalog item
func (s *Service) CreateProduct(req *CreateProductRequest) (*Product, error) {
	// Check if SKU already exists
	var existing Product
	if err := s.db.Where("sku = ?", req.SKU).First(&existing).Error; err == nil {
		return nil, apperrors.Conflict("product", fmt.Sprintf("product with SKU '%s' already exists", req.SKU))
	}

	if req.Price.IsNegative() {
		return nil, apperrors.InvalidOperation("price must not be negative")
	}

	if req.CategoryID != nil {
		var category Category
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			return nil, apperrors.NotFound("category")
		}
	}

	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	p := &Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		CategoryID:  req.CategoryID,
		Barcode:     req.Barcode,
		Unit:        unit,
		IsActive:    true,
	}

	if err := s.db.Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return p, nil
}

// GetProduct retrieves a product by id
func (s *Service) GetProduct(id uint) (*Product, error) {
	var p Product
	err := s.db.Preload("Category").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &p, nil
}

// GetProducts retrieves catalog items with filters and pagination
func (s *Service) GetProducts(req *ProductListRequest) ([]Product, int64, error) {
	query := s.db.Model(&Product{})

	if req.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if req.CategoryID != 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ? OR barcode LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var products []Product
	err := query.Preload("Category").
		Order("name asc").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return products, total, nil
}

// UpdateProduct applies a patch to a product, field by field
func (s *Service) UpdateProduct(id uint, patch *ProductPatch) (*Product, error) {
	p, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.SKU != nil {
		var existing Product
		if err := s.db.Where("sku = ? AND id <> ?", *patch.SKU, id).First(&existing).Error; err == nil {
			return nil, apperrors.Conflict("product", fmt.Sprintf("product with SKU '%s' already exists", *patch.SKU))
		}
		updates["sku"] = *patch.SKU
	}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, apperrors.InvalidOperation("price must not be negative")
		}
		updates["price"] = *patch.Price
	}
	if patch.CostPrice != nil {
		updates["cost_price"] = *patch.CostPrice
	}
	if patch.CategoryID != nil {
		var category Category
		if err := s.db.First(&category, *patch.CategoryID).Error; err != nil {
			return nil, apperrors.NotFound("category")
		}
		updates["category_id"] = *patch.CategoryID
	}
	if patch.Barcode != nil {
		updates["barcode"] = *patch.Barcode
	}
	if patch.Unit != nil {
		updates["unit"] = *patch.Unit
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}

	if len(updates) == 0 {
		return p, nil
	}

	if err := s.db.Model(p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.GetProduct(id)
}

// CreateCategory creates a new product category
func (s *Service) CreateCategory(name, description string) (*Category, error) {
	var existing Category
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, apperrors.Conflict("category", fmt.Sprintf("category '%s' already exists", name))
	}

	category := &Category{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// GetCategories retrieves all active categories
func (s *Service) GetCategories() ([]Category, error) {
	var categories []Category
	if err := s.db.Where("is_active = ?", true).Order("name asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}
