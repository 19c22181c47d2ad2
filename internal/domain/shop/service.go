// internal/domain/shop/service.go
package shop

import (
	"errors"
	"fmt"

	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles shop business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new shop service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateShopRequest represents shop creation data
type CreateShopRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// ShopPatch represents an enumerated partial update of a shop.
// Nil fields are left untouched.
type ShopPatch struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"is_active"`
}

// CreateShop creates a new shop
func (s *Service) CreateShop(req *CreateShopRequest) (*Shop, error) {
	// Check if name already exists
	var existing Shop
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, apperrors.Conflict("shop", fmt.Sprintf("shop with name '%s' already exists", req.Name))
	}

	shop := &Shop{
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: true,
	}

	if err := s.db.Create(shop).Error; err != nil {
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}

	return shop, nil
}

// GetShop retrieves a shop by id
func (s *Service) GetShop(id uint) (*Shop, error) {
	var shop Shop
	err := s.db.First(&shop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("shop")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve shop: %w", err)
	}
	return &shop, nil
}

// GetShops retrieves all active shops
func (s *Service) GetShops() ([]Shop, error) {
	var shops []Shop
	if err := s.db.Where("is_active = ?", true).Order("name asc").Find(&shops).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve shops: %w", err)
	}
	return shops, nil
}

// UpdateShop applies a patch to a shop, field by field
func (s *Service) UpdateShop(id uint, patch *ShopPatch) (*Shop, error) {
	shop, err := s.GetShop(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		var existing Shop
		if err := s.db.Where("name = ? AND id <> ?", *patch.Name, id).First(&existing).Error; err == nil {
			return nil, apperrors.Conflict("shop", fmt.Sprintf("shop with name '%s' already exists", *patch.Name))
		}
		updates["name"] = *patch.Name
	}
	if patch.Address != nil {
		updates["address"] = *patch.Address
	}
	if patch.City != nil {
		updates["city"] = *patch.City
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}

	if len(updates) == 0 {
		return shop, nil
	}

	if err := s.db.Model(shop).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update shop: %w", err)
	}

	return s.GetShop(id)
}
