// internal/interfaces/http/handlers/shop.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/shop"
	"gorm.io/gorm"
)

// ShopHandler handles shop endpoints
type ShopHandler struct {
	shopService *shop.Service
	config      *config.Config
}

// NewShopHandler creates a new shop handler
func NewShopHandler(db *gorm.DB, cfg *config.Config) *ShopHandler {
	return &ShopHandler{
		shopService: shop.NewService(db, cfg),
		config:      cfg,
	}
}

// GetShops handles GET /shops
func (h *ShopHandler) GetShops(c *gin.Context) {
	shops, err := h.shopService.GetShops()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Shops retrieved successfully",
		"data":    shops,
	})
}

// GetShop handles GET /shops/:id
func (h *ShopHandler) GetShop(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.shopService.GetShop(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Shop retrieved successfully",
		"data":    result,
	})
}

// CreateShop handles POST /shops
func (h *ShopHandler) CreateShop(c *gin.Context) {
	var req shop.CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	created, err := h.shopService.CreateShop(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Shop created successfully",
		"data":    created,
	})
}

// UpdateShop handles PUT /shops/:id
func (h *ShopHandler) UpdateShop(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch shop.ShopPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	updated, err := h.shopService.UpdateShop(id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Shop updated successfully",
		"data":    updated,
	})
}
