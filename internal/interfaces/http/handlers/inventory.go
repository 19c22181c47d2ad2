// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// InventoryHandler handles stock ledger endpoints
type InventoryHandler struct {
	inventoryService *inventory.Service
	config           *config.Config
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(db *gorm.DB, cfg *config.Config) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventory.NewService(db, cfg),
		config:           cfg,
	}
}

// AdjustStockRequest represents a manual stock adjustment
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

// MoveStockRequest represents a reserve or release amount
type MoveStockRequest struct {
	Amount int `json:"amount" binding:"required,min=1"`
}

// CreateStockRecord handles POST /inventory
func (h *InventoryHandler) CreateStockRecord(c *gin.Context) {
	var req inventory.CreateStockRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	record, err := h.inventoryService.CreateStockRecord(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Stock record created successfully",
		"data":    record,
	})
}

// GetStockRecord handles GET /inventory/:id
func (h *InventoryHandler) GetStockRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := h.inventoryService.GetStockRecord(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock record retrieved successfully",
		"data":    record,
	})
}

// GetShopInventory handles GET /inventory/shop/:shop_id
func (h *InventoryHandler) GetShopInventory(c *gin.Context) {
	shopID, ok := parseIDParam(c, "shop_id")
	if !ok {
		return
	}

	records, err := h.inventoryService.ListByShop(shopID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Shop inventory retrieved successfully",
		"data":    records,
	})
}

// UpdateStockRecord handles PUT /inventory/:id
func (h *InventoryHandler) UpdateStockRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch inventory.StockRecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	record, err := h.inventoryService.UpdateStockRecord(id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock record updated successfully",
		"data":    record,
	})
}

// AdjustStock handles POST /inventory/:id/adjust
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	record, err := h.inventoryService.AdjustStock(id, req.Delta, req.Reason, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock adjusted successfully",
		"data":    record,
	})
}

// ReserveStock handles POST /inventory/:id/reserve
func (h *InventoryHandler) ReserveStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MoveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	record, err := h.inventoryService.ReserveStock(id, req.Amount, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock reserved successfully",
		"data":    record,
	})
}

// ReleaseStock handles POST /inventory/:id/release
func (h *InventoryHandler) ReleaseStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MoveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)

	record, err := h.inventoryService.ReleaseStock(id, req.Amount, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock released successfully",
		"data":    record,
	})
}

// GetLowStock handles GET /inventory/low-stock
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	threshold, _ := strconv.Atoi(c.DefaultQuery("threshold", "0"))

	var shopID *uint
	if raw := c.Query("shop_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid shop_id parameter",
			})
			return
		}
		id := uint(parsed)
		shopID = &id
	}

	records, err := h.inventoryService.GetLowStock(threshold, shopID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Low stock records retrieved successfully",
		"data":    records,
	})
}

// GetStockMovements handles GET /inventory/:id/movements
func (h *InventoryHandler) GetStockMovements(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	movements, err := h.inventoryService.GetMovements(id, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock movements retrieved successfully",
		"data":    movements,
	})
}
