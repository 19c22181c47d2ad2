// internal/interfaces/http/handlers/sales.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/domain/inventory"
	"github.com/your-org/pos-backend/internal/domain/sales"
	"github.com/your-org/pos-backend/internal/domain/shop"
	"github.com/your-org/pos-backend/internal/interfaces/http/middleware"
	"github.com/your-org/pos-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// SalesHandler handles sale and return endpoints
type SalesHandler struct {
	salesService *sales.Service
	shopService  *shop.Service
	pdfService   *pdf.Service
	config       *config.Config
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(db *gorm.DB, cfg *config.Config) *SalesHandler {
	inventoryService := inventory.NewService(db, cfg)
	return &SalesHandler{
		salesService: sales.NewService(db, cfg, inventoryService),
		shopService:  shop.NewService(db, cfg),
		pdfService:   pdf.NewService(cfg),
		config:       cfg,
	}
}

// CreateSale handles POST /sales
func (h *SalesHandler) CreateSale(c *gin.Context) {
	var req sales.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	staffID, _ := middleware.GetUserIDFromContext(c)

	sale, err := h.salesService.CreateSale(&req, staffID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale created successfully",
		"data":    sale,
	})
}

// GetSale handles GET /sales/:id
func (h *SalesHandler) GetSale(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.salesService.GetSale(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale retrieved successfully",
		"data":    sale,
	})
}

// GetSales handles GET /sales
func (h *SalesHandler) GetSales(c *gin.Context) {
	var req sales.SaleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.salesService.GetSales(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sales retrieved successfully",
		"data":    response,
	})
}

// GetTodaysSales handles GET /sales/today
func (h *SalesHandler) GetTodaysSales(c *gin.Context) {
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

	report, err := h.salesService.GetTodaysSales(shopID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Today's sales retrieved successfully",
		"data":    report,
	})
}

// CancelSale handles POST /sales/:id/cancel
func (h *SalesHandler) CancelSale(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional for cancellation
	_ = c.ShouldBindJSON(&req)

	userID, _ := middleware.GetUserIDFromContext(c)

	sale, err := h.salesService.CancelSale(id, req.Reason, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale cancelled successfully",
		"data":    sale,
	})
}

// GetInvoicePDF handles GET /sales/:id/invoice
func (h *SalesHandler) GetInvoicePDF(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.salesService.GetSale(id)
	if err != nil {
		respondError(c, err)
		return
	}

	saleShop, err := h.shopService.GetShop(sale.ShopID)
	if err != nil {
		respondError(c, err)
		return
	}

	buf, err := h.pdfService.GenerateInvoice(sale, saleShop)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice PDF",
		})
		return
	}

	filename := fmt.Sprintf("%s.pdf", sale.InvoiceNumber)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// CreateReturn handles POST /returns
func (h *SalesHandler) CreateReturn(c *gin.Context) {
	var req sales.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ret, err := h.salesService.CreateReturn(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Return created successfully",
		"data":    ret,
	})
}

// GetReturns handles GET /returns
func (h *SalesHandler) GetReturns(c *gin.Context) {
	var req sales.ReturnListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.salesService.GetReturns(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Returns retrieved successfully",
		"data":    response,
	})
}

// GetReturn handles GET /returns/:id
func (h *SalesHandler) GetReturn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ret, err := h.salesService.GetReturn(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Return retrieved successfully",
		"data":    ret,
	})
}

// ProcessReturn handles POST /returns/:id/process
func (h *SalesHandler) ProcessReturn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status sales.ReturnStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	processorID, _ := middleware.GetUserIDFromContext(c)

	ret, err := h.salesService.ProcessReturn(id, req.Status, processorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Return processed successfully",
		"data":    ret,
	})
}
