// internal/domain/sales/entity.go
package sales

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale status constants
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
	SaleStatusRefunded  SaleStatus = "refunded"
)

// Payment method constants
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodOnline PaymentMethod = "online"
)

// Return status constants
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusCompleted ReturnStatus = "completed"
)

// ValidPaymentMethod reports whether m is a recognized payment method
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodOnline:
		return true
	}
	return false
}

// Sale represents one checkout event together with its line items
type Sale struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	InvoiceNumber  string          `json:"invoice_number" gorm:"uniqueIndex;size:32;not null"`
	ShopID         uint            `json:"shop_id" gorm:"index;not null"`
	CustomerID     *uint           `json:"customer_id" gorm:"index"`
	StaffID        *uint           `json:"staff_id" gorm:"index"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:numeric(10,2);not null"`
	TaxAmount      decimal.Decimal `json:"tax_amount" gorm:"type:numeric(10,2);not null"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2);not null"`
	Status         SaleStatus      `json:"status" gorm:"size:20;default:'completed';index"`
	PaymentMethod  PaymentMethod   `json:"payment_method" gorm:"size:20;not null"`
	PaymentRef     string          `json:"payment_reference" gorm:"size:100"`
	Notes          string          `json:"notes" gorm:"type:text"`
	Items          []SaleItem      `json:"items" gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName overrides the table name
func (Sale) TableName() string {
	return "sales"
}

// CanCancel reports whether the sale may transition to cancelled
func (s *Sale) CanCancel() bool {
	return s.Status == SaleStatusCompleted
}

// SaleItem is an immutable line snapshot. Product name, SKU and price are
// captured at sale time so historical invoices survive catalog changes.
// ProductID is nullable so the line also survives product deletion.
type SaleItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	SaleID      uint            `json:"sale_id" gorm:"index;not null"`
	ProductID   *uint           `json:"product_id" gorm:"index"`
	ProductName string          `json:"product_name" gorm:"size:255;not null"`
	ProductSKU  string          `json:"product_sku" gorm:"size:100"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2);not null"`
	Discount    decimal.Decimal `json:"discount" gorm:"type:numeric(10,2);not null"`
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:numeric(10,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName overrides the table name
func (SaleItem) TableName() string {
	return "sale_items"
}

// Return represents one refund request against a product sold on a sale
type Return struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ReturnNumber string          `json:"return_number" gorm:"uniqueIndex;size:32;not null"`
	SaleID       uint            `json:"sale_id" gorm:"index;not null"`
	ProductID    uint            `json:"product_id" gorm:"index;not null"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	Reason       string          `json:"reason" gorm:"type:text"`
	RefundAmount decimal.Decimal `json:"refund_amount" gorm:"type:numeric(10,2);not null"`
	Status       ReturnStatus    `json:"status" gorm:"size:20;default:'pending';index"`
	ProcessedBy  *uint           `json:"processed_by"`
	ProcessedAt  *time.Time      `json:"processed_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName overrides the table name
func (Return) TableName() string {
	return "returns"
}

// IsPending reports whether the return can still be processed
func (r *Return) IsPending() bool {
	return r.Status == ReturnStatusPending
}

// DocumentCounter hands out per-day sequence numbers for invoice and return
// numbers. One row per (scope, day); allocation is an upsert that increments
// last_seq, so uniqueness comes from the allocation itself rather than from
// insert-and-retry.
type DocumentCounter struct {
	Scope   string `gorm:"primaryKey;size:16"`
	Day     string `gorm:"primaryKey;size:8"`
	LastSeq int    `gorm:"not null;default:0"`
}

// TableName overrides the table name
func (DocumentCounter) TableName() string {
	return "document_counters"
}
