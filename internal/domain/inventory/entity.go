// internal/domain/inventory/entity.go
package inventory

import (
	"time"

	"gorm.io/gorm"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	MovementTypeInbound     MovementType = "inbound"     // Restock, return credit, adjustment increase
	MovementTypeOutbound    MovementType = "outbound"    // Sale debit, adjustment decrease
	MovementTypeReservation MovementType = "reservation" // Soft hold against a pending order
	MovementTypeRelease     MovementType = "release"     // Cancelled hold
)

// MovementReason represents the business reason for a stock movement
type MovementReason string

const (
	ReasonSale        MovementReason = "sale"
	ReasonCancel      MovementReason = "cancel"
	ReasonReturn      MovementReason = "return"
	ReasonAdjustment  MovementReason = "adjustment"
	ReasonReservation MovementReason = "reservation"
	ReasonReleaseHold MovementReason = "release_hold"
)

// StockRecord tracks on-hand and reserved quantities for a product in a shop.
// Invariant: 0 <= reserved_quantity <= quantity, enforced by the guarded
// updates in the service, never by callers mutating fields directly.
type StockRecord struct {
	ID               uint  `gorm:"primaryKey" json:"id"`
	ProductID        uint  `gorm:"not null;uniqueIndex:idx_stock_product_shop" json:"product_id"`
	ShopID           uint  `gorm:"not null;uniqueIndex:idx_stock_product_shop" json:"shop_id"`
	Quantity         int   `gorm:"not null;default:0" json:"quantity"`
	ReservedQuantity int   `gorm:"not null;default:0" json:"reserved_quantity"`
	MinStockLevel    int   `gorm:"default:10" json:"min_stock_level"`
	MaxStockLevel    int   `gorm:"default:1000" json:"max_stock_level"`

	// Derived, never persisted
	AvailableQuantity int `gorm:"-" json:"available_quantity"`

	LastRestockedAt *time.Time     `json:"last_restocked_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// StockMovement is the append-only audit trail of ledger mutations
type StockMovement struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	StockRecordID    uint           `gorm:"not null;index" json:"stock_record_id"`
	MovementType     MovementType   `gorm:"not null;size:20" json:"movement_type"`
	Reason           MovementReason `gorm:"not null;size:30" json:"reason"`
	Quantity         int            `gorm:"not null" json:"quantity"`
	PreviousQuantity int            `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int            `gorm:"not null" json:"new_quantity"`
	ReferenceType    string         `gorm:"size:30" json:"reference_type"` // "sale", "return", ...
	ReferenceID      uint           `json:"reference_id"`
	Notes            string         `gorm:"type:text" json:"notes"`
	CreatedBy        uint           `gorm:"index" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
}

// TableName overrides
func (StockRecord) TableName() string   { return "stock_records" }
func (StockMovement) TableName() string { return "stock_movements" }

// AfterFind hook to populate the derived available quantity
func (r *StockRecord) AfterFind(tx *gorm.DB) error {
	r.AvailableQuantity = r.Quantity - r.ReservedQuantity
	return nil
}

// AfterCreate hook to populate the derived available quantity
func (r *StockRecord) AfterCreate(tx *gorm.DB) error {
	r.AvailableQuantity = r.Quantity - r.ReservedQuantity
	return nil
}

// Available returns the quantity not held by reservations
func (r *StockRecord) Available() int {
	return r.Quantity - r.ReservedQuantity
}

// NeedsRestock checks if the record fell to or below its minimum level
func (r *StockRecord) NeedsRestock() bool {
	return r.Quantity <= r.MinStockLevel
}
