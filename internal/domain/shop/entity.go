// internal/domain/shop/entity.go
package shop

import (
	"time"

	"gorm.io/gorm"
)

// Shop represents a retail location
type Shop struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	City      string         `gorm:"size:50" json:"city"`
	Phone     string         `gorm:"size:20" json:"phone"`
	Email     string         `gorm:"size:100" json:"email"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for Shop
func (Shop) TableName() string { return "shops" }
