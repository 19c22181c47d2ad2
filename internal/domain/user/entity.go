// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// RoleLevel is the integer privilege level of an account. Higher levels
// inherit every capability of the levels below them.
type RoleLevel int

const (
	RoleStaff      RoleLevel = 1
	RoleManager    RoleLevel = 2
	RoleAdmin      RoleLevel = 3
	RoleSuperAdmin RoleLevel = 4
)

// String returns the canonical role name for the level.
func (r RoleLevel) String() string {
	switch r {
	case RoleStaff:
		return "staff"
	case RoleManager:
		return "manager"
	case RoleAdmin:
		return "admin"
	case RoleSuperAdmin:
		return "superadmin"
	default:
		return "unknown"
	}
}

// ParseRoleLevel maps a role name to its level, case-insensitively.
func ParseRoleLevel(name string) (RoleLevel, bool) {
	switch strings.ToLower(name) {
	case "staff":
		return RoleStaff, true
	case "manager":
		return RoleManager, true
	case "admin":
		return RoleAdmin, true
	case "superadmin":
		return RoleSuperAdmin, true
	default:
		return 0, false
	}
}

// User represents a back-office account (staff, manager, admin)
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string         `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	FirstName   string         `gorm:"size:100" json:"first_name"`
	LastName    string         `gorm:"size:100" json:"last_name"`
	Phone       string         `gorm:"size:20" json:"phone"`
	RoleLevel   RoleLevel      `gorm:"not null;default:1" json:"role_level"`
	ShopID      *uint          `gorm:"index" json:"shop_id"` // Home shop, nil for chain-wide accounts
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Customer represents a walk-in customer profile attached to sales
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FullName  string         `gorm:"not null;size:200" json:"full_name"`
	Phone     string         `gorm:"size:20;index" json:"phone"`
	Email     string         `gorm:"size:255" json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (User) TableName() string     { return "users" }
func (Customer) TableName() string { return "customers" }

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = strings.ToLower(u.Email)
	return nil
}

// GetFullName returns the user's full name
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
