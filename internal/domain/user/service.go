// internal/domain/user/service.go
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
	"github.com/your-org/pos-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles account business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
	}
}

// RegisterRequest represents account creation data
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	ShopID    *uint  `json:"shop_id"`
}

// UserPatch represents an enumerated partial update of an account.
// Nil fields are left untouched.
type UserPatch struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Phone     *string    `json:"phone"`
	RoleLevel *RoleLevel `json:"role_level"`
	ShopID    *uint      `json:"shop_id"`
	IsActive  *bool      `json:"is_active"`
}

// AuthorizeLevel checks a held capability level against the required one.
// It is the single place role ordering is compared; callers that only carry
// a level (token claims) use it directly.
func AuthorizeLevel(held, required RoleLevel) error {
	if held < required {
		return apperrors.Forbidden(fmt.Sprintf("this action requires %s privileges or higher", required))
	}
	return nil
}

// Authorize checks that a user holds the required capability level.
// It is called explicitly at the start of privileged operations.
func Authorize(u *User, required RoleLevel) error {
	if u == nil || !u.IsActive {
		return apperrors.Forbidden("account is inactive")
	}
	return AuthorizeLevel(u.RoleLevel, required)
}

// Register creates a new account
func (s *Service) Register(req *RegisterRequest) (*User, error) {
	email := strings.ToLower(req.Email)

	var existing User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, apperrors.Conflict("user", fmt.Sprintf("account with email '%s' already exists", email))
	}

	hashed, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	level := RoleStaff
	if req.Role != "" {
		parsed, ok := ParseRoleLevel(req.Role)
		if !ok {
			return nil, apperrors.InvalidOperation(fmt.Sprintf("unknown role '%s'", req.Role))
		}
		level = parsed
	}

	account := &User{
		Email:     email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		RoleLevel: level,
		ShopID:    req.ShopID,
		IsActive:  true,
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate validates credentials and records the login time
func (s *Service) Authenticate(email, password string) (*User, error) {
	var account User
	err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Forbidden("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := s.passwordManager.VerifyPassword(password, account.Password); err != nil {
		return nil, apperrors.Forbidden("invalid credentials")
	}

	now := time.Now().UTC()
	account.LastLoginAt = &now
	if err := s.db.Model(&account).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return &account, nil
}

// GetUser retrieves an account by id
func (s *Service) GetUser(id uint) (*User, error) {
	var account User
	err := s.db.First(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve account: %w", err)
	}
	return &account, nil
}

// UpdateUser applies a patch to an account, field by field
func (s *Service) UpdateUser(id uint, patch *UserPatch) (*User, error) {
	account, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.FirstName != nil {
		updates["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		updates["last_name"] = *patch.LastName
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.RoleLevel != nil {
		if *patch.RoleLevel < RoleStaff || *patch.RoleLevel > RoleSuperAdmin {
			return nil, apperrors.InvalidOperation("invalid role level")
		}
		updates["role_level"] = *patch.RoleLevel
	}
	if patch.ShopID != nil {
		updates["shop_id"] = *patch.ShopID
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}

	if len(updates) == 0 {
		return account, nil
	}

	if err := s.db.Model(account).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	return s.GetUser(id)
}

// CreateCustomer registers a walk-in customer profile
func (s *Service) CreateCustomer(fullName, phone, email string) (*Customer, error) {
	customer := &Customer{
		FullName: fullName,
		Phone:    phone,
		Email:    email,
	}
	if err := s.db.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

// GetCustomer retrieves a customer profile by id
func (s *Service) GetCustomer(id uint) (*Customer, error) {
	var customer Customer
	err := s.db.First(&customer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("customer")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve customer: %w", err)
	}
	return &customer, nil
}
