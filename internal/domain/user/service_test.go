package user

import (
	"testing"

	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&User{}, &Customer{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func TestRoleHierarchy(t *testing.T) {
	staff := &User{RoleLevel: RoleStaff, IsActive: true}
	manager := &User{RoleLevel: RoleManager, IsActive: true}
	admin := &User{RoleLevel: RoleAdmin, IsActive: true}

	if err := Authorize(staff, RoleStaff); err != nil {
		t.Errorf("staff should pass staff check: %v", err)
	}
	if err := Authorize(staff, RoleManager); err == nil {
		t.Error("staff must not pass manager check")
	}
	if err := Authorize(manager, RoleStaff); err != nil {
		t.Errorf("manager should pass staff check: %v", err)
	}
	if err := Authorize(admin, RoleManager); err != nil {
		t.Errorf("admin should pass manager check: %v", err)
	}

	inactive := &User{RoleLevel: RoleSuperAdmin, IsActive: false}
	if err := Authorize(inactive, RoleStaff); err == nil {
		t.Error("inactive account must be rejected regardless of level")
	}
	if err := Authorize(nil, RoleStaff); err == nil {
		t.Error("nil user must be rejected")
	}
}

func TestAuthorizeLevel(t *testing.T) {
	if err := AuthorizeLevel(RoleStaff, RoleStaff); err != nil {
		t.Errorf("equal level should pass: %v", err)
	}
	if err := AuthorizeLevel(RoleSuperAdmin, RoleAdmin); err != nil {
		t.Errorf("higher level should pass: %v", err)
	}

	err := AuthorizeLevel(RoleManager, RoleAdmin)
	if err == nil {
		t.Fatal("lower level must be rejected")
	}
	appErr, ok := apperrors.AsError(err)
	if !ok || appErr.Kind != apperrors.KindForbidden {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestParseRoleLevel(t *testing.T) {
	cases := map[string]RoleLevel{
		"staff":      RoleStaff,
		"manager":    RoleManager,
		"admin":      RoleAdmin,
		"superadmin": RoleSuperAdmin,
	}
	for name, want := range cases {
		got, ok := ParseRoleLevel(name)
		if !ok || got != want {
			t.Errorf("ParseRoleLevel(%q) = %v, %v; want %v", name, got, ok, want)
		}
	}
	if _, ok := ParseRoleLevel("owner"); ok {
		t.Error("unknown role must not parse")
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())

	created, err := svc.Register(&RegisterRequest{
		Email:     "Jamie@Store.Local",
		Password:  "secret123",
		FirstName: "Jamie",
		Role:      "manager",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if created.Email != "jamie@store.local" {
		t.Errorf("expected lowercased email, got %s", created.Email)
	}
	if created.RoleLevel != RoleManager {
		t.Errorf("expected manager level, got %v", created.RoleLevel)
	}
	if created.Password == "secret123" {
		t.Error("password must be stored hashed")
	}

	// Duplicate email
	_, err = svc.Register(&RegisterRequest{
		Email:     "jamie@store.local",
		Password:  "another123",
		FirstName: "Dup",
	})
	if !apperrors.IsConflict(err) {
		t.Errorf("expected Conflict for duplicate email, got %v", err)
	}

	// Unknown role
	_, err = svc.Register(&RegisterRequest{
		Email:     "other@store.local",
		Password:  "secret123",
		FirstName: "Other",
		Role:      "owner",
	})
	if !apperrors.IsInvalidOperation(err) {
		t.Errorf("expected InvalidOperation for unknown role, got %v", err)
	}

	authenticated, err := svc.Authenticate("JAMIE@store.local", "secret123")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if authenticated.LastLoginAt == nil {
		t.Error("expected last_login_at to be recorded")
	}

	if _, err := svc.Authenticate("jamie@store.local", "wrong"); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Errorf("expected Forbidden for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate("nobody@store.local", "secret123"); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Errorf("expected Forbidden for unknown email, got %v", err)
	}
}

func TestUpdateUserPatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())

	created, err := svc.Register(&RegisterRequest{
		Email:     "patch@store.local",
		Password:  "secret123",
		FirstName: "Before",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	newName := "After"
	level := RoleAdmin
	updated, err := svc.UpdateUser(created.ID, &UserPatch{
		FirstName: &newName,
		RoleLevel: &level,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.FirstName != "After" {
		t.Errorf("expected first name updated, got %s", updated.FirstName)
	}
	if updated.RoleLevel != RoleAdmin {
		t.Errorf("expected admin level, got %v", updated.RoleLevel)
	}
	// Untouched fields survive
	if updated.Email != "patch@store.local" {
		t.Errorf("email must be unchanged, got %s", updated.Email)
	}

	if _, err := svc.UpdateUser(9999, &UserPatch{FirstName: &newName}); !apperrors.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}
