package model

import (
	"fmt"
	"time"
)

// User represents an authenticated back-office account.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	FullName     string     `json:"full_name" db:"full_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Roles.
const (
	RoleAdmin             = "Admin"
	RoleAssetManager      = "Asset Manager"
	RoleOperationsManager = "Operations Manager"
	RoleEditor            = "Editor"
	RoleViewer            = "Viewer"
)

// Roles lists every known role.
var Roles = []string{RoleAdmin, RoleAssetManager, RoleOperationsManager, RoleEditor, RoleViewer}

// WriteRoles may create and cancel records.
var WriteRoles = []string{RoleAdmin, RoleAssetManager, RoleOperationsManager, RoleEditor}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// HasRole reports whether role is one of allowed. Unknown and empty roles
// never match.
func HasRole(role string, allowed ...string) bool {
	if role == "" {
		return false
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// CanWrite reports whether role may create and cancel records.
func CanWrite(role string) bool {
	return HasRole(role, WriteRoles...)
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return HasRole(role, Roles...)
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
