// internal/domain/models/user.go
package models

import (
	"strings"
	"time"
)

// Roles. Stored uppercase; comparisons go through NormalizeRole.
const (
	RoleSuperAdmin = "SUPERADMIN"
	RoleManager    = "MANAGER"
	RoleEmployee   = "EMPLOYEE"
	RoleConsultant = "CONSULTANT"
	RoleClient     = "CLIENT"
)

// Roles lists every valid role.
var Roles = []string{RoleSuperAdmin, RoleManager, RoleEmployee, RoleConsultant, RoleClient}

// NormalizeRole upper-cases and trims a role string.
func NormalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

// IsValidRole reports whether role (in any case) is one of Roles.
func IsValidRole(role string) bool {
	role = NormalizeRole(role)
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User statuses. Users are never hard-deleted; they are disabled.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User is an account for staff or clients.
type User struct {
	ID                 UserID    `bson:"_id" json:"id"`
	Email              string    `bson:"email" json:"email"` // folded lowercase, unique
	PasswordHash       string    `bson:"password_hash" json:"-"`
	FullName           string    `bson:"full_name" json:"full_name"`
	FullNameCI         string    `bson:"full_name_ci" json:"-"`
	Phone              string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Role               string    `bson:"role" json:"role"`
	Status             string    `bson:"status" json:"status"`
	MustChangePassword bool      `bson:"must_change_password" json:"must_change_password"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the account may sign in.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}
