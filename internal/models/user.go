package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the role a user holds within one tenant.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMINISTRATOR"
	RoleEditor UserRole = "EDITOR"
	RoleViewer UserRole = "VIEWER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// User is a platform identity. ExternalID is the identity provider's
// subject; invited users hold a pending placeholder until they sign up.
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ExternalID  string     `json:"externalId" db:"external_id"`
	Email       string     `json:"email" db:"email"`
	Name        string     `json:"name" db:"name"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

const PendingExternalIDPrefix = "pending-"

func (u *User) Pending() bool {
	return len(u.ExternalID) >= len(PendingExternalIDPrefix) &&
		u.ExternalID[:len(PendingExternalIDPrefix)] == PendingExternalIDPrefix
}

// Membership links a user to a tenant with a role.
type Membership struct {
	TenantID  uuid.UUID  `json:"tenantId" db:"tenant_id"`
	UserID    uuid.UUID  `json:"userId" db:"user_id"`
	Role      UserRole   `json:"role" db:"role"`
	InvitedBy *uuid.UUID `json:"invitedBy,omitempty" db:"invited_by"`
	JoinedAt  time.Time  `json:"joinedAt" db:"joined_at"`
}

// Member is a membership joined with its user, as listed for a tenant.
type Member struct {
	UserID      uuid.UUID  `json:"userId"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        UserRole   `json:"role"`
	InvitedBy   *uuid.UUID `json:"invitedBy,omitempty"`
	JoinedAt    time.Time  `json:"joinedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}
