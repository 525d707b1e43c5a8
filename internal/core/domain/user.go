package domain

import "time"

// Role defines user permission level
type Role string

const (
	RoleAdmin  Role = "admin"  // Manage users, review pending changes
	RoleMember Role = "member" // Search, comment, rate; contribute per capabilities
)

// Capability is a contribution right granted to a member.
type Capability string

const (
	CapabilityAdd    Capability = "add"
	CapabilityEdit   Capability = "edit"
	CapabilityDelete Capability = "delete"
	// CapabilityReview confirms pending changes. Only admins hold it.
	CapabilityReview Capability = "review"
)

// Capabilities is the set of contribution rights stored on a user.
type Capabilities struct {
	CanAdd    bool `json:"canAdd"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// Has reports whether the set grants want.
func (c Capabilities) Has(want Capability) bool {
	switch want {
	case CapabilityAdd:
		return c.CanAdd
	case CapabilityEdit:
		return c.CanEdit
	case CapabilityDelete:
		return c.CanDelete
	}
	return false
}

// Actor is the resolved identity the core needs for authorization.
type Actor interface {
	IsAdmin() bool
	Grants() Capabilities
}

// HasCapability reports whether actor may perform an action requiring want.
// Admins hold every capability.
func HasCapability(actor Actor, want Capability) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.Grants().Has(want)
}

// User represents an account
type User struct {
	ID           string       `json:"id"`
	Login        string       `json:"login"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never serialize
	Role         Role         `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
}

// UserSummary provides a safe view of user data (no password hash)
type UserSummary struct {
	ID           string       `json:"id"`
	Login        string       `json:"login"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
	Active       bool         `json:"active"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
}

// ToSummary converts a User to UserSummary
func (u *User) ToSummary() *UserSummary {
	return &UserSummary{
		ID:           u.ID,
		Login:        u.Login,
		Email:        u.Email,
		Role:         u.Role,
		Capabilities: u.Capabilities,
		Active:       u.Active,
		LastLoginAt:  u.LastLoginAt,
	}
}

// IsAdmin checks if the user has admin privileges
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Grants returns the user's capability set.
func (u *User) Grants() Capabilities {
	return u.Capabilities
}

// CanManageUsers checks if the user can create/delete other users
func (u *User) CanManageUsers() bool {
	return u.Role == RoleAdmin
}
