package domain

import "time"

// Session represents an authenticated user session
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuthContext contains authenticated user info for request context
type AuthContext struct {
	UserID       string       `json:"user_id"`
	Login        string       `json:"login"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
	SessionID    string       `json:"session_id"`
}

// IsAdmin checks if the authenticated user is an admin
func (a *AuthContext) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Grants returns the capabilities resolved for the session.
func (a *AuthContext) Grants() Capabilities {
	if a == nil {
		return Capabilities{}
	}
	return a.Capabilities
}

// LoginRequest represents a login attempt. Login accepts a login name or an email.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful authentication
type LoginResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *UserSummary `json:"user"`
}

// RefreshRequest represents a token refresh attempt
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	UserID       string       `json:"user_id"`
	Login        string       `json:"login"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
	SessionID    string       `json:"session_id"`
	IssuedAt     int64        `json:"iat"`
	ExpiresAt    int64        `json:"exp"`
}

// ChangePasswordRequest represents a password change by authenticated user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
