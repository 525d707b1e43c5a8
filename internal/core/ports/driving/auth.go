package driving

import (
	"context"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

// AuthService handles user authentication and session lifecycle
type AuthService interface {
	// Authenticate checks a login (or email) and password and opens a session
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken resolves a bearer or cookie token into the caller's identity
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// RefreshToken rotates the session behind a valid refresh token
	RefreshToken(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error)

	// Logout invalidates a session
	Logout(ctx context.Context, token string) error

	// LogoutAll invalidates all sessions for a user
	LogoutAll(ctx context.Context, userID string) error

	// ChangePassword changes the password for an authenticated user
	ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error
}
