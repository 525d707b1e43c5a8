package driven

import "github.com/pantrylab/pantry-core/internal/core/domain"

// AuthAdapter handles the cryptographic side of authentication (bcrypt, JWT).
// Session persistence lives in SessionStore.
type AuthAdapter interface {
	// HashPassword returns a salted hash of password
	HashPassword(password string) (string, error)

	// VerifyPassword reports whether password matches hash
	VerifyPassword(password, hash string) bool

	// GenerateToken signs claims into a token string
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken verifies a token and returns its claims
	ParseToken(token string) (*domain.TokenClaims, error)
}
