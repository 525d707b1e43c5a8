package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pantrylab/pantry-core/internal/core/domain"
)

func testClaims(expiresIn time.Duration) *domain.TokenClaims {
	now := time.Now()
	return &domain.TokenClaims{
		UserID:       "user-123",
		Login:        "cook",
		Email:        "cook@example.com",
		Role:         domain.RoleMember,
		Capabilities: domain.Capabilities{CanAdd: true, CanDelete: true},
		SessionID:    "session-456",
		IssuedAt:     now.Unix(),
		ExpiresAt:    now.Add(expiresIn).Unix(),
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	adapter := NewAdapterWithCost("secret", 4) // Low cost for faster tests

	hash, err := adapter.HashPassword("mypassword")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if hash == "mypassword" || !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("expected a bcrypt hash, got %q", hash)
	}

	other, _ := adapter.HashPassword("mypassword")
	if other == hash {
		t.Error("expected different hashes for same password (due to salt)")
	}

	if !adapter.VerifyPassword("mypassword", hash) {
		t.Error("expected correct password to verify")
	}
	if adapter.VerifyPassword("wrongpassword", hash) {
		t.Error("expected wrong password to fail")
	}
	if adapter.VerifyPassword("mypassword", "not-a-hash") {
		t.Error("expected invalid hash to fail")
	}
}

func TestNewAdapter_DefaultCost(t *testing.T) {
	adapter := NewAdapter("test-secret")
	if string(adapter.jwtSecret) != "test-secret" {
		t.Error("expected jwt secret to be set")
	}
	if adapter.bcryptCost != 10 {
		t.Errorf("expected default bcrypt cost, got %d", adapter.bcryptCost)
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	adapter := NewAdapter("test-secret")
	claims := testClaims(time.Hour)

	token, err := adapter.GenerateToken(claims)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if len(strings.Split(token, ".")) != 3 {
		t.Fatalf("expected a three-part JWT, got %q", token)
	}

	parsed, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if *parsed != *claims {
		t.Errorf("claims did not survive the round trip:\nwant %+v\ngot  %+v", claims, parsed)
	}
}

func TestParseToken_Rejections(t *testing.T) {
	adapter := NewAdapter("test-secret")

	expired, _ := adapter.GenerateToken(testClaims(-time.Hour))
	foreign, _ := NewAdapter("other-secret").GenerateToken(testClaims(time.Hour))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{UserID: "user-123"})
	none, _ := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)

	otherIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongIssuer, _ := otherIssuer.SignedString([]byte("test-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", foreign},
		{"alg none", none},
		{"wrong issuer", wrongIssuer},
		{"malformed", "not.a.token"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := adapter.ParseToken(tt.token); err == nil {
				t.Error("expected token to be rejected")
			}
		})
	}
}

func TestRoundTrip_AllRoles(t *testing.T) {
	adapter := NewAdapter("test-secret")

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleMember} {
		t.Run(string(role), func(t *testing.T) {
			claims := testClaims(time.Hour)
			claims.Role = role

			token, err := adapter.GenerateToken(claims)
			if err != nil {
				t.Fatalf("failed to generate token: %v", err)
			}
			parsed, err := adapter.ParseToken(token)
			if err != nil {
				t.Fatalf("failed to parse token: %v", err)
			}
			if parsed.Role != role {
				t.Errorf("expected role %s, got %s", role, parsed.Role)
			}
		})
	}
}

func BenchmarkVerifyPassword(b *testing.B) {
	adapter := NewAdapterWithCost("secret", 4)
	hash, _ := adapter.HashPassword("password123")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		adapter.VerifyPassword("password123", hash)
	}
}
