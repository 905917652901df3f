package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "social-chat/errors"
)

// CustomClaims defines the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Verifier turns a bearer credential into a trusted user identity.
// Token issuance belongs to the account service; this side only validates.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(secret)}
}

// Verify validates the signature and expiration of a bearer token and returns
// the user identity it carries. The "Bearer " prefix is tolerated so the same
// path serves headers and handshake auth fields.
func (v Verifier) Verify(token string) (string, error) {
	raw := strings.TrimSpace(token)
	if strings.HasPrefix(raw, "Bearer") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer"))
	}
	if raw == "" {
		return "", apperrors.ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*CustomClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", apperrors.ErrInvalidToken
	}
	return claims.UserID, nil
}

// GenerateToken creates a signed JWT for a specific user, HS256 like the
// account service. Used by dev tooling and tests.
func GenerateToken(secret, userID string, ttl time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "social-chat",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
