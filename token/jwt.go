// Package token implements the access-token manager and the opaque token
// generator. Access tokens are signed JWTs; refresh and recovery tokens
// are opaque random strings handled by Generator.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/firelater/authcore/model"
)

// Claims is the JWT claim set for access tokens.
type Claims struct {
	jwt.RegisteredClaims
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
	accessTTL time.Duration
}

const (
	// DefaultAccessTTL keeps access tokens short-lived; session longevity
	// comes from refresh-token rotation, not from the JWT.
	DefaultAccessTTL = 15 * time.Minute

	typeAccess = "access"
)

// NewJWT creates a token manager with the provided secret key. A zero ttl
// falls back to DefaultAccessTTL.
func NewJWT(secretKey string, accessTTL time.Duration) *JWT {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &JWT{secretKey: secretKey, accessTTL: accessTTL}
}

var _ model.TokenManager = (*JWT)(nil)

// GenerateAccessToken creates a short-lived signed token carrying the
// tenant, user, email, and role claims.
func (j *JWT) GenerateAccessToken(claims model.AccessClaims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		TenantID:  claims.TenantID,
		UserID:    claims.UserID,
		Email:     claims.Email,
		Roles:     claims.Roles,
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken validates the signature and expiry and extracts the
// claim set.
func (j *JWT) ParseAccessToken(tokenString string) (model.AccessClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return model.AccessClaims{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return model.AccessClaims{}, fmt.Errorf("access token is invalid")
	}
	if claims.TokenType != typeAccess {
		return model.AccessClaims{}, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}

	return model.AccessClaims{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Email:    claims.Email,
		Roles:    claims.Roles,
	}, nil
}
