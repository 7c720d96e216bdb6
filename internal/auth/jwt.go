// Package auth provides token issuing/verification and password
// handling for the account layer.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// ErrInvalidToken is returned when a token fails parsing, signature
// verification or expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload carried by every issued access token
type Claims struct {
	UserID    int64       `json:"user_id"`
	CompanyID int64       `json:"company_id"`
	Role      entity.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HMAC-signed access tokens
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService creates a TokenService with the given signing secret
// and token lifetime.
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), expiry: expiry}
}

// Issue signs an access token for the user
func (s *TokenService) Issue(user *entity.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token, returning its claims
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
