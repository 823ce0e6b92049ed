// Package auth issues and verifies the HS256 access tokens used by the API.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the caller's id and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

// Principal is the authenticated caller extracted from a token.
type Principal struct {
	UserID string
	Role   string
}

func GenerateToken(userID, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
		Role:   role,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates tokenString and returns its principal. Expired tokens
// yield common.ErrTokenExpired; anything else invalid yields
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, common.ErrTokenExpired
		}
		return Principal{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return Principal{}, common.ErrInvalidToken
	}

	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}
