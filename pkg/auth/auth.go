// Package auth verifies request identity. Token issuance and password
// handling live in an external auth service; this package only checks that a
// presented token is valid and extracts who is calling.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	apperrors "eventms/pkg/errors"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Identity struct {
	UserID string
	Role   string
}

// Authenticator is the single verification capability every handler depends
// on, instead of each route parsing tokens on its own.
type Authenticator interface {
	Verify(token string) (Identity, error)
}

type jwtAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) Authenticator {
	return &jwtAuthenticator{secret: []byte(secret)}
}

func (a *jwtAuthenticator) Verify(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, apperrors.Unauthorized("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, apperrors.Unauthorized("Invalid token claims")
	}

	userID, _ := claims["id"].(string)
	if userID == "" {
		return Identity{}, apperrors.Unauthorized("Token has no subject")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleUser
	}

	return Identity{UserID: userID, Role: role}, nil
}
