// Package auth issues and verifies the HS256 actor tokens the host
// application hands to browser sessions. The token only identifies the
// actor; whether that actor may attach uploads to a given owner is decided
// by the owners package.
package auth

import (
	"time"

	"github.com/A1iAshoor/s3-relay/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the acting principal.
type Claims struct {
	jwt.RegisteredClaims
	ActorID string
}

// GenerateToken signs a token identifying actorID, valid for validityDuration.
func GenerateToken(actorID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		ActorID: actorID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetActorIDFromToken verifies tokenString and returns the actor it names.
func GetActorIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.ActorID, nil
}
