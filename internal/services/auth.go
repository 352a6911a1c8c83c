// Package services contains the core business logic for Set Planner.
package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents a permission level embedded in a credential.
type Role string

// RoleDJ is the single privileged role. A DJ can toggle the voting system
// and remove suggested songs.
const RoleDJ Role = "dj"

// Claims represents the JWT payload for the DJ credential.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles JWT token generation and validation for the DJ credential.
type AuthService struct {
	secret        []byte
	tokenDuration time.Duration
}

// NewAuthService creates an AuthService with the given signing secret and token duration.
func NewAuthService(secret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{
		secret:        []byte(secret),
		tokenDuration: tokenDuration,
	}
}

// GenerateToken creates a signed JWT asserting the DJ role.
func (s *AuthService) GenerateToken() (string, error) {
	claims := Claims{
		Role: RoleDJ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "set-planner",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies the JWT signature and expiry, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// VerifyDJ reports whether the token is a valid, unexpired credential carrying
// the DJ role. Every answer a caller needs is yes or no; parse and signature
// failures collapse to false.
func (s *AuthService) VerifyDJ(tokenString string) bool {
	claims, err := s.ValidateToken(tokenString)
	return err == nil && claims.Role == RoleDJ
}
