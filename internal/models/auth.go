package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the authenticated principal through requests.
type JWTClaims struct {
	UserID string   `json:"uid"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
