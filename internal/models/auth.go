package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims identifies the caller of an authenticated request.
type TokenClaims struct {
	Type      string `json:"type"`
	AccountID int64  `json:"account_id"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
