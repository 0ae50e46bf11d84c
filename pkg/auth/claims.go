package auth

import (
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     int64
	ExternalID string
	Role       enums.UserRole
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID     int64          `json:"user_id"`
	ExternalID string         `json:"external_id"`
	Role       enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
