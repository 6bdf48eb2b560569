package jwtutil

import (
	"time"

	"repairshop-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	signingKey      []byte
	expirationHours int
)

// UserClaims represents the JWT claims for an authenticated request.
// Tenant routes require TenantID; super-admin tokens carry IsSuperAdmin instead.
type UserClaims struct {
	UserID       uint   `json:"user_id"`
	UserName     string `json:"user_name,omitempty"`
	TenantID     *uint  `json:"tenant_id,omitempty"`
	TenantName   string `json:"tenant_name,omitempty"`
	Role         string `json:"role,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin,omitempty"`
	jwt.RegisteredClaims
}

// Initialize configures the JWT utility from application config
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	expirationHours = cfg.ExpirationHours
}

// GenerateToken creates a signed token for the given claims
func GenerateToken(claims *UserClaims) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
