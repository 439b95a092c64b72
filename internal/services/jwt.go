package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fleet-backoffice/internal/models"
)

const (
	// TokenTypeAccess and TokenTypeRefresh discriminate the two token kinds;
	// verification rejects a token presented as the wrong kind.
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	tokenIssuer = "fleet-backoffice"
)

// Claims carries the session identity on both token kinds.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	TenantID  string    `json:"tenant_id"`
	Roles     []string  `json:"roles"`
	TokenType string    `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTService signs and validates access and refresh tokens with a
// server-held HMAC secret.
type JWTService struct {
	secret        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTService creates a token issuer/verifier.
func NewJWTService(secret string, accessExpiryMinutes, refreshExpiryHours int) *JWTService {
	return &JWTService{
		secret:        secret,
		accessExpiry:  time.Duration(accessExpiryMinutes) * time.Minute,
		refreshExpiry: time.Duration(refreshExpiryHours) * time.Hour,
	}
}

// GenerateTokens issues an access/refresh pair bound to (user, tenant, roles).
func (j *JWTService) GenerateTokens(userID uuid.UUID, email, tenantID string, roles []string) (string, string, error) {
	accessToken, err := j.generate(userID, email, tenantID, roles, TokenTypeAccess, j.accessExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := j.generate(userID, email, tenantID, roles, TokenTypeRefresh, j.refreshExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// GenerateAccessToken issues a new access token only, used by the refresh
// endpoint.
func (j *JWTService) GenerateAccessToken(userID uuid.UUID, email, tenantID string, roles []string) (string, error) {
	return j.generate(userID, email, tenantID, roles, TokenTypeAccess, j.accessExpiry)
}

func (j *JWTService) generate(userID uuid.UUID, email, tenantID string, roles []string, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		TenantID:  tenantID,
		Roles:     roles,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secret))
}

// ValidateAccessToken validates and parses an access token.
func (j *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates and parses a refresh token.
func (j *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeRefresh)
}

// validate performs signature, expiry, required-claims and kind checks.
// Every failure collapses to ErrInvalidToken; a malformed token is never
// partially trusted.
func (j *JWTService) validate(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	// Super-admin tokens are tenant-less by design; every other token must
	// carry the tenant claim used for row scoping.
	if claims.TenantID == "" && !hasRole(claims.Roles, models.RoleSuperAdmin) {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AccessExpiry returns the access token lifetime.
func (j *JWTService) AccessExpiry() time.Duration {
	return j.accessExpiry
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
