package auth

import (
	"net/http"
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/kernel"
)

// ============================================================================
// Token Types
// ============================================================================

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	ID              string          `json:"jti"`
	UserID          kernel.UserID   `json:"sub"`
	Email           string          `json:"email"`
	Role            iam.Role        `json:"role"`
	TenantID        kernel.TenantID `json:"tenant_id"`
	TenantSubdomain string          `json:"tenant_subdomain"`
	IssuedAt        time.Time       `json:"iat"`
	ExpiresAt       time.Time       `json:"exp"`
}

// AuthContext converts verified claims into the request identity.
func (c *TokenClaims) AuthContext() *kernel.AuthContext {
	return &kernel.AuthContext{
		UserID:          c.UserID,
		TenantID:        c.TenantID,
		TenantSubdomain: c.TenantSubdomain,
		Email:           c.Email,
		Role:            c.Role.String(),
	}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidCredentials    = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid email or password")
	CodeAccountDisabled       = ErrRegistry.Register("ACCOUNT_DISABLED", errx.TypeForbidden, http.StatusForbidden, "Account is disabled")
	CodeAccountLocked         = ErrRegistry.Register("ACCOUNT_LOCKED", errx.TypeBusiness, http.StatusLocked, "Account is temporarily locked")
	CodeInvalidRefreshToken   = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid refresh token")
	CodeInvalidResetToken     = ErrRegistry.Register("INVALID_RESET_TOKEN", errx.TypeValidation, http.StatusBadRequest, "Invalid or expired reset token")
	CodeInvalidPassword       = ErrRegistry.Register("INVALID_PASSWORD", errx.TypeAuthorization, http.StatusUnauthorized, "Current password is incorrect")
	CodeValidation            = ErrRegistry.Register("VALIDATION_ERROR", errx.TypeValidation, http.StatusBadRequest, "Invalid request")
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeTokenValidationFailed = ErrRegistry.Register("TOKEN_VALIDATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Token validation failed")
	CodeSigningKeyUnavailable = ErrRegistry.Register("SIGNING_KEY_UNAVAILABLE", errx.TypeInternal, http.StatusInternalServerError, "Signing keys are not configured")
)

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrAccountDisabled() *errx.Error {
	return ErrRegistry.New(CodeAccountDisabled)
}

// ErrAccountLocked carries the unlock time in RFC 3339.
func ErrAccountLocked(until time.Time) *errx.Error {
	return ErrRegistry.New(CodeAccountLocked).WithDetail("locked_until", until.UTC().Format(time.RFC3339))
}

func ErrInvalidRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidRefreshToken)
}

func ErrInvalidResetToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidResetToken)
}

func ErrInvalidPassword() *errx.Error {
	return ErrRegistry.New(CodeInvalidPassword)
}

func ErrValidation(message string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeValidation, message)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrTokenValidationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenValidationFailed)
}

func ErrSigningKeyUnavailable() *errx.Error {
	return ErrRegistry.New(CodeSigningKeyUnavailable)
}
