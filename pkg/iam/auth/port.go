package auth

import (
	"context"
	"time"

	"github.com/fieldops360/auth-service/pkg/kernel"
)

// TokenService issues and verifies access tokens.
type TokenService interface {
	GenerateAccessToken(identity kernel.AuthContext) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	AccessTokenTTL() time.Duration
}

// TokenGenerator produces opaque secrets.
type TokenGenerator interface {
	Generate() (string, error)
}

// PasswordService is the slow adaptive hash used for passwords and for
// stored refresh and reset tokens.
type PasswordService interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool

	// CompareDummy spends the same time as a failed Compare.
	CompareDummy(plain string)
}

// AuditService records security-relevant events.
type AuditService interface {
	LogLoginAttempt(ctx context.Context, tenantID kernel.TenantID, email string, userID kernel.UserID, outcome string, ip string, userAgent string)
	LogAccountLocked(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, until time.Time, ip string)
	LogLogout(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string)
	LogTokenRefresh(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string)
	LogPasswordResetRequested(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string)
	LogPasswordReset(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string)
	LogPasswordChanged(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string)
}
