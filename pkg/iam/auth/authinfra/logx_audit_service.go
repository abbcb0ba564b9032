package authinfra

import (
	"context"
	"time"

	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/logx"
)

// LogxAuditService implements auth.AuditService using structured logx logging.
type LogxAuditService struct{}

var _ auth.AuditService = (*LogxAuditService)(nil)

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogLoginAttempt(ctx context.Context, tenantID kernel.TenantID, email string, userID kernel.UserID, outcome string, ip string, userAgent string) {
	entry := logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": "login_attempt",
		"tenant_id":   tenantID,
		"email":       email,
		"user_id":     userID,
		"outcome":     outcome,
		"ip":          ip,
		"user_agent":  userAgent,
	})
	if outcome == "success" {
		entry.Info("Audit: login attempt")
		return
	}
	entry.Warn("Audit: login attempt")
}

func (s *LogxAuditService) LogAccountLocked(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, until time.Time, ip string) {
	logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event":  "account_locked",
		"tenant_id":    tenantID,
		"user_id":      userID,
		"locked_until": until.UTC().Format(time.RFC3339),
		"ip":           ip,
	}).Warn("Audit: account locked")
}

func (s *LogxAuditService) LogLogout(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string) {
	s.event(ctx, "logout", tenantID, userID, ip).Info("Audit: logout")
}

func (s *LogxAuditService) LogTokenRefresh(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string) {
	s.event(ctx, "token_refresh", tenantID, userID, ip).Info("Audit: token refresh")
}

func (s *LogxAuditService) LogPasswordResetRequested(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string) {
	s.event(ctx, "password_reset_requested", tenantID, userID, ip).Info("Audit: password reset requested")
}

func (s *LogxAuditService) LogPasswordReset(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string) {
	s.event(ctx, "password_reset", tenantID, userID, ip).Info("Audit: password reset")
}

func (s *LogxAuditService) LogPasswordChanged(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, ip string) {
	s.event(ctx, "password_changed", tenantID, userID, ip).Info("Audit: password changed")
}

func (s *LogxAuditService) event(ctx context.Context, name string, tenantID kernel.TenantID, userID kernel.UserID, ip string) *logx.Entry {
	return logx.WithContext(ctx).WithFields(logx.Fields{
		"audit_event": name,
		"tenant_id":   tenantID,
		"user_id":     userID,
		"ip":          ip,
	})
}
