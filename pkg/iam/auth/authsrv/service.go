package authsrv

import (
	"context"
	"time"

	"github.com/fieldops360/auth-service/pkg/config"
	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/fieldops360/auth-service/pkg/notifx"
	"github.com/fieldops360/auth-service/pkg/tenant"
)

// Login outcomes, shared by audit entries and metrics labels.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeUnknownEmail       = "unknown_email"
	OutcomeAccountDisabled    = "account_disabled"
	OutcomeAccountLocked      = "account_locked"
	OutcomeInvalidToken       = "invalid_token"
)

// Password reset stages.
const (
	ResetRequested = "requested"
	ResetCompleted = "completed"
	ResetRejected  = "rejected"
)

const (
	MessageResetSent       = "Email de reinitialisation envoye"
	MessageResetCompleted  = "Mot de passe reinitialise avec succes"
	MessagePasswordsDiffer = "Les mots de passe ne correspondent pas"
)

// Recorder receives auth counters. metrics.Metrics satisfies it.
type Recorder interface {
	LoginAttempt(outcome string)
	AccountLocked()
	TokenRefresh(outcome string)
	PasswordReset(stage string)
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(string)  {}
func (nopRecorder) AccountLocked()       {}
func (nopRecorder) TokenRefresh(string)  {}
func (nopRecorder) PasswordReset(string) {}

// Policy holds the lockout and reset parameters.
type Policy struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	ResetTokenTTL     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxFailedAttempts: 5,
		LockoutDuration:   30 * time.Minute,
		ResetTokenTTL:     time.Hour,
	}
}

// PolicyFromConfig falls back to the defaults for unset values.
func PolicyFromConfig(cfg config.AuthConfig) Policy {
	p := DefaultPolicy()
	if cfg.Lockout.MaxAttempts > 0 {
		p.MaxFailedAttempts = cfg.Lockout.MaxAttempts
	}
	if cfg.Lockout.Duration > 0 {
		p.LockoutDuration = cfg.Lockout.Duration
	}
	if cfg.Reset.TokenTTL > 0 {
		p.ResetTokenTTL = cfg.Reset.TokenTTL
	}
	return p
}

// ClientInfo is the caller metadata recorded in audit entries.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// ============================================================================
// Results
// ============================================================================

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type UserSummary struct {
	ID        kernel.UserID `json:"id"`
	Email     string        `json:"email"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Role      string        `json:"role"`
	AvatarURL *string       `json:"avatar_url"`
}

type LoginResult struct {
	TokenPair
	User UserSummary `json:"user"`
}

type MessageResult struct {
	Message string `json:"message"`
}

// ============================================================================
// Service
// ============================================================================

// AuthService drives login, refresh, logout and password reset against the
// store of the resolved tenant.
type AuthService struct {
	tokens    auth.TokenService
	passwords auth.PasswordService
	secrets   auth.TokenGenerator
	audit     auth.AuditService
	mailer    *notifx.Client
	policy    Policy
	recorder  Recorder
	now       func() time.Time
	delivery  Delivery
}

type Option func(*AuthService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *AuthService) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithDelivery(d Delivery) Option {
	return func(s *AuthService) { s.delivery = d }
}

// NewAuthService registers the reset email template on mailer. A nil mailer
// disables email delivery.
func NewAuthService(
	tokens auth.TokenService,
	passwords auth.PasswordService,
	secrets auth.TokenGenerator,
	audit auth.AuditService,
	mailer *notifx.Client,
	policy Policy,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		tokens:    tokens,
		passwords: passwords,
		secrets:   secrets,
		audit:     audit,
		mailer:    mailer,
		policy:    policy,
		recorder:  nopRecorder{},
		now:       time.Now,
		delivery:  DefaultDelivery(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if mailer != nil {
		if err := registerTemplates(mailer); err != nil {
			panic(err)
		}
	}
	return s
}

// Login authenticates email and password inside the tenant of scope.
func (s *AuthService) Login(ctx context.Context, scope *tenant.Scope, email, password string, client ClientInfo) (*LoginResult, error) {
	email = user.NormalizeEmail(email)
	tenantID := scope.Tenant.ID
	users := scope.Store.Users()

	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		if !errx.HasCode(err, user.CodeUserNotFound) {
			return nil, err
		}
		s.passwords.CompareDummy(password)
		s.loginFailed(ctx, tenantID, email, "", OutcomeUnknownEmail, OutcomeInvalidCredentials, client)
		return nil, auth.ErrInvalidCredentials()
	}

	if !u.Active {
		s.loginFailed(ctx, tenantID, email, u.ID, OutcomeAccountDisabled, OutcomeAccountDisabled, client)
		return nil, auth.ErrAccountDisabled()
	}

	now := s.now()
	if u.IsLocked(now) {
		s.loginFailed(ctx, tenantID, email, u.ID, OutcomeAccountLocked, OutcomeAccountLocked, client)
		return nil, auth.ErrAccountLocked(*u.LockedUntil)
	}

	if !s.passwords.Compare(u.PasswordHash, password) {
		return nil, s.wrongPassword(ctx, scope, u, now, client)
	}

	identity := kernel.AuthContext{
		UserID:          u.ID,
		TenantID:        tenantID,
		TenantSubdomain: scope.Tenant.Subdomain,
		Email:           u.Email,
		Role:            u.Role.String(),
	}
	accessToken, err := s.tokens.GenerateAccessToken(identity)
	if err != nil {
		return nil, err
	}
	refreshToken, digest, err := s.newSecret()
	if err != nil {
		return nil, err
	}

	ok, err := users.RecordSuccessfulLogin(ctx, u.ID, digest, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The account was disabled or locked between the check and the update.
		until := now.Add(s.policy.LockoutDuration)
		if fresh, ferr := users.FindByID(ctx, u.ID); ferr == nil {
			if !fresh.Active {
				s.loginFailed(ctx, tenantID, email, u.ID, OutcomeAccountDisabled, OutcomeAccountDisabled, client)
				return nil, auth.ErrAccountDisabled()
			}
			if fresh.LockedUntil != nil {
				until = *fresh.LockedUntil
			}
		}
		s.loginFailed(ctx, tenantID, email, u.ID, OutcomeAccountLocked, OutcomeAccountLocked, client)
		return nil, auth.ErrAccountLocked(until)
	}

	s.audit.LogLoginAttempt(ctx, tenantID, email, u.ID, OutcomeSuccess, client.IP, client.UserAgent)
	s.recorder.LoginAttempt(OutcomeSuccess)

	return &LoginResult{
		TokenPair: s.pair(accessToken, refreshToken),
		User: UserSummary{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role.String(),
			AvatarURL: u.AvatarURL,
		},
	}, nil
}

func (s *AuthService) wrongPassword(ctx context.Context, scope *tenant.Scope, u *user.User, now time.Time, client ClientInfo) error {
	tenantID := scope.Tenant.ID
	lockUntil := now.Add(s.policy.LockoutDuration)

	failed, err := scope.Store.Users().RecordFailedLogin(ctx, u.ID, s.policy.MaxFailedAttempts, lockUntil)
	if err != nil {
		return err
	}
	if failed.LockedUntil != nil && failed.LockedUntil.After(now) {
		s.audit.LogAccountLocked(ctx, tenantID, u.ID, *failed.LockedUntil, client.IP)
		s.recorder.AccountLocked()
		s.loginFailed(ctx, tenantID, u.Email, u.ID, OutcomeAccountLocked, OutcomeAccountLocked, client)
		return auth.ErrAccountLocked(*failed.LockedUntil)
	}

	s.loginFailed(ctx, tenantID, u.Email, u.ID, OutcomeInvalidCredentials, OutcomeInvalidCredentials, client)
	return auth.ErrInvalidCredentials()
}

func (s *AuthService) loginFailed(ctx context.Context, tenantID kernel.TenantID, email string, userID kernel.UserID, auditOutcome, metricOutcome string, client ClientInfo) {
	s.audit.LogLoginAttempt(ctx, tenantID, email, userID, auditOutcome, client.IP, client.UserAgent)
	s.recorder.LoginAttempt(metricOutcome)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// consumed: a second use fails even when it raced the first.
func (s *AuthService) Refresh(ctx context.Context, scope *tenant.Scope, refreshToken string, client ClientInfo) (*TokenPair, error) {
	if refreshToken == "" {
		s.recorder.TokenRefresh(OutcomeInvalidToken)
		return nil, auth.ErrInvalidRefreshToken()
	}
	users := scope.Store.Users()
	lookup := auth.LookupDigest(refreshToken)

	u, err := users.FindByRefreshLookup(ctx, lookup)
	if err != nil {
		if errx.HasCode(err, user.CodeUserNotFound) {
			s.recorder.TokenRefresh(OutcomeInvalidToken)
			return nil, auth.ErrInvalidRefreshToken()
		}
		return nil, err
	}
	if u.RefreshTokenHash == nil || !s.passwords.Compare(*u.RefreshTokenHash, refreshToken) {
		s.recorder.TokenRefresh(OutcomeInvalidToken)
		return nil, auth.ErrInvalidRefreshToken()
	}

	accessToken, err := s.tokens.GenerateAccessToken(kernel.AuthContext{
		UserID:          u.ID,
		TenantID:        scope.Tenant.ID,
		TenantSubdomain: scope.Tenant.Subdomain,
		Email:           u.Email,
		Role:            u.Role.String(),
	})
	if err != nil {
		return nil, err
	}
	next, digest, err := s.newSecret()
	if err != nil {
		return nil, err
	}

	rotated, err := users.RotateRefreshToken(ctx, u.ID, lookup, digest)
	if err != nil {
		return nil, err
	}
	if !rotated {
		s.recorder.TokenRefresh(OutcomeInvalidToken)
		return nil, auth.ErrInvalidRefreshToken()
	}

	s.audit.LogTokenRefresh(ctx, scope.Tenant.ID, u.ID, client.IP)
	s.recorder.TokenRefresh(OutcomeSuccess)
	pair := s.pair(accessToken, next)
	return &pair, nil
}

// Logout revokes the stored refresh token. Access tokens stay valid until
// they expire.
func (s *AuthService) Logout(ctx context.Context, scope *tenant.Scope, userID kernel.UserID, client ClientInfo) error {
	if err := scope.Store.Users().ClearRefreshToken(ctx, userID); err != nil {
		return err
	}
	s.audit.LogLogout(ctx, scope.Tenant.ID, userID, client.IP)
	return nil
}

// ForgotPassword issues a reset token and mails it. The result is the same
// whether or not the address is known.
func (s *AuthService) ForgotPassword(ctx context.Context, scope *tenant.Scope, email string, client ClientInfo) (*MessageResult, error) {
	email = user.NormalizeEmail(email)
	users := scope.Store.Users()
	result := &MessageResult{Message: MessageResetSent}

	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		if errx.HasCode(err, user.CodeUserNotFound) {
			// Same secret generation and hashing as a known address.
			_, _, _ = s.newSecret()
			return result, nil
		}
		return nil, err
	}

	token, digest, err := s.newSecret()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(s.policy.ResetTokenTTL)
	if err := users.SetResetToken(ctx, u.ID, digest, expiresAt); err != nil {
		return nil, err
	}

	s.audit.LogPasswordResetRequested(ctx, scope.Tenant.ID, u.ID, client.IP)
	s.recorder.PasswordReset(ResetRequested)
	s.sendResetEmail(ctx, scope, u, token)
	return result, nil
}

// ResetPassword sets a new password from a valid reset token and clears
// any lockout.
func (s *AuthService) ResetPassword(ctx context.Context, scope *tenant.Scope, token, newPassword, confirmation string, client ClientInfo) (*MessageResult, error) {
	if newPassword != confirmation {
		return nil, auth.ErrValidation(MessagePasswordsDiffer).WithDetail("field", "new_password_confirmation")
	}
	if token == "" {
		s.recorder.PasswordReset(ResetRejected)
		return nil, auth.ErrInvalidResetToken()
	}

	users := scope.Store.Users()
	now := s.now()
	lookup := auth.LookupDigest(token)

	u, err := users.FindByResetLookup(ctx, lookup, now)
	if err != nil {
		if errx.HasCode(err, user.CodeUserNotFound) {
			s.recorder.PasswordReset(ResetRejected)
			return nil, auth.ErrInvalidResetToken()
		}
		return nil, err
	}
	if u.ResetTokenHash == nil || !s.passwords.Compare(*u.ResetTokenHash, token) {
		s.recorder.PasswordReset(ResetRejected)
		return nil, auth.ErrInvalidResetToken()
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	done, err := users.CompletePasswordReset(ctx, u.ID, lookup, hash, now)
	if err != nil {
		return nil, err
	}
	if !done {
		s.recorder.PasswordReset(ResetRejected)
		return nil, auth.ErrInvalidResetToken()
	}

	s.audit.LogPasswordReset(ctx, scope.Tenant.ID, u.ID, client.IP)
	s.recorder.PasswordReset(ResetCompleted)
	logx.WithContext(ctx).WithFields(logx.Fields{
		"tenant_id": scope.Tenant.ID,
		"user_id":   u.ID,
	}).Info("password reset completed")
	return &MessageResult{Message: MessageResetCompleted}, nil
}

// newSecret returns an opaque token and the digest to persist for it.
func (s *AuthService) newSecret() (string, user.SecretDigest, error) {
	token, err := s.secrets.Generate()
	if err != nil {
		return "", user.SecretDigest{}, err
	}
	hash, err := s.passwords.Hash(token)
	if err != nil {
		return "", user.SecretDigest{}, err
	}
	return token, user.SecretDigest{Lookup: auth.LookupDigest(token), Hash: hash}, nil
}

func (s *AuthService) pair(access, refresh string) TokenPair {
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTokenTTL().Seconds()),
	}
}
