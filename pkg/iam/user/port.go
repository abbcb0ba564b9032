package user

import (
	"context"
	"time"

	"github.com/fieldops360/auth-service/pkg/kernel"
)

// Repository is the per-tenant user store.
type Repository interface {
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindMany(ctx context.Context, filter ListFilter) ([]*User, error)
	Count(ctx context.Context, filter ListFilter) (int, error)

	// EmailTaken reports whether another user than except owns email.
	EmailTaken(ctx context.Context, email string, except kernel.UserID) (bool, error)

	// Create fails with DuplicateEmail on a unique violation.
	Create(ctx context.Context, u *User) error

	// Update writes profile and administrative fields only. Credential
	// state goes through CredentialStore.
	Update(ctx context.Context, u *User) error

	CredentialStore
}

// CredentialStore holds the mutations of login state. Every method is a
// single conditional statement, so concurrent requests for the same user
// never lose an update.
type CredentialStore interface {
	// RecordFailedLogin increments the counter and, when it reaches
	// maxAttempts, sets the lockout to lockUntil.
	RecordFailedLogin(ctx context.Context, id kernel.UserID, maxAttempts int, lockUntil time.Time) (FailedLogin, error)

	// RecordSuccessfulLogin resets the counter, clears the lockout, stamps
	// the last login and stores the refresh digest. It returns false when
	// the account is inactive or locked at now, e.g. by a concurrent request.
	RecordSuccessfulLogin(ctx context.Context, id kernel.UserID, refresh SecretDigest, now time.Time) (bool, error)

	// FindByRefreshLookup returns the active user owning lookup.
	FindByRefreshLookup(ctx context.Context, lookup string) (*User, error)

	// RotateRefreshToken swaps the refresh digest iff the stored lookup
	// still equals previousLookup.
	RotateRefreshToken(ctx context.Context, id kernel.UserID, previousLookup string, next SecretDigest) (bool, error)

	// ClearRefreshToken is idempotent.
	ClearRefreshToken(ctx context.Context, id kernel.UserID) error

	SetResetToken(ctx context.Context, id kernel.UserID, token SecretDigest, expiresAt time.Time) error

	// FindByResetLookup returns the user whose reset token is lookup and
	// has not expired at now.
	FindByResetLookup(ctx context.Context, lookup string, now time.Time) (*User, error)

	// CompletePasswordReset stores the new hash and clears the reset token,
	// counter and lockout iff the reset token is still lookup and unexpired.
	CompletePasswordReset(ctx context.Context, id kernel.UserID, lookup string, passwordHash string, now time.Time) (bool, error)

	// UpdatePassword stores a new hash and ends the first-login state.
	UpdatePassword(ctx context.Context, id kernel.UserID, passwordHash string) error
}
