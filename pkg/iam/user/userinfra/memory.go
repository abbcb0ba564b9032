package userinfra

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/ptrx"
)

// MemoryUserRepository keeps users in a map. It mirrors the conditional
// semantics of the Postgres statements and backs tests and local demos.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[kernel.UserID]*user.User
}

func NewMemoryUserRepository(seed ...*user.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[kernel.UserID]*user.User)}
	for _, u := range seed {
		c := clone(u)
		c.Email = user.NormalizeEmail(c.Email)
		r.users[c.ID] = c
	}
	return r
}

var _ user.Repository = (*MemoryUserRepository)(nil)

func (r *MemoryUserRepository) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = user.NormalizeEmail(email)
	return r.findLocked(func(u *user.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) FindByRefreshLookup(_ context.Context, lookup string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(u *user.User) bool {
		return u.Active && u.RefreshTokenLookup != nil && *u.RefreshTokenLookup == lookup
	})
}

func (r *MemoryUserRepository) FindByResetLookup(_ context.Context, lookup string, now time.Time) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(u *user.User) bool {
		return u.ResetTokenLookup != nil && *u.ResetTokenLookup == lookup &&
			u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(now)
	})
}

func (r *MemoryUserRepository) findLocked(match func(*user.User) bool) (*user.User, error) {
	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (r *MemoryUserRepository) FindMany(_ context.Context, filter user.ListFilter) ([]*user.User, error) {
	filter = filter.Normalized()
	matched := r.matching(filter)

	sort.SliceStable(matched, func(i, j int) bool {
		less := compare(matched[i], matched[j], filter.Sort)
		if less == 0 {
			return matched[i].ID < matched[j].ID
		}
		if filter.Order == user.OrderAsc {
			return less < 0
		}
		return less > 0
	})

	start := filter.Offset()
	if start >= len(matched) {
		return []*user.User{}, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *MemoryUserRepository) Count(_ context.Context, filter user.ListFilter) (int, error) {
	return len(r.matching(filter.Normalized())), nil
}

func (r *MemoryUserRepository) matching(filter user.ListFilter) []*user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		if filter.Matches(u) {
			out = append(out, clone(u))
		}
	}
	return out
}

func (r *MemoryUserRepository) EmailTaken(_ context.Context, email string, except kernel.UserID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = user.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email && u.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := user.NormalizeEmail(u.Email)
	for _, existing := range r.users {
		if existing.Email == email {
			return user.ErrDuplicateEmail(email)
		}
	}
	c := clone(u)
	c.Email = email
	r.users[c.ID] = c
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok {
		return user.ErrUserNotFound()
	}
	email := user.NormalizeEmail(u.Email)
	for id, existing := range r.users {
		if id != u.ID && existing.Email == email {
			return user.ErrDuplicateEmail(email)
		}
	}

	next := clone(cur)
	next.Email = email
	next.FirstName = u.FirstName
	next.LastName = u.LastName
	next.Role = u.Role
	next.Phone = ptrx.Clone(u.Phone)
	next.Position = ptrx.Clone(u.Position)
	next.Skills = append([]string(nil), u.Skills...)
	next.AvatarURL = ptrx.Clone(u.AvatarURL)
	next.Language = u.Language
	next.Timezone = u.Timezone
	next.Active = u.Active
	next.UpdatedAt = u.UpdatedAt
	r.users[u.ID] = next
	return nil
}

func (r *MemoryUserRepository) RecordFailedLogin(_ context.Context, id kernel.UserID, maxAttempts int, lockUntil time.Time) (user.FailedLogin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.FailedLogin{}, user.ErrUserNotFound()
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		t := lockUntil
		u.LockedUntil = &t
	}
	u.UpdatedAt = time.Now()
	return user.FailedLogin{Attempts: u.FailedLoginAttempts, LockedUntil: ptrx.Clone(u.LockedUntil)}, nil
}

func (r *MemoryUserRepository) RecordSuccessfulLogin(_ context.Context, id kernel.UserID, refresh user.SecretDigest, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.Active || u.IsLocked(now) {
		return false, nil
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.RefreshTokenHash = &refresh.Hash
	u.RefreshTokenLookup = &refresh.Lookup
	u.UpdatedAt = now
	return true, nil
}

func (r *MemoryUserRepository) RotateRefreshToken(_ context.Context, id kernel.UserID, previousLookup string, next user.SecretDigest) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.Active || u.RefreshTokenLookup == nil || *u.RefreshTokenLookup != previousLookup {
		return false, nil
	}
	u.RefreshTokenHash = &next.Hash
	u.RefreshTokenLookup = &next.Lookup
	u.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryUserRepository) ClearRefreshToken(_ context.Context, id kernel.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RefreshTokenHash = nil
		u.RefreshTokenLookup = nil
	}
	return nil
}

func (r *MemoryUserRepository) SetResetToken(_ context.Context, id kernel.UserID, token user.SecretDigest, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound()
	}
	u.ResetTokenHash = &token.Hash
	u.ResetTokenLookup = &token.Lookup
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (r *MemoryUserRepository) CompletePasswordReset(_ context.Context, id kernel.UserID, lookup string, passwordHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.ResetTokenLookup == nil || *u.ResetTokenLookup != lookup ||
		u.ResetTokenExpiresAt == nil || !u.ResetTokenExpiresAt.After(now) {
		return false, nil
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenLookup = nil
	u.ResetTokenExpiresAt = nil
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = now
	return true, nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id kernel.UserID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound()
	}
	u.PasswordHash = passwordHash
	u.FirstLogin = false
	u.UpdatedAt = time.Now()
	return nil
}

func compare(a, b *user.User, field user.SortField) int {
	switch field {
	case user.SortFirstName:
		return strings.Compare(a.FirstName, b.FirstName)
	case user.SortLastName:
		return strings.Compare(a.LastName, b.LastName)
	case user.SortEmail:
		return strings.Compare(a.Email, b.Email)
	case user.SortLastLoginAt:
		return compareTimes(a.LastLoginAt, b.LastLoginAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// compareTimes sorts nil as the zero time.
func compareTimes(a, b *time.Time) int {
	var ta, tb time.Time
	if a != nil {
		ta = *a
	}
	if b != nil {
		tb = *b
	}
	return ta.Compare(tb)
}

func clone(u *user.User) *user.User {
	c := *u
	c.Phone = ptrx.Clone(u.Phone)
	c.Position = ptrx.Clone(u.Position)
	c.AvatarURL = ptrx.Clone(u.AvatarURL)
	c.Skills = append([]string(nil), u.Skills...)
	c.LockedUntil = ptrx.Clone(u.LockedUntil)
	c.LastLoginAt = ptrx.Clone(u.LastLoginAt)
	c.RefreshTokenHash = ptrx.Clone(u.RefreshTokenHash)
	c.RefreshTokenLookup = ptrx.Clone(u.RefreshTokenLookup)
	c.ResetTokenHash = ptrx.Clone(u.ResetTokenHash)
	c.ResetTokenLookup = ptrx.Clone(u.ResetTokenLookup)
	c.ResetTokenExpiresAt = ptrx.Clone(u.ResetTokenExpiresAt)
	return &c
}
