package userinfra_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/iam/user/userinfra"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(email string) *user.User {
	return &user.User{
		ID:        kernel.GenerateUserID(),
		Email:     email,
		FirstName: "Demo",
		LastName:  "User",
		Role:      iam.RoleTeamMember,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func TestMemory_CreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := userinfra.NewMemoryUserRepository(seedUser("manager@demo.com"))

	err := repo.Create(ctx, seedUser("MANAGER@demo.com "))
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, user.CodeDuplicateEmail))
}

func TestMemory_RecordFailedLoginIsAtomic(t *testing.T) {
	ctx := context.Background()
	u := seedUser("manager@demo.com")
	repo := userinfra.NewMemoryUserRepository(u)
	until := time.Now().Add(30 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordFailedLogin(ctx, u.ID, 5, until)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.FailedLoginAttempts)
	require.NotNil(t, got.LockedUntil)
	assert.True(t, got.LockedUntil.Equal(until))
}

func TestMemory_RecordFailedLoginLocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	u := seedUser("a@demo.com")
	repo := userinfra.NewMemoryUserRepository(u)
	until := time.Now().Add(time.Hour)

	for i := 1; i < 5; i++ {
		state, err := repo.RecordFailedLogin(ctx, u.ID, 5, until)
		require.NoError(t, err)
		assert.Equal(t, i, state.Attempts)
		assert.Nil(t, state.LockedUntil)
	}
	state, err := repo.RecordFailedLogin(ctx, u.ID, 5, until)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Attempts)
	require.NotNil(t, state.LockedUntil)
}

func TestMemory_RecordSuccessfulLoginRefusesLockedAccount(t *testing.T) {
	ctx := context.Background()
	u := seedUser("a@demo.com")
	now := time.Now()
	until := now.Add(time.Minute)
	u.LockedUntil = &until
	u.FailedLoginAttempts = 5
	repo := userinfra.NewMemoryUserRepository(u)

	ok, err := repo.RecordSuccessfulLogin(ctx, u.ID, user.SecretDigest{Lookup: "l", Hash: "h"}, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.RecordSuccessfulLogin(ctx, u.ID, user.SecretDigest{Lookup: "l", Hash: "h"}, until.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := repo.FindByID(ctx, u.ID)
	assert.Zero(t, got.FailedLoginAttempts)
	assert.Nil(t, got.LockedUntil)
	require.NotNil(t, got.LastLoginAt)
}

func TestMemory_RecordSuccessfulLoginRefusesInactiveAccount(t *testing.T) {
	ctx := context.Background()
	u := seedUser("a@demo.com")
	u.Active = false
	repo := userinfra.NewMemoryUserRepository(u)

	ok, err := repo.RecordSuccessfulLogin(ctx, u.ID, user.SecretDigest{Lookup: "l", Hash: "h"}, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RefreshTokenLookup)
	assert.Nil(t, got.LastLoginAt)
}

func TestMemory_RotateRefreshTokenCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	u := seedUser("a@demo.com")
	repo := userinfra.NewMemoryUserRepository(u)
	_, err := repo.RecordSuccessfulLogin(ctx, u.ID, user.SecretDigest{Lookup: "first", Hash: "h1"}, time.Now())
	require.NoError(t, err)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.RotateRefreshToken(ctx, u.ID, "first", user.SecretDigest{Lookup: "second", Hash: "h2"})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)

	_, err = repo.FindByRefreshLookup(ctx, "first")
	assert.True(t, errx.HasCode(err, user.CodeUserNotFound))
	got, err := repo.FindByRefreshLookup(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestMemory_ResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	u := seedUser("a@demo.com")
	repo := userinfra.NewMemoryUserRepository(u)
	now := time.Now()

	require.NoError(t, repo.SetResetToken(ctx, u.ID, user.SecretDigest{Lookup: "r", Hash: "rh"}, now.Add(time.Hour)))

	_, err := repo.FindByResetLookup(ctx, "r", now.Add(2*time.Hour))
	assert.Error(t, err, "expired tokens are invisible")

	found, err := repo.FindByResetLookup(ctx, "r", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	ok, err := repo.CompletePasswordReset(ctx, u.ID, "r", "new-hash", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompletePasswordReset(ctx, u.ID, "r", "other-hash", now)
	require.NoError(t, err)
	assert.False(t, ok, "a reset token is single use")

	got, _ := repo.FindByID(ctx, u.ID)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Nil(t, got.ResetTokenLookup)
}

func TestMemory_FindManySortsAndPages(t *testing.T) {
	ctx := context.Background()
	base := time.Now()
	var seed []*user.User
	for i, name := range []string{"Carla", "Ana", "Bilal"} {
		u := seedUser(name + "@demo.com")
		u.FirstName = name
		u.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		seed = append(seed, u)
	}
	repo := userinfra.NewMemoryUserRepository(seed...)

	page, err := repo.FindMany(ctx, user.ListFilter{
		Sort:              user.SortFirstName,
		Order:             user.OrderAsc,
		PaginationOptions: kernel.PaginationOptions{Page: 1, PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Ana", page[0].FirstName)
	assert.Equal(t, "Bilal", page[1].FirstName)

	page, err = repo.FindMany(ctx, user.ListFilter{PaginationOptions: kernel.PaginationOptions{Page: 1, PageSize: 1}})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Bilal", page[0].FirstName, "newest first by default")

	total, err := repo.Count(ctx, user.ListFilter{Search: "a"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestMemory_UpdateDoesNotTouchCredentials(t *testing.T) {
	ctx := context.Background()
	u := seedUser("a@demo.com")
	u.PasswordHash = "keep"
	repo := userinfra.NewMemoryUserRepository(u)

	changed := *u
	changed.PasswordHash = "overwrite"
	changed.FirstName = "Renamed"
	require.NoError(t, repo.Update(ctx, &changed))

	got, _ := repo.FindByID(ctx, u.ID)
	assert.Equal(t, "keep", got.PasswordHash)
	assert.Equal(t, "Renamed", got.FirstName)
}
