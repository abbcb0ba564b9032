package usersrv

import (
	"context"

	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/tenant"
)

func (s *UserService) GetProfile(ctx context.Context, scope *tenant.Scope, id kernel.UserID) (*user.UserDTO, error) {
	return s.Get(ctx, scope, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, scope *tenant.Scope, id kernel.UserID, patch user.ProfilePatch) (*user.UserDTO, error) {
	users := scope.Store.Users()
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(u)
	u.UpdatedAt = s.now()
	if err := users.Update(ctx, u); err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

// ChangePassword replaces the password after checking the current one and
// ends the first-login state.
func (s *UserService) ChangePassword(ctx context.Context, scope *tenant.Scope, id kernel.UserID, current, next, confirmation, ip string) (string, error) {
	if next != confirmation {
		return "", auth.ErrValidation(MessagePasswordsDiffer).WithDetail("field", "new_password_confirmation")
	}
	users := scope.Store.Users()
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !s.passwords.Compare(u.PasswordHash, current) {
		return "", auth.ErrInvalidPassword()
	}

	hash, err := s.passwords.Hash(next)
	if err != nil {
		return "", err
	}
	if err := users.UpdatePassword(ctx, id, hash); err != nil {
		return "", err
	}
	s.audit.LogPasswordChanged(ctx, scope.Tenant.ID, id, ip)
	return MessagePasswordChanged, nil
}
