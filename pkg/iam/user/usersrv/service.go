package usersrv

import (
	"context"
	"strings"
	"time"

	"github.com/fieldops360/auth-service/pkg/asyncx"
	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/tenant"
)

const (
	MessagePasswordChanged = "Mot de passe modifie avec succes"
	MessagePasswordsDiffer = "Les mots de passe ne correspondent pas"
)

// UserService manages the users of one tenant: the administrative
// directory and each user's own profile.
type UserService struct {
	passwords auth.PasswordService
	audit     auth.AuditService
	now       func() time.Time
}

func NewUserService(passwords auth.PasswordService, audit auth.AuditService) *UserService {
	return &UserService{
		passwords: passwords,
		audit:     audit,
		now:       time.Now,
	}
}

// WithClock replaces time.Now, for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// ============================================================================
// Directory
// ============================================================================

// List returns one page of users. The count and the page are read
// concurrently.
func (s *UserService) List(ctx context.Context, scope *tenant.Scope, filter user.ListFilter) (kernel.Paginated[user.UserDTO], error) {
	filter = filter.Normalized()
	users := scope.Store.Users()

	total := asyncx.Run(func() (int, error) {
		return users.Count(ctx, filter)
	})
	page := asyncx.Run(func() ([]*user.User, error) {
		return users.FindMany(ctx, filter)
	})

	found, err := page.Await()
	if err != nil {
		return kernel.Paginated[user.UserDTO]{}, err
	}
	count, err := total.Await()
	if err != nil {
		return kernel.Paginated[user.UserDTO]{}, err
	}

	dtos := make([]user.UserDTO, 0, len(found))
	for _, u := range found {
		dtos = append(dtos, u.ToDTO())
	}
	return kernel.NewPaginated(dtos, filter.Page, filter.PageSize, count), nil
}

// Create adds a user who must change their password at first login.
func (s *UserService) Create(ctx context.Context, scope *tenant.Scope, req user.CreateUserRequest) (*user.UserDTO, error) {
	if !isAssignable(req.Role) {
		return nil, user.ErrValidation().WithDetail("role", "role cannot be assigned")
	}
	users := scope.Store.Users()
	email := user.NormalizeEmail(req.Email)

	taken, err := users.EmailTaken(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, user.ErrDuplicateEmail(email)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	skills := req.Skills
	if skills == nil {
		skills = []string{}
	}
	u := &user.User{
		ID:           kernel.GenerateUserID(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		Phone:        req.Phone,
		Position:     req.Position,
		Skills:       skills,
		Language:     user.DefaultLanguage,
		Timezone:     user.DefaultTimezone,
		Active:       true,
		FirstLogin:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

func (s *UserService) Get(ctx context.Context, scope *tenant.Scope, id kernel.UserID) (*user.UserDTO, error) {
	u, err := scope.Store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

// Update applies an administrative patch. An email already used by
// another user is rejected.
func (s *UserService) Update(ctx context.Context, scope *tenant.Scope, id kernel.UserID, patch user.Patch) (*user.UserDTO, error) {
	if patch.Role != nil && !isAssignable(*patch.Role) {
		return nil, user.ErrValidation().WithDetail("role", "role cannot be assigned")
	}
	users := scope.Store.Users()
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := user.NormalizeEmail(*patch.Email)
		if email != u.Email {
			taken, err := users.EmailTaken(ctx, email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, user.ErrDuplicateEmail(email)
			}
		}
	}

	patch.Apply(u)
	u.UpdatedAt = s.now()
	if err := users.Update(ctx, u); err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

// SetActive enables or disables an account. Users are never deleted.
func (s *UserService) SetActive(ctx context.Context, scope *tenant.Scope, id kernel.UserID, active bool) (*user.UserDTO, error) {
	users := scope.Store.Users()
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Active = active
	u.UpdatedAt = s.now()
	if err := users.Update(ctx, u); err != nil {
		return nil, err
	}
	if !active {
		// A disabled user must not keep refreshing.
		if err := users.ClearRefreshToken(ctx, id); err != nil {
			return nil, err
		}
	}
	dto := u.ToDTO()
	return &dto, nil
}

func isAssignable(r iam.Role) bool {
	for _, allowed := range iam.AssignableRoles() {
		if r == allowed {
			return true
		}
	}
	return false
}
