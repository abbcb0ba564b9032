package user

import (
	"time"

	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/kernel"
)

// UserDTO is the public shape of a user. Credential state never leaves
// the store.
type UserDTO struct {
	ID          kernel.UserID `json:"id"`
	Email       string        `json:"email"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	Role        iam.Role      `json:"role"`
	Phone       *string       `json:"phone"`
	Position    *string       `json:"position"`
	Skills      []string      `json:"skills"`
	AvatarURL   *string       `json:"avatar_url"`
	Language    Language      `json:"language"`
	Timezone    string        `json:"timezone"`
	Active      bool          `json:"active"`
	FirstLogin  bool          `json:"first_login"`
	LastLoginAt *time.Time    `json:"last_login_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (u *User) ToDTO() UserDTO {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		Phone:       u.Phone,
		Position:    u.Position,
		Skills:      skills,
		AvatarURL:   u.AvatarURL,
		Language:    u.Language,
		Timezone:    u.Timezone,
		Active:      u.Active,
		FirstLogin:  u.FirstLogin,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// CreateUserRequest is an administrative account creation.
type CreateUserRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      iam.Role
	Phone     *string
	Position  *string
	Skills    []string
}
