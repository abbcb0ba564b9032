package userapi

import (
	"errors"
	"strings"

	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/ptrx"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

func assignableRoles() []any {
	roles := iam.AssignableRoles()
	out := make([]any, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.String())
	}
	return out
}

var (
	languages  = []any{string(user.LanguageFrench), string(user.LanguageEnglish), string(user.LanguageArabic)}
	sortFields = []any{
		string(user.SortCreatedAt), string(user.SortLastLoginAt), string(user.SortFirstName),
		string(user.SortLastName), string(user.SortEmail),
	}
)

var nonBlankItems = validation.By(func(value any) error {
	var items []string
	switch v := value.(type) {
	case []string:
		items = v
	case *[]string:
		if v == nil {
			return nil
		}
		items = *v
	}
	for _, s := range items {
		if strings.TrimSpace(s) == "" {
			return errors.New("must not contain blank values")
		}
	}
	return nil
})

type CreateUserPayload struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      string   `json:"role"`
	Phone     *string  `json:"phone"`
	Position  *string  `json:"position"`
	Skills    []string `json:"skills"`
}

func (p CreateUserPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, auth.StrongPassword),
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Role, validation.Required, validation.In(assignableRoles()...)),
		validation.Field(&p.Phone, validation.Length(0, 30)),
		validation.Field(&p.Position, validation.Length(0, 100)),
		validation.Field(&p.Skills, nonBlankItems),
	)
}

func (p CreateUserPayload) Request() user.CreateUserRequest {
	return user.CreateUserRequest{
		Email:     p.Email,
		Password:  p.Password,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      iam.Role(p.Role),
		Phone:     ptrx.NonEmpty(strings.TrimSpace(ptrx.Value(p.Phone))),
		Position:  ptrx.NonEmpty(strings.TrimSpace(ptrx.Value(p.Position))),
		Skills:    p.Skills,
	}
}

// UpdateUserPayload is a partial update: omitted keys are left alone,
// phone and position accept null to clear.
type UpdateUserPayload struct {
	Email     *string             `json:"email"`
	FirstName *string             `json:"first_name"`
	LastName  *string             `json:"last_name"`
	Role      *string             `json:"role"`
	Phone     user.OptionalString `json:"phone"`
	Position  user.OptionalString `json:"position"`
	Skills    *[]string           `json:"skills"`
}

func (p UpdateUserPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&p.FirstName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&p.LastName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&p.Role, validation.NilOrNotEmpty, validation.In(assignableRoles()...)),
		validation.Field(&p.Skills, nonBlankItems),
	)
}

func (p UpdateUserPayload) Patch() user.Patch {
	patch := user.Patch{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Position:  p.Position,
		Skills:    p.Skills,
	}
	if p.Role != nil {
		role := iam.Role(*p.Role)
		patch.Role = &role
	}
	return patch
}

type StatusPayload struct {
	Active *bool `json:"active"`
}

func (p StatusPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Active, validation.NotNil),
	)
}

type UpdateProfilePayload struct {
	FirstName *string             `json:"first_name"`
	LastName  *string             `json:"last_name"`
	Phone     user.OptionalString `json:"phone"`
	Language  *string             `json:"language"`
	Timezone  *string             `json:"timezone"`
}

func (p UpdateProfilePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&p.LastName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&p.Language, validation.NilOrNotEmpty, validation.In(languages...)),
		validation.Field(&p.Timezone, validation.NilOrNotEmpty, validation.Length(1, 64)),
	)
}

func (p UpdateProfilePayload) Patch() user.ProfilePatch {
	patch := user.ProfilePatch{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Timezone:  p.Timezone,
	}
	if p.Language != nil {
		lang := user.Language(*p.Language)
		patch.Language = &lang
	}
	return patch
}

type ChangePasswordPayload struct {
	CurrentPassword         string `json:"current_password"`
	NewPassword             string `json:"new_password"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

func (p ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CurrentPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, auth.StrongPassword),
		validation.Field(&p.NewPasswordConfirmation, validation.Required),
	)
}

// ListQuery is the query string of GET /users.
type ListQuery struct {
	Page   int    `query:"page" json:"page"`
	Limit  int    `query:"limit" json:"limit"`
	Role   string `query:"role" json:"role"`
	Active string `query:"active" json:"active"`
	Search string `query:"search" json:"search"`
	Sort   string `query:"sort" json:"sort"`
	Order  string `query:"order" json:"order"`
}

func (q ListQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Min(1)),
		validation.Field(&q.Limit, validation.Min(1), validation.Max(user.MaxPageSize)),
		validation.Field(&q.Role, validation.In(append(assignableRoles(), iam.RoleSuperAdmin.String())...)),
		validation.Field(&q.Active, validation.In("true", "false")),
		validation.Field(&q.Search, validation.Length(0, 100)),
		validation.Field(&q.Sort, validation.In(sortFields...)),
		validation.Field(&q.Order, validation.In(string(user.OrderAsc), string(user.OrderDesc))),
	)
}

func (q ListQuery) Filter() user.ListFilter {
	f := user.ListFilter{
		Search:            q.Search,
		Sort:              user.SortField(q.Sort),
		Order:             user.SortOrder(q.Order),
		PaginationOptions: kernel.PaginationOptions{Page: q.Page, PageSize: q.Limit},
	}
	if q.Role != "" {
		f.Role = ptrx.To(iam.Role(q.Role))
	}
	if q.Active != "" {
		f.Active = ptrx.Bool(q.Active == "true")
	}
	return f
}
