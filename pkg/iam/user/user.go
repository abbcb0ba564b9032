package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/ptrx"
)

// Language is the UI language of a user.
type Language string

const (
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"

	DefaultLanguage = LanguageFrench
	DefaultTimezone = "UTC"
)

func (l Language) IsValid() bool {
	switch l {
	case LanguageFrench, LanguageEnglish, LanguageArabic:
		return true
	}
	return false
}

// User is the identity record stored in each tenant database.
type User struct {
	ID           kernel.UserID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         iam.Role
	Phone        *string
	Position     *string
	Skills       []string
	AvatarURL    *string
	Language     Language
	Timezone     string
	Active       bool
	FirstLogin   bool

	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time

	RefreshTokenHash    *string
	RefreshTokenLookup  *string
	ResetTokenHash      *string
	ResetTokenLookup    *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked reports whether a lockout window is still open at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// NormalizeEmail lowercases and trims an address; emails are compared in
// this form everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SecretDigest is how refresh and reset tokens are persisted: Lookup is a
// fast SHA-256 digest used only to find the row, Hash is the bcrypt hash
// the presented token must match.
type SecretDigest struct {
	Lookup string
	Hash   string
}

// FailedLogin is the counter state after a recorded failure.
type FailedLogin struct {
	Attempts    int
	LockedUntil *time.Time
}

// ============================================================================
// Patches
// ============================================================================

// OptionalString is a tri-state patch value for nullable text: absent
// leaves the field alone, clear sets it to NULL, set stores the value.
// Over JSON a missing key is absent, null or "" is clear.
type OptionalString struct {
	present bool
	clear   bool
	value   string
}

func SetString(v string) OptionalString { return OptionalString{present: true, value: v} }
func ClearString() OptionalString       { return OptionalString{present: true, clear: true} }

func (o OptionalString) IsPresent() bool { return o.present }
func (o OptionalString) IsClear() bool   { return o.present && o.clear }

// Value returns the set value; the empty string for absent or clear.
func (o OptionalString) Value() string { return o.value }

// Apply writes the patch into dst.
func (o OptionalString) Apply(dst **string) {
	if !o.present {
		return
	}
	if o.clear {
		*dst = nil
		return
	}
	*dst = ptrx.To(o.value)
}

// Patch is an administrative update. Nil pointers are left unchanged.
type Patch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *iam.Role
	Phone     OptionalString
	Position  OptionalString
	Skills    *[]string
}

// Apply mutates u with the fields present in p.
func (p Patch) Apply(u *User) {
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.FirstName != nil {
		u.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	p.Phone.Apply(&u.Phone)
	p.Position.Apply(&u.Position)
	if p.Skills != nil {
		u.Skills = append([]string(nil), (*p.Skills)...)
	}
}

// ProfilePatch is what a user may change about themselves.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Phone     OptionalString
	Language  *Language
	Timezone  *string
}

func (p ProfilePatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = strings.TrimSpace(*p.LastName)
	}
	p.Phone.Apply(&u.Phone)
	if p.Language != nil {
		u.Language = *p.Language
	}
	if p.Timezone != nil {
		u.Timezone = *p.Timezone
	}
}

// ============================================================================
// Listing
// ============================================================================

type SortField string

const (
	SortCreatedAt   SortField = "created_at"
	SortLastLoginAt SortField = "last_login_at"
	SortFirstName   SortField = "first_name"
	SortLastName    SortField = "last_name"
	SortEmail       SortField = "email"
)

// IsValid reports whether f is on the sort allow-list.
func (f SortField) IsValid() bool {
	switch f {
	case SortCreatedAt, SortLastLoginAt, SortFirstName, SortLastName, SortEmail:
		return true
	}
	return false
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFilter selects a page of users.
type ListFilter struct {
	Role   *iam.Role
	Active *bool
	Search string
	Sort   SortField
	Order  SortOrder
	kernel.PaginationOptions
}

// Normalized fills defaults and clamps out-of-range values.
func (f ListFilter) Normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if !f.Sort.IsValid() {
		f.Sort = SortCreatedAt
	}
	if f.Order != OrderAsc {
		f.Order = OrderDesc
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Matches applies the filter predicate to one user, for in-memory stores.
func (f ListFilter) Matches(u *User) bool {
	if f.Role != nil && u.Role != *f.Role {
		return false
	}
	if f.Active != nil && u.Active != *f.Active {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(u.FirstName), needle) ||
		strings.Contains(strings.ToLower(u.LastName), needle) ||
		strings.Contains(strings.ToLower(u.Email), needle)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound   = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeDuplicateEmail = ErrRegistry.Register("DUPLICATE_EMAIL", errx.TypeConflict, http.StatusConflict, "Email is already in use")
	CodeValidation     = ErrRegistry.Register("VALIDATION_ERROR", errx.TypeValidation, http.StatusBadRequest, "Invalid user data")
)

func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrDuplicateEmail(email string) *errx.Error {
	return ErrRegistry.New(CodeDuplicateEmail).WithDetail("email", email)
}

func ErrValidation() *errx.Error {
	return ErrRegistry.New(CodeValidation)
}
