package user_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/fieldops360/auth-service/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalString_JSON(t *testing.T) {
	var body struct {
		Phone    user.OptionalString `json:"phone"`
		Position user.OptionalString `json:"position"`
		Avatar   user.OptionalString `json:"avatar"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"phone":" +33 6 ","position":null}`), &body))

	assert.True(t, body.Phone.IsPresent())
	assert.False(t, body.Phone.IsClear())
	assert.Equal(t, "+33 6", body.Phone.Value())

	assert.True(t, body.Position.IsClear())
	assert.False(t, body.Avatar.IsPresent())
}

func TestOptionalString_EmptyStringClears(t *testing.T) {
	var o user.OptionalString
	require.NoError(t, json.Unmarshal([]byte(`""`), &o))
	assert.True(t, o.IsClear())

	current := ptrx.String("old")
	o.Apply(&current)
	assert.Nil(t, current)
}

func TestPatch_Apply(t *testing.T) {
	u := &user.User{
		Email:    "old@demo.com",
		Role:     iam.RoleTeamMember,
		Phone:    ptrx.String("123"),
		Position: ptrx.String("Foreman"),
	}
	role := iam.RoleSiteLeader
	skills := []string{"welding"}

	user.Patch{
		Email:  ptrx.String("  New@Demo.COM "),
		Role:   &role,
		Phone:  user.ClearString(),
		Skills: &skills,
	}.Apply(u)

	assert.Equal(t, "new@demo.com", u.Email)
	assert.Equal(t, iam.RoleSiteLeader, u.Role)
	assert.Nil(t, u.Phone)
	require.NotNil(t, u.Position)
	assert.Equal(t, "Foreman", *u.Position)
	assert.Equal(t, []string{"welding"}, u.Skills)

	skills[0] = "changed"
	assert.Equal(t, "welding", u.Skills[0])
}

func TestProfilePatch_Apply(t *testing.T) {
	u := &user.User{FirstName: "Ana", Language: user.LanguageFrench, Timezone: "UTC"}
	lang := user.LanguageArabic
	tz := "Africa/Casablanca"

	user.ProfilePatch{
		FirstName: ptrx.String(" Amina "),
		Phone:     user.SetString("0600"),
		Language:  &lang,
		Timezone:  &tz,
	}.Apply(u)

	assert.Equal(t, "Amina", u.FirstName)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "0600", *u.Phone)
	assert.Equal(t, user.LanguageArabic, u.Language)
	assert.Equal(t, tz, u.Timezone)
}

func TestUser_IsLocked(t *testing.T) {
	now := time.Now()
	u := &user.User{}
	assert.False(t, u.IsLocked(now))

	future := now.Add(time.Minute)
	u.LockedUntil = &future
	assert.True(t, u.IsLocked(now))
	assert.False(t, u.IsLocked(future), "the lock ends at locked_until")
}

func TestListFilter_Normalized(t *testing.T) {
	f := user.ListFilter{
		Sort:              "password_hash",
		Order:             "sideways",
		Search:            "  ana ",
		PaginationOptions: kernel.PaginationOptions{Page: 0, PageSize: 500},
	}.Normalized()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, user.MaxPageSize, f.PageSize)
	assert.Equal(t, user.SortCreatedAt, f.Sort)
	assert.Equal(t, user.OrderDesc, f.Order)
	assert.Equal(t, "ana", f.Search)

	f = user.ListFilter{Sort: user.SortEmail, Order: user.OrderAsc}.Normalized()
	assert.Equal(t, user.DefaultPageSize, f.PageSize)
	assert.Equal(t, user.SortEmail, f.Sort)
	assert.Equal(t, user.OrderAsc, f.Order)
}

func TestListFilter_Matches(t *testing.T) {
	u := &user.User{FirstName: "Samir", LastName: "Haddad", Email: "samir@demo.com", Role: iam.RoleManager, Active: true}

	assert.True(t, user.ListFilter{Search: "hadd"}.Matches(u))
	assert.True(t, user.ListFilter{Role: ptrx.To(iam.RoleManager), Active: ptrx.Bool(true)}.Matches(u))
	assert.False(t, user.ListFilter{Search: "zzz"}.Matches(u))

	assert.False(t, user.ListFilter{Active: ptrx.Bool(false)}.Matches(u))
}

func TestErrors_Codes(t *testing.T) {
	assert.Equal(t, "USER_NOT_FOUND", user.ErrUserNotFound().Code)
	err := user.ErrDuplicateEmail("a@b.c")
	assert.Equal(t, "USER_DUPLICATE_EMAIL", err.Code)
	assert.Equal(t, "a@b.c", err.Details["email"])
}
