package userinfra

import (
	"testing"

	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/stretchr/testify/assert"
)

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(user.ListFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	role := iam.RoleManager
	active := true
	where, args = buildWhere(user.ListFilter{Role: &role, Active: &active, Search: "50%_off"})
	assert.Equal(t,
		"WHERE role = $1 AND active = $2 AND (first_name ILIKE $3 OR last_name ILIKE $3 OR email ILIKE $3)",
		where)
	assert.Equal(t, []any{"MANAGER", true, `%50\%\_off%`}, args)
}

func TestSortColumn_AllowList(t *testing.T) {
	assert.Equal(t, "email", sortColumn(user.SortEmail))
	assert.Equal(t, "created_at", sortColumn("id; DROP TABLE users"))
}
