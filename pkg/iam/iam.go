package iam

import (
	"net/http"

	"github.com/fieldops360/auth-service/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Authentication required")
	CodeInvalidToken = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeAccessDenied = ErrRegistry.Register("ACCESS_DENIED", errx.TypeForbidden, http.StatusForbidden, "Insufficient role for this operation")
)

func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrAccessDenied() *errx.Error {
	return ErrRegistry.New(CodeAccessDenied)
}

// ============================================================================
// Roles
// ============================================================================

// Role is a position on the single linear authority scale.
type Role string

const (
	RoleSuperAdmin     Role = "SUPER_ADMIN"
	RoleManager        Role = "MANAGER"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleSiteLeader     Role = "SITE_LEADER"
	RoleTeamMember     Role = "TEAM_MEMBER"
)

var roleLevels = map[Role]int{
	RoleSuperAdmin:     5,
	RoleManager:        4,
	RoleProjectManager: 3,
	RoleSiteLeader:     2,
	RoleTeamMember:     1,
}

// Level returns the order value of the role; unknown roles are 0.
func (r Role) Level() int {
	return roleLevels[r]
}

// IsValid reports whether r is one of the five known roles.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast grants access iff r ranks at or above min. An unknown role never
// satisfies a known minimum.
func (r Role) AtLeast(min Role) bool {
	return r.Level() >= min.Level() && r.Level() > 0
}

func (r Role) String() string {
	return string(r)
}

// AssignableRoles are the roles a tenant manager may give to users they
// create. SUPER_ADMIN is provisioned by the platform only.
func AssignableRoles() []Role {
	return []Role{RoleManager, RoleProjectManager, RoleSiteLeader, RoleTeamMember}
}
