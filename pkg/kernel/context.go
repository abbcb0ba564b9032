package kernel

// AuthContext is the verified caller identity attached to each
// authenticated request.
type AuthContext struct {
	UserID          UserID   `json:"user_id"`
	TenantID        TenantID `json:"tenant_id"`
	TenantSubdomain string   `json:"tenant_subdomain"`
	Email           string   `json:"email"`
	Role            string   `json:"role"`
}

// IsValid reports whether the context names a user, a role and a tenant.
func (ac *AuthContext) IsValid() bool {
	return ac != nil && !ac.UserID.IsEmpty() && ac.Role != "" && !ac.TenantID.IsEmpty()
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// AuthContextKey stores *AuthContext in fiber locals
	AuthContextKey ContextKey = "auth_context"

	// TenantContextKey stores the resolved tenant scope in fiber locals
	TenantContextKey ContextKey = "tenant_scope"
)
