// Package iam (Identity and Access Management) holds the role scale and the
// shared IAM error registry of the FieldOps360 auth service.
//
// # Overview
//
// The iam package is organized into sub-packages that work together:
//
//   - iam/auth            RS256 access tokens, refresh and reset secrets, bearer middleware
//   - iam/auth/authsrv    login, refresh, logout, forgot and reset password
//   - iam/auth/authapi    HTTP handlers for the auth flows
//   - iam/user            User entity, patches, list filter, repository port
//   - iam/user/usersrv    user directory and self-service profile
//   - iam/user/userapi    HTTP handlers for /users and /me
//   - iam/iamcontainer    wires the above into one module
//
// # Architecture
//
//	HTTP Handler  →  Service Layer  →  tenant.Scope  →  user.Repository (Postgres/Memory)
//
// Every request names its tenant in the X-Tenant-ID header. tenant.Middleware
// resolves it once and hands the handler a Scope whose store is the tenant's
// own database. Services never see a connection string.
//
// # Roles
//
// Authorization is a single ordered scale:
//
//	SUPER_ADMIN > MANAGER > PROJECT_MANAGER > SITE_LEADER > TEAM_MEMBER
//
// A route that requires a role admits every role ranked at or above it.
// SUPER_ADMIN is provisioned by the platform and cannot be assigned through
// the API.
//
// # Middleware
//
// Protect a route group:
//
//	users := router.Group("/users", tenantScope, mw.Authenticate())
//	users.Post("/", mw.RequireRole(iam.RoleManager), h.Create)
//
// Read the authenticated context inside a handler:
//
//	authCtx, ok := auth.GetAuthContext(c)
//	if !ok { ... }
//	fmt.Println(authCtx.UserID, authCtx.TenantID, authCtx.Role)
//
// A token is only honoured inside the tenant it was issued for.
//
// # ──────────────────────────────────────────────────────
// # ENDPOINT REFERENCE
// # ──────────────────────────────────────────────────────
//
// All routes live under /api/auth/v1. Success bodies are wrapped as
//
//	{ "success": true, "data": ..., "meta": ... }
//
// and failures as
//
//	{ "success": false, "error": { "code": "...", "message": "...", "details": {...} } }
//
// ### POST /login
//
//	{ "email": "manager@demo.com", "password": "Manager@2026" }
//
// Response 200:
//
//	{
//	  "access_token":  "<jwt>",
//	  "refresh_token": "<hex>",
//	  "token_type":    "Bearer",
//	  "expires_in":    900,
//	  "user": { "id": "...", "email": "...", "first_name": "...", "last_name": "...", "role": "MANAGER", "avatar_url": null }
//	}
//
// Error responses: 400 (validation), 401 (invalid credentials),
// 403 (account disabled, tenant not found or suspended), 423 (account locked)
//
// ### POST /refresh
//
//	{ "refresh_token": "<hex>" }
//
// Returns a new token pair. The presented refresh token stops working.
//
// ### POST /logout
//
// Bearer token required. Revokes the stored refresh token. Response 204.
//
// ### POST /forgot-password
//
//	{ "email": "..." }
//
// Always answers 200 with the same message, known address or not.
//
// ### POST /reset-password
//
//	{ "token": "<hex>", "new_password": "...", "new_password_confirmation": "..." }
//
// Resets the password and clears any lockout. A reset code works once.
//
// ### GET /users
//
// PROJECT_MANAGER or above. Query: page, limit, role, active, search, sort, order.
//
// ### POST /users, PUT /users/:id, PATCH /users/:id/status
//
// MANAGER or above.
//
// ### GET /me, PUT /me, PUT /me/password
//
// Any authenticated user, on their own record.
package iam
