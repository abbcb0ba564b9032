package auth

import (
	"time"

	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTService implements TokenService with RS256 access tokens.
type JWTService struct {
	keys           *KeyPair
	accessTokenTTL time.Duration
	issuer         string
	audience       string
	now            func() time.Time
}

func NewJWTService(keys *KeyPair, accessTokenTTL time.Duration, issuer, audience string) *JWTService {
	if accessTokenTTL == 0 {
		accessTokenTTL = 15 * time.Minute
	}
	if issuer == "" {
		issuer = "fieldops360-auth"
	}
	if audience == "" {
		audience = "fieldops360-api"
	}

	return &JWTService{
		keys:           keys,
		accessTokenTTL: accessTokenTTL,
		issuer:         issuer,
		audience:       audience,
		now:            time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (j *JWTService) WithClock(now func() time.Time) *JWTService {
	j.now = now
	return j
}

type jwtClaims struct {
	Email           string `json:"email"`
	Role            string `json:"role"`
	TenantID        string `json:"tenant_id"`
	TenantSubdomain string `json:"tenant_subdomain"`
	jwt.RegisteredClaims
}

func (j *JWTService) AccessTokenTTL() time.Duration {
	return j.accessTokenTTL
}

// GenerateAccessToken signs identity into a short-lived token.
func (j *JWTService) GenerateAccessToken(identity kernel.AuthContext) (string, error) {
	now := j.now()

	claims := jwtClaims{
		Email:           identity.Email,
		Role:            identity.Role,
		TenantID:        identity.TenantID.String(),
		TenantSubdomain: identity.TenantSubdomain,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Subject:   identity.UserID.String(),
			Audience:  []string{j.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(j.keys.Private)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithCause(err)
	}
	return signed, nil
}

// ValidateAccessToken verifies signature, issuer, audience and expiry, and
// rejects tokens without a subject or a role.
func (j *JWTService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(*jwt.Token) (any, error) {
		return j.keys.Public, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, ErrTokenValidationFailed().WithDetail("reason", err.Error())
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenValidationFailed().WithDetail("reason", "invalid claims")
	}
	if claims.Subject == "" {
		return nil, ErrTokenValidationFailed().WithDetail("reason", "missing subject")
	}
	if claims.Role == "" {
		return nil, ErrTokenValidationFailed().WithDetail("reason", "missing role")
	}

	out := &TokenClaims{
		ID:              claims.ID,
		UserID:          kernel.NewUserID(claims.Subject),
		Email:           claims.Email,
		Role:            iam.Role(claims.Role),
		TenantID:        kernel.NewTenantID(claims.TenantID),
		TenantSubdomain: claims.TenantSubdomain,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	out.ExpiresAt = claims.ExpiresAt.Time
	return out, nil
}
