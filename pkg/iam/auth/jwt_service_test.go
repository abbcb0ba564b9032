package auth_test

import (
	"testing"
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeys = mustKeys()

func mustKeys() *auth.KeyPair {
	keys, err := auth.GenerateKeyPair()
	if err != nil {
		panic(err)
	}
	return keys
}

func demoIdentity() kernel.AuthContext {
	return kernel.AuthContext{
		UserID:          "u-1",
		TenantID:        "t-demo",
		TenantSubdomain: "demo",
		Email:           "manager@demo.com",
		Role:            iam.RoleManager.String(),
	}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := auth.NewJWTService(testKeys, 15*time.Minute, "", "")

	token, err := svc.GenerateAccessToken(demoIdentity())
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, kernel.UserID("u-1"), claims.UserID)
	assert.Equal(t, iam.RoleManager, claims.Role)
	assert.Equal(t, "demo", claims.TenantSubdomain)
	assert.Equal(t, kernel.TenantID("t-demo"), claims.TenantID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, claims.IssuedAt.Add(15*time.Minute), claims.ExpiresAt, time.Second)
	assert.Equal(t, 15*time.Minute, svc.AccessTokenTTL())
}

func TestJWTService_UsesRS256(t *testing.T) {
	svc := auth.NewJWTService(testKeys, time.Minute, "", "")
	token, err := svc.GenerateAccessToken(demoIdentity())
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "RS256", parsed.Method.Alg())
}

func TestJWTService_RejectsExpired(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	signer := auth.NewJWTService(testKeys, 15*time.Minute, "", "").WithClock(func() time.Time { return issued })
	token, err := signer.GenerateAccessToken(demoIdentity())
	require.NoError(t, err)

	_, err = auth.NewJWTService(testKeys, 15*time.Minute, "", "").ValidateAccessToken(token)
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, auth.CodeTokenValidationFailed))
}

func TestJWTService_RejectsOtherKey(t *testing.T) {
	other := mustKeys()
	token, err := auth.NewJWTService(other, time.Minute, "", "").GenerateAccessToken(demoIdentity())
	require.NoError(t, err)

	_, err = auth.NewJWTService(testKeys, time.Minute, "", "").ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsMalformedAndHMAC(t *testing.T) {
	svc := auth.NewJWTService(testKeys, time.Minute, "", "")

	_, err := svc.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "role": "MANAGER"})
	signed, err := hmac.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestJWTService_RequiresSubjectAndRole(t *testing.T) {
	svc := auth.NewJWTService(testKeys, time.Minute, "", "")
	now := time.Now()

	sign := func(claims jwt.MapClaims) string {
		claims["iss"] = "fieldops360-auth"
		claims["aud"] = "fieldops360-api"
		claims["exp"] = now.Add(time.Minute).Unix()
		s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(testKeys.Private)
		require.NoError(t, err)
		return s
	}

	_, err := svc.ValidateAccessToken(sign(jwt.MapClaims{"role": "MANAGER"}))
	require.Error(t, err)
	assert.Equal(t, "missing subject", errx.From(err).Details["reason"])

	_, err = svc.ValidateAccessToken(sign(jwt.MapClaims{"sub": "u-1"}))
	require.Error(t, err)
	assert.Equal(t, "missing role", errx.From(err).Details["reason"])

	_, err = svc.ValidateAccessToken(sign(jwt.MapClaims{"sub": "u-1", "role": "MANAGER"}))
	assert.NoError(t, err)
}
