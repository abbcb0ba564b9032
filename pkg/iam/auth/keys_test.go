package auth_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldops360/auth-service/pkg/config"
	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePEMs(t *testing.T, key *rsa.PrivateKey) (string, string) {
	t.Helper()
	dir := t.TempDir()

	privBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(privPath, privBytes, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pubBytes, 0o644))
	return privPath, pubPath
}

func TestLoadKeyPair_FromFiles(t *testing.T) {
	privPath, pubPath := writePEMs(t, testKeys.Private)

	keys, err := auth.LoadKeyPair(config.JWTConfig{PrivateKeyPath: privPath, PublicKeyPath: pubPath}, true)
	require.NoError(t, err)
	assert.False(t, keys.Ephemeral)
	assert.True(t, testKeys.Private.Equal(keys.Private))
}

func TestLoadKeyPair_DerivesPublicKey(t *testing.T) {
	privPath, _ := writePEMs(t, testKeys.Private)

	keys, err := auth.LoadKeyPair(config.JWTConfig{PrivateKeyPath: privPath, PublicKeyPath: "/does/not/exist.pem"}, true)
	require.NoError(t, err)
	assert.True(t, testKeys.Public.Equal(keys.Public))
}

func TestLoadKeyPair_RejectsMismatchedPair(t *testing.T) {
	privPath, _ := writePEMs(t, testKeys.Private)
	_, otherPub := writePEMs(t, mustKeys().Private)

	_, err := auth.LoadKeyPair(config.JWTConfig{PrivateKeyPath: privPath, PublicKeyPath: otherPub}, false)
	assert.Error(t, err)
}

func TestLoadKeyPair_MissingKeys(t *testing.T) {
	cfg := config.JWTConfig{PrivateKeyPath: "/missing/private.pem", PublicKeyPath: "/missing/public.pem"}

	_, err := auth.LoadKeyPair(cfg, true)
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, auth.CodeSigningKeyUnavailable))

	keys, err := auth.LoadKeyPair(cfg, false)
	require.NoError(t, err)
	assert.True(t, keys.Ephemeral)
	assert.NotNil(t, keys.Private)
}
