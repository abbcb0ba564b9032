package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io/fs"
	"os"

	"github.com/fieldops360/auth-service/pkg/config"
	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/golang-jwt/jwt/v5"
)

const ephemeralKeyBits = 2048

// KeyPair signs and verifies access tokens. Ephemeral is set when the
// pair was generated at startup and tokens will not survive a restart.
type KeyPair struct {
	Private   *rsa.PrivateKey
	Public    *rsa.PublicKey
	Ephemeral bool
}

// LoadKeyPair reads the PEM key pair named by cfg. Inline PEM wins over
// paths, and a missing public key is derived from the private one. With no
// private key at all, production fails and any other environment gets an
// ephemeral pair and a warning.
func LoadKeyPair(cfg config.JWTConfig, production bool) (*KeyPair, error) {
	privPEM, err := readPEM(cfg.PrivateKeyPEM, cfg.PrivateKeyPath)
	if err != nil {
		return nil, errx.Wrap(err, "failed to read private key", errx.TypeInternal)
	}
	pubPEM, err := readPEM(cfg.PublicKeyPEM, cfg.PublicKeyPath)
	if err != nil {
		return nil, errx.Wrap(err, "failed to read public key", errx.TypeInternal)
	}

	if privPEM == nil {
		if production {
			return nil, ErrSigningKeyUnavailable().
				WithDetail("private_key_path", cfg.PrivateKeyPath)
		}
		logx.WithField("private_key_path", cfg.PrivateKeyPath).
			Warn("JWT keys not found, generating an ephemeral RSA key pair (development only)")
		return GenerateKeyPair()
	}

	private, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, errx.Wrap(err, "invalid RSA private key", errx.TypeInternal)
	}

	public := &private.PublicKey
	if pubPEM != nil {
		public, err = jwt.ParseRSAPublicKeyFromPEM(pubPEM)
		if err != nil {
			return nil, errx.Wrap(err, "invalid RSA public key", errx.TypeInternal)
		}
		if !private.PublicKey.Equal(public) {
			return nil, errx.New("public key does not match private key", errx.TypeInternal)
		}
	}

	return &KeyPair{Private: private, Public: public}, nil
}

// GenerateKeyPair creates an ephemeral pair.
func GenerateKeyPair() (*KeyPair, error) {
	private, err := rsa.GenerateKey(rand.Reader, ephemeralKeyBits)
	if err != nil {
		return nil, errx.Wrap(err, "failed to generate RSA key", errx.TypeInternal)
	}
	return &KeyPair{Private: private, Public: &private.PublicKey, Ephemeral: true}, nil
}

// readPEM returns nil, nil when neither source is set or the file is absent.
func readPEM(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}
