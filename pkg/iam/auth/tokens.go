package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/fieldops360/auth-service/pkg/errx"
)

// RandomTokenGenerator produces opaque refresh and reset tokens.
type RandomTokenGenerator struct {
	bytes int
}

func NewRandomTokenGenerator(bytes int) *RandomTokenGenerator {
	if bytes < 32 {
		bytes = 32
	}
	return &RandomTokenGenerator{bytes: bytes}
}

// Generate returns hex-encoded random bytes.
func (g *RandomTokenGenerator) Generate() (string, error) {
	buf := make([]byte, g.bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to read random bytes", errx.TypeInternal)
	}
	return hex.EncodeToString(buf), nil
}

// LookupDigest is the indexed fingerprint of an opaque token. It only
// locates the row; the slow hash decides.
func LookupDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
