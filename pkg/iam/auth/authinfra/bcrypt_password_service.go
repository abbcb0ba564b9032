package authinfra

import (
	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam/auth"
	"golang.org/x/crypto/bcrypt"
)

// BcryptPasswordService implements auth.PasswordService.
type BcryptPasswordService struct {
	cost      int
	dummyHash []byte
}

var _ auth.PasswordService = (*BcryptPasswordService)(nil)

func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// The dummy hash has the real cost so a compare against it takes as
	// long as one against a stored hash.
	dummy, err := bcrypt.GenerateFromPassword([]byte("fieldops360-dummy-password"), cost)
	if err != nil {
		panic(err)
	}
	return &BcryptPasswordService{cost: cost, dummyHash: dummy}
}

func (s *BcryptPasswordService) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", errx.Wrap(err, "failed to hash secret", errx.TypeInternal)
	}
	return string(hash), nil
}

func (s *BcryptPasswordService) Compare(hash, plain string) bool {
	if hash == "" {
		s.CompareDummy(plain)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *BcryptPasswordService) CompareDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(plain))
}
