package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashes.
const BcryptCost = 10

// HashPassword derives a salted bcrypt hash; every call uses a fresh salt.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	return string(b), err
}

// VerifyPassword reports whether plain matches the stored hash.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword("trajectfit-dummy-password")
	return h
})

// BurnVerification spends the same effort as VerifyPassword against a throwaway
// hash. Used when no account matches so both login failures cost the same.
func BurnVerification(plain string) {
	_ = VerifyPassword(plain, dummyHash())
}
