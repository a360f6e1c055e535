package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt digest for storage.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPassword reports whether password matches the stored digest.
func CheckPassword(digest []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(digest, []byte(password)) == nil
}
