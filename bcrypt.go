package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt cost used for new hashes. Tests drop
// it to bcrypt.MinCost to keep suites fast.
var PasswordHashCost = 14

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password. Malformed digests report as a
// plain mismatch so storage corruption cannot distinguish accounts.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatchedHashAndPassword
	}
	return nil
}
