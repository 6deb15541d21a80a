package auth

import (
	"golang.org/x/crypto/bcrypt"

	"wishwall/internal/support"
)

// CheckOperatorCredentials compares a login attempt against the configured
// operator account. ADMIN_PASSWORD_HASH holds a bcrypt hash; when it is unset
// the operator surface cannot be logged into.
func CheckOperatorCredentials(username, password string) bool {
	expectedUser := support.GetEnv("ADMIN_USERNAME", "admin")
	expectedHash := support.GetEnv("ADMIN_PASSWORD_HASH", "")
	if expectedHash == "" || username != expectedUser {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(expectedHash), []byte(password)) == nil
}

// HashPassword is used by tooling and tests to produce operator hashes.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
