// services/password.go
package services

import "golang.org/x/crypto/bcrypt"

// BcryptHasher implements PasswordHasher with bcrypt at the default cost.
type BcryptHasher struct{}

func (BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (BcryptHasher) Compare(digest, plaintext string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
}
