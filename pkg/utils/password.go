package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes the password using bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// ComparePasswords compares the bcrypt hash with its possible plaintext equivalent.
func ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// HashOTP hashes a numeric one-time code for storage alongside activation tokens.
func HashOTP(otp int64) (string, error) {
	return HashPassword(fmt.Sprintf("%d", otp))
}

// CompareOTP checks a submitted one-time code against its stored hash.
func CompareOTP(hash string, otp int64) error {
	return ComparePasswords(hash, fmt.Sprintf("%d", otp))
}
