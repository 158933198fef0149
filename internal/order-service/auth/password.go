package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

var commonPasswords = map[string]bool{
	"password":  true,
	"password1": true,
	"12345678":  true,
	"123456789": true,
	"qwertyui":  true,
	"qwerty123": true,
	"iloveyou":  true,
	"sunshine":  true,
	"letmein1":  true,
	"football":  true,
}

// ValidatePassword returns the first rule the password breaks, or "".
func ValidatePassword(password, username string) string {
	switch {
	case len(password) < MinPasswordLength:
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	case isNumeric(password):
		return "This password is entirely numeric."
	case commonPasswords[strings.ToLower(password)]:
		return "This password is too common."
	case username != "" && strings.EqualFold(password, username):
		return "The password is too similar to the username."
	}
	return ""
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
