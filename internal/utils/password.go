package utils

import (
	"strings"      // Character class checks
	"unicode"      // Uppercase detection
	"unicode/utf8" // Length in characters

	"golang.org/x/crypto/bcrypt" // Password hashing
)

const (
	PasswordMinLen   = 8          // Minimum password length
	PasswordMaxLen   = 16         // Maximum password length
	PasswordSpecials = "!@#$%^&*" // At least one of these is required
	passwordHashCost = bcrypt.DefaultCost
)

// PasswordProblems lists every rule the password breaks, empty when it is acceptable
func PasswordProblems(password string) []string {
	var problems []string
	if n := utf8.RuneCountInString(password); n < PasswordMinLen || n > PasswordMaxLen {
		problems = append(problems, "must be between 8 and 16 characters")
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		problems = append(problems, "must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(password, PasswordSpecials) {
		problems = append(problems, "must contain at least one special character ("+PasswordSpecials+")")
	}
	return problems
}

// IsValidPassword checks the password policy
func IsValidPassword(password string) bool {
	return len(PasswordProblems(password)) == 0
}

// HashPassword hashes a plain text password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plain text password
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
