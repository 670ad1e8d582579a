package services

import (
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 8

var commonPasswords = map[string]bool{
	"password":   true,
	"password1":  true,
	"12345678":   true,
	"123456789":  true,
	"qwertyuiop": true,
	"iloveyou":   true,
	"letmein1":   true,
}

// ValidatePassword rejects short, common, or purely numeric passwords
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return NewValidationError("This password is too short. It must contain at least 8 characters.")
	}
	if commonPasswords[strings.ToLower(password)] {
		return NewValidationError("This password is too common.")
	}

	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return NewValidationError("This password is entirely numeric.")
	}
	return nil
}
