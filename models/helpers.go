package models

import (
	"fmt"
	"strings"
	"unicode"
)

// AllModels lists every table for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&LawyerProfile{},
		&ClientProfile{},
		&Session{},
		&Case{},
		&CaseUpdate{},
		&CaseRequest{},
		&Appointment{},
		&Folder{},
		&Document{},
		&Thread{},
		&Message{},
		&Invoice{},
		&Notification{},
	}
}

// Initials returns the first letter of the first and last word of name
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	first := firstLetter(words[0])
	if len(words) == 1 {
		return first
	}
	return first + firstLetter(words[len(words)-1])
}

func firstLetter(word string) string {
	for _, r := range word {
		return string(unicode.ToUpper(r))
	}
	return ""
}

// FormatDecimal renders cents as a plain decimal string, e.g. 15050 -> "150.50".
// The JSON API exchanges money in this form.
func FormatDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
