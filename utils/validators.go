package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidEmail     = errors.New("please enter a valid email address")
	ErrNameTooShort     = errors.New("name must be at least 2 characters")
	ErrInvalidStudentID = errors.New("student ID format: 23B0310123")
)

var (
	emailPattern     = regexp.MustCompile(`^[A-Z0-9a-z._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,64}$`)
	studentIDPattern = regexp.MustCompile(`^\d{2}[A-Z]\d{7}$`)
)

func ValidateEmail(s string) error {
	if !emailPattern.MatchString(strings.TrimSpace(s)) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateName(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < 2 {
		return ErrNameTooShort
	}
	return nil
}

// ValidateStudentID expects two digits, an uppercase letter and seven digits.
func ValidateStudentID(s string) error {
	if !studentIDPattern.MatchString(strings.TrimSpace(s)) {
		return ErrInvalidStudentID
	}
	return nil
}
