package controller

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNameEmpty is returned when the city name is empty or whitespace-only after trim.
var ErrNameEmpty = errors.New("city name is required")

// ErrNameTooLong is returned when the city name length exceeds the maximum.
var ErrNameTooLong = errors.New("city name too long")

// ErrNameInvalidChars is returned when the city name contains disallowed characters.
var ErrNameInvalidChars = errors.New("city name contains invalid characters")

const maxNameRunes = 100

// validateCityName trims the input, enforces the length bound in runes, and
// restricts to letters (Unicode), digits, space, comma, period, apostrophe and
// hyphen. Returns the trimmed string or an error suitable for 400 responses.
func validateCityName(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrNameEmpty
	}
	if len(r) > maxNameRunes {
		return "", ErrNameTooLong
	}
	for _, c := range r {
		if !isAllowedNameRune(c) {
			return "", ErrNameInvalidChars
		}
	}
	return s, nil
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '.', '\'', '-':
		return true
	}
	return false
}
