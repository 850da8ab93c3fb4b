package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrCityEmpty is returned when a city query is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("city is required")

// ErrCityTooShort is returned when a city query length is below the minimum.
var ErrCityTooShort = errors.New("city too short")

// ErrCityTooLong is returned when a city query length exceeds the maximum.
var ErrCityTooLong = errors.New("city too long")

// ErrCityInvalidChars is returned when a city query contains disallowed characters.
var ErrCityInvalidChars = errors.New("city contains invalid characters")

// ErrSearchTermEmpty is returned when a search term is empty after trim.
var ErrSearchTermEmpty = errors.New("search term is required")

// ErrSearchTermTooLong is returned when a search term exceeds the maximum length.
var ErrSearchTermTooLong = errors.New("search term too long")

// ValidateCity trims the input, enforces length bounds (minLen, maxLen in runes),
// and restricts to allowed characters: letters (Unicode), digits, space, comma, hyphen.
// Returns the trimmed string or an error suitable for 400 INVALID_CITY responses.
// Normalization (e.g. lowercase) is left to the service layer.
func ValidateCity(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrCityEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrCityTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

// ValidateSearchTerm trims the input and enforces an upper length bound.
// Search matching is substring-based downstream, so any printable characters
// are allowed.
func ValidateSearchTerm(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrSearchTermEmpty
	}
	if maxLen > 0 && len(r) > maxLen {
		return "", ErrSearchTermTooLong
	}
	return s, nil
}

// isAllowedCityRune returns true for letters (Unicode), digits, space, comma, hyphen.
func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-':
		return true
	}
	return false
}
