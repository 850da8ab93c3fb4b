package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCity_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input, 1, 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrCityEmpty) {
				t.Errorf("error = %v, want ErrCityEmpty", err)
			}
		})
	}
}

func TestValidateCity_TooShort(t *testing.T) {
	_, err := ValidateCity("x", 2, 100)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrCityTooShort) {
		t.Errorf("error = %v, want ErrCityTooShort", err)
	}
}

func TestValidateCity_TooLong(t *testing.T) {
	_, err := ValidateCity(strings.Repeat("a", 101), 1, 100)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrCityTooLong) {
		t.Errorf("error = %v, want ErrCityTooLong", err)
	}
}

func TestValidateCity_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "ludhi/ana"},
		{"backslash", "ludhi\\ana"},
		{"question", "ludhi?ana"},
		{"hash", "ludhi#ana"},
		{"control", "ludhi\x00ana"},
		{"percent", "ludhi%ana"},
		{"ampersand", "ludhi&ana"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input, 1, 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrCityInvalidChars) {
				t.Errorf("error = %v, want ErrCityInvalidChars", err)
			}
		})
	}
}

func TestValidateCity_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantNorm string
	}{
		{"simple", "Ludhiana", "Ludhiana"},
		{"with space", "New York", "New York"},
		{"comma", "London,uk", "London,uk"},
		{"hyphen", "Some-City", "Some-City"},
		{"trimmed", "  Amritsar  ", "Amritsar"},
		{"unicode", "Zürich", "Zürich"},
		{"digits", "Area51", "Area51"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateCity(tc.input, 1, 100)
			if err != nil {
				t.Fatalf("ValidateCity() err = %v", err)
			}
			if got != tc.wantNorm {
				t.Errorf("normalized = %q, want %q", got, tc.wantNorm)
			}
		})
	}
}

func TestValidateCity_LengthBoundaries(t *testing.T) {
	// Exactly min length
	got, err := ValidateCity("ab", 2, 100)
	if err != nil {
		t.Fatalf("min boundary: err = %v", err)
	}
	if got != "ab" {
		t.Errorf("min boundary: got %q", got)
	}
	// Exactly max length (100 runes)
	s100 := strings.Repeat("a", 100)
	got, err = ValidateCity(s100, 1, 100)
	if err != nil {
		t.Fatalf("max boundary: err = %v", err)
	}
	if len([]rune(got)) != 100 {
		t.Errorf("max boundary: rune count = %d, want 100", len([]rune(got)))
	}
	// One over max
	_, err = ValidateCity(s100+"a", 1, 100)
	if err == nil || !errors.Is(err, ErrCityTooLong) {
		t.Errorf("over max: err = %v, want ErrCityTooLong", err)
	}
}

func TestValidateSearchTerm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxLen  int
		want    string
		wantErr error
	}{
		{"simple", "courage", 200, "courage", nil},
		{"trimmed", "  freedom  ", 200, "freedom", nil},
		{"punctuation allowed", "what's past?", 200, "what's past?", nil},
		{"empty", "", 200, "", ErrSearchTermEmpty},
		{"whitespace only", "   ", 200, "", ErrSearchTermEmpty},
		{"too long", strings.Repeat("q", 201), 200, "", ErrSearchTermTooLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateSearchTerm(tc.input, tc.maxLen)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateSearchTerm() err = %v", err)
			}
			if got != tc.want {
				t.Errorf("term = %q, want %q", got, tc.want)
			}
		})
	}
}
