package organizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const maxNameLen = 120

// SanitizeName replaces characters that are unsafe in file names with '_',
// drops control characters, and truncates to maxLen runes.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')', '[', ']', '&', '\'':
		return true
	default:
		return false
	}
}

// ValidateCategoryName rejects names that would escape the board root or
// produce a hidden folder.
func ValidateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCategory)
	}
	if name != strings.TrimSpace(name) {
		return fmt.Errorf("%w: surrounding whitespace in %q", ErrInvalidCategory, name)
	}
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidCategory, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains control characters", ErrInvalidCategory, name)
		}
	}
	if len([]rune(name)) > maxNameLen {
		return fmt.Errorf("%w: %q is too long", ErrInvalidCategory, name)
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
