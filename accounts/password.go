package accounts

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 20
	// passwordSymbols are the only non-alphanumeric characters a password may use.
	passwordSymbols = "@$!%*#?&"
)

// ValidatePassword enforces 8-20 characters drawn from letters, digits and
// passwordSymbols, with at least one of each class.
func ValidatePassword(pw string) error {
	if n := utf8.RuneCountInString(pw); n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("%w: length must be between %d and %d", ErrWeakPassword, minPasswordLen, maxPasswordLen)
	}
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return fmt.Errorf("%w: character %q not allowed", ErrWeakPassword, r)
		}
	}
	if !lower || !upper || !digit || !symbol {
		return fmt.Errorf("%w: needs a lowercase letter, an uppercase letter, a digit and one of %s", ErrWeakPassword, passwordSymbols)
	}
	return nil
}
