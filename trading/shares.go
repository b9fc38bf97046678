package trading

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseShares parses a share count typed into a form. Leading zeros are
// ignored; anything other than ASCII digits, and zero itself, is rejected.
func ParseShares(s string) (int64, error) {
	digits := strings.TrimLeft(strings.TrimSpace(s), "0")
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidShareCount, s)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidShareCount, s)
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidShareCount, s, err)
	}
	return n, nil
}
