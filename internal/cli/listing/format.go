package listing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FormatUSD renders cents as US dollars, e.g. 123456 -> "$1,234.56"
func FormatUSD(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	dollars := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range dollars {
		if i > 0 && (len(dollars)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}

// ParseUSD converts a dollar amount such as "1,234.50" or "$80" to cents,
// rounding to the nearest cent
func ParseUSD(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return 0, fmt.Errorf("price is required")
	}

	usd, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(usd) || math.IsInf(usd, 0) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if usd < 0 {
		return 0, fmt.Errorf("price must not be negative")
	}

	return int64(math.Round(usd * 100)), nil
}

// IsUUID reports whether s is a canonical hyphenated UUID
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
