package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reEuroDecimal = regexp.MustCompile(`,\d{1,2}$`)
	reAmountChars = regexp.MustCompile(`[^\d.,\-]`)
)

// NormalizeAmount converts a locale-formatted currency string into a plain
// decimal with two places. Handled variants: currency symbol prefix or
// suffix ("€1.234,56", "1 234,56 EUR"), comma decimal separators, and
// thousands separators in either convention.
func NormalizeAmount(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.NewReplacer("€", "", "EUR", "", "eur", "").Replace(s)
	s = reAmountChars.ReplaceAllString(s, "")
	if s == "" {
		return "", fmt.Errorf("no numeric content in %q", raw)
	}

	if reEuroDecimal.MatchString(s) {
		// European style: dot groups thousands, comma is the decimal mark.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return fmt.Sprintf("%.2f", f), nil
}
