// Package validation checks user-supplied ticker input before it reaches a provider URL.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// tickerPattern matches exchange codes such as 0050, 2330, 00878 and
// suffixed symbols such as 0050.TW or 6488.TWO.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// ValidateTicker returns an error if ticker is not a well-formed code.
func ValidateTicker(ticker string) error {
	if ticker == "" {
		return fmt.Errorf("ticker cannot be empty")
	}
	if !tickerPattern.MatchString(ticker) {
		return fmt.Errorf("invalid ticker format: %q (must be 1-12 uppercase alphanumeric chars, dots, or hyphens)", ticker)
	}
	return nil
}

// SanitizeTicker trims and upper-cases the input, then validates it.
//
//	code, err := validation.SanitizeTicker(" 0050.tw ")
//	// code == "0050.TW"
func SanitizeTicker(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if err := ValidateTicker(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ExtractCode pulls the code out of a preset label of the form "<name> (<code>)".
// A label without parentheses is returned trimmed.
func ExtractCode(label string) string {
	open := strings.LastIndex(label, "(")
	if open < 0 {
		return strings.TrimSpace(label)
	}
	rest := label[open+1:]
	if end := strings.Index(rest, ")"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// HasMarketSuffix reports whether the code already carries an exchange suffix.
func HasMarketSuffix(code string) bool {
	return strings.Contains(code, ".")
}
