package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var nonPriceChars = regexp.MustCompile(`[^\d.,]`)

// ParsePriceNumber normalizes a displayed price text into a number.
//
// Separator rules:
//   - both comma and dot present: commas are thousands separators
//   - a single comma followed by 1-2 digits: comma is the decimal separator
//   - any other comma: thousands separator, stripped
//
// Anything unparseable yields nil.
func ParsePriceNumber(text string) *float64 {
	cleaned := strings.TrimSpace(nonPriceChars.ReplaceAllString(text, ""))
	if cleaned == "" {
		return nil
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case hasComma:
		if strings.Count(cleaned, ",") == 1 {
			left, right, _ := strings.Cut(cleaned, ",")
			if len(right) == 1 || len(right) == 2 {
				cleaned = left + "." + right
			} else {
				cleaned = left + right
			}
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &value
}
