// Package money interprets free-form, locale-ambiguous price strings.
//
// Upstream operators type prices in either European ("1.200,50") or
// Anglo ("1,200.50") conventions with no locale hint, so the separator
// roles are resolved from the string's own structure. This package is the
// single source of truth for price interpretation: validation and payload
// assembly must both go through Parse.
package money

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	keepChars     = regexp.MustCompile(`[^\d.,\-\s]`)
	whitespace    = regexp.MustCompile(`\s+`)
	thousandsLike = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
)

// Parse converts a price string to a float64, returning NaN when the input
// is empty or not interpretable as a number.
//
// When both '.' and ',' occur, the one appearing last is the decimal point
// and all occurrences of the other are grouping. A lone ',' is always the
// decimal point. A lone '.' is grouping only when the string matches a
// strict thousands pattern ("2.000" -> 2000, but "2.00" -> 2.00).
func Parse(input string) float64 {
	s := strings.TrimSpace(input)
	if s == "" {
		return math.NaN()
	}
	s = keepChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasDot:
		if thousandsLike.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// Valid reports whether a parsed amount is usable as a price: finite and
// strictly positive.
func Valid(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0) && n > 0
}
