// Package rules holds the pure, stateless field validators and formatters
// shared by the validation orchestrator and the email sub-form.
package rules

import (
	"regexp"
	"time"
)

var (
	documentNumberPattern = regexp.MustCompile(`^\w+$`)
	fiscalYearPattern     = regexp.MustCompile(`^[1-9][0-9]{3}$`)
	numberPattern         = regexp.MustCompile(`^\d+$`)
	emailPattern          = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	separatorPattern      = regexp.MustCompile(`[,; ]+`)
)

// ValidDocumentNumber reports whether value is a well-formed document number.
// Empty values are valid when skipEmpty is set.
func ValidDocumentNumber(value string, skipEmpty bool) bool {
	if value == "" {
		return skipEmpty
	}
	return documentNumberPattern.MatchString(value)
}

// ValidFiscalYear reports whether value is a four-digit year not starting
// with zero. Empty values are valid when skipEmpty is set.
func ValidFiscalYear(value string, skipEmpty bool) bool {
	if value == "" {
		return skipEmpty
	}
	return fiscalYearPattern.MatchString(value)
}

// ValidNumber reports whether value consists of digits only.
func ValidNumber(value string) bool {
	return numberPattern.MatchString(value)
}

// ValidEmail reports whether value is a plausible email address.
func ValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// SplitRecipients splits a raw recipient input on the configured separators
// (comma, semicolon, space), dropping empty fragments and duplicates within
// the input while preserving order.
func SplitRecipients(raw string) []string {
	parts := separatorPattern.Split(raw, -1)
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// DatePairResult classifies the outcome of validating a (date1, date2) pair.
type DatePairResult int

const (
	DatePairValid DatePairResult = iota
	// DatePairOutOfOrder means both dates are present and the second
	// precedes the first; both fields must be flagged with the shared
	// range message.
	DatePairOutOfOrder
)

// ValidateDatePair checks the ordering of two optional dates. Individual
// presence requirements are the caller's concern; this only detects an
// inverted range.
func ValidateDatePair(date1, date2 *time.Time) DatePairResult {
	if date1 != nil && date2 != nil && date2.Before(*date1) {
		return DatePairOutOfOrder
	}
	return DatePairValid
}

// FormatAbapDate renders a date as the 8-digit yyyyMMdd form used by the
// backend, or "00000000" when absent.
func FormatAbapDate(t *time.Time) string {
	if t == nil {
		return "00000000"
	}
	return t.UTC().Format("20060102")
}

// ParseAbapDate parses an 8-digit yyyyMMdd string. Returns nil for empty,
// zero ("00000000") or malformed input.
func ParseAbapDate(s string) *time.Time {
	if len(s) != 8 || s == "00000000" {
		return nil
	}
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}
