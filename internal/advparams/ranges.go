package advparams

import "strings"

// Range options (select-option semantics).
const (
	OptionEqual          = "EQ"
	OptionGreaterThan    = "GT"
	OptionGreaterOrEqual = "GE"
	OptionLessThan       = "LT"
	OptionLessOrEqual    = "LE"
	OptionBetween        = "BT"
	OptionContains       = "CP"
	OptionStartsWith     = "SW"
	OptionEndsWith       = "EW"
)

// Range signs: include or exclude the matched set.
const (
	SignInclude = "I"
	SignExclude = "E"
)

// ParseRangeToken parses the text of one range token into a condition.
// Grammar, checked in order: "!(x)" wraps any condition as an exclusion;
// "a...b" between; ">=", ">", "<=", "<" comparisons; "*x*" contains;
// "*x" ends-with; "x*" starts-with; "=x" explicit equals; bare text equals.
func ParseRangeToken(text string) RangeValue {
	value := text
	sign := SignInclude

	if strings.HasPrefix(value, "!(") && strings.HasSuffix(value, ")") {
		value = value[2 : len(value)-1]
		sign = SignExclude
	}

	r := RangeValue{Option: OptionEqual, Sign: sign, Text: text}

	switch {
	case strings.Contains(value, "..."):
		idx := strings.Index(value, "...")
		r.Option = OptionBetween
		r.Low = value[:idx]
		r.High = value[idx+3:]
	case strings.HasPrefix(value, ">="):
		r.Option = OptionGreaterOrEqual
		r.Low = value[2:]
	case strings.HasPrefix(value, ">"):
		r.Option = OptionGreaterThan
		r.Low = value[1:]
	case strings.HasPrefix(value, "<="):
		r.Option = OptionLessOrEqual
		r.Low = value[2:]
	case strings.HasPrefix(value, "<"):
		r.Option = OptionLessThan
		r.Low = value[1:]
	case len(value) > 1 && strings.HasPrefix(value, "*") && strings.HasSuffix(value, "*"):
		r.Option = OptionContains
		r.Low = value[1 : len(value)-1]
	case strings.HasPrefix(value, "*"):
		r.Option = OptionEndsWith
		r.Low = value[1:]
	case strings.HasSuffix(value, "*"):
		r.Option = OptionStartsWith
		r.Low = value[:len(value)-1]
	case strings.HasPrefix(value, "="):
		r.Low = value[1:]
	default:
		r.Low = value
	}

	return r
}

// FormatRangeToken renders a condition back into its token text, the
// inverse of ParseRangeToken. Unknown options render as empty text.
func FormatRangeToken(r RangeValue) string {
	var text string

	switch r.Option {
	case OptionEqual:
		text = r.Low
	case OptionGreaterThan:
		text = ">" + r.Low
	case OptionGreaterOrEqual:
		text = ">=" + r.Low
	case OptionLessThan:
		text = "<" + r.Low
	case OptionLessOrEqual:
		text = "<=" + r.Low
	case OptionContains:
		text = "*" + r.Low + "*"
	case OptionStartsWith:
		text = r.Low + "*"
	case OptionEndsWith:
		text = "*" + r.Low
	case OptionBetween:
		if r.High != "" {
			text = r.Low + "..." + r.High
		}
	}

	if r.Sign == SignExclude && text != "" {
		text = "!(" + text + ")"
	}

	return text
}

// AddRangeToken parses text and appends the resulting condition to the
// parameter's range list.
func (p *Parameter) AddRangeToken(text string) {
	p.Ranges = append(p.Ranges, ParseRangeToken(text))
}

// RemoveRangeToken removes the condition whose token text matches.
func (p *Parameter) RemoveRangeToken(text string) {
	kept := p.Ranges[:0]
	for _, r := range p.Ranges {
		if FormatRangeToken(r) != text {
			kept = append(kept, r)
		}
	}
	p.Ranges = kept
}
