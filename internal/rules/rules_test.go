package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFiscalYear(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		skipEmpty bool
		want      bool
	}{
		{"four digit year", "2024", false, true},
		{"too short", "204", false, false},
		{"leading zero", "0999", false, false},
		{"empty in full mode", "", false, false},
		{"empty in skip mode", "", true, true},
		{"non numeric", "20A4", false, false},
		{"too long", "20245", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidFiscalYear(tt.value, tt.skipEmpty))
		})
	}
}

func TestValidDocumentNumber(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		skipEmpty bool
		want      bool
	}{
		{"alphanumeric", "INV4711", false, true},
		{"underscore allowed", "doc_1", false, true},
		{"dash rejected", "doc-1", false, false},
		{"space rejected", "doc 1", false, false},
		{"empty in full mode", "", false, false},
		{"empty in skip mode", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDocumentNumber(tt.value, tt.skipEmpty))
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "john.doe+tag@sub.example.org"}
	invalid := []string{"notanemail", "a@", "@b.com", "a b@c.com", ""}

	for _, v := range valid {
		assert.True(t, ValidEmail(v), v)
	}
	for _, v := range invalid {
		assert.False(t, ValidEmail(v), v)
	}
}

func TestSplitRecipients(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"mixed separators", "a@b.com; c@d.com,notanemail", []string{"a@b.com", "c@d.com", "notanemail"}},
		{"duplicates dropped", "a@b.com a@b.com;a@b.com", []string{"a@b.com"}},
		{"empty input", "", []string{}},
		{"separators only", " ,; ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitRecipients(tt.raw))
		})
	}
}

func TestValidateDatePair(t *testing.T) {
	d := func(s string) *time.Time {
		v, err := time.ParseInLocation("20060102", s, time.UTC)
		require.NoError(t, err)
		return &v
	}

	assert.Equal(t, DatePairOutOfOrder, ValidateDatePair(d("20240601"), d("20240101")))
	assert.Equal(t, DatePairValid, ValidateDatePair(d("20240101"), d("20240601")))
	assert.Equal(t, DatePairValid, ValidateDatePair(d("20240101"), d("20240101")))
	assert.Equal(t, DatePairValid, ValidateDatePair(nil, d("20240101")))
	assert.Equal(t, DatePairValid, ValidateDatePair(d("20240101"), nil))
	assert.Equal(t, DatePairValid, ValidateDatePair(nil, nil))
}

func TestAbapDateFormat(t *testing.T) {
	d := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "20240601", FormatAbapDate(&d))
	assert.Equal(t, "00000000", FormatAbapDate(nil))

	parsed := ParseAbapDate("20240601")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *parsed)

	assert.Nil(t, ParseAbapDate(""))
	assert.Nil(t, ParseAbapDate("00000000"))
	assert.Nil(t, ParseAbapDate("2024"))
	assert.Nil(t, ParseAbapDate("20241341"))
}
