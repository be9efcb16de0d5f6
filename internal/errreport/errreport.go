// Package errreport surfaces backend failures to the client: at most one
// generic error is open at a time (later ones are dropped until the first is
// dismissed), and well-known backend error codes classify into the field
// they concern.
package errreport

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Backend error codes with dedicated handling.
const (
	CodeCompanyNotFound  = "FIN_CORR/040"
	CodeCustomerNotFound = "F5/102"
	CodeVendorNotFound   = "FIN_CORR/041"
	CodeGenericException = "/IWBEP/CX_MGW_BUSI_EXCEPTION"
)

// TextGenericError is shown when the backend gives no usable message.
const TextGenericError = "Sorry, a technical error occurred. Please try again later."

// Report is one surfaced error.
type Report struct {
	Text    string `json:"text"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Reporter holds the single open error slot of one session.
type Reporter struct {
	mu      sync.Mutex
	open    bool
	current Report
	logger  zerolog.Logger
}

// New creates an error reporter.
func New(logger zerolog.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Show surfaces an error. While one is already open the new one is dropped
// and Show reports false.
func (r *Reporter) Show(report Report) bool {
	if report.Text == "" {
		report.Text = TextGenericError
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.open {
		r.logger.Debug().Str("text", report.Text).Msg("error dropped, another is open")
		return false
	}
	r.open = true
	r.current = report
	r.logger.Warn().Str("text", report.Text).Str("code", report.Code).Msg("error surfaced")
	return true
}

// Current returns the open error, if any.
func (r *Reporter) Current() (Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.open
}

// Dismiss closes the open error so the next failure can surface.
func (r *Reporter) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	r.current = Report{}
}

// serviceError is the backend's JSON failure envelope.
type serviceError struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// ParseServiceError extracts the code and message from a backend failure
// body. Unparsable bodies yield the generic text with the raw body attached
// as details.
func ParseServiceError(body []byte) Report {
	var parsed serviceError
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message.Value == "" {
		return Report{Text: TextGenericError, Details: string(body)}
	}
	return Report{
		Text: parsed.Error.Message.Value,
		Code: parsed.Error.Code,
	}
}

// IsCompanyNotFound reports whether a failure body carries the
// company-not-found code.
func IsCompanyNotFound(body []byte) bool {
	var parsed serviceError
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false
	}
	return parsed.Error.Code == CodeCompanyNotFound
}

// IsCustomerError reports whether code marks an invalid customer.
func IsCustomerError(code string) bool {
	return code == CodeCustomerNotFound
}

// IsVendorError reports whether code marks an invalid vendor.
func IsVendorError(code string) bool {
	return code == CodeVendorNotFound
}

// IsGenericException reports whether code is the catch-all backend
// exception that carries no field information.
func IsGenericException(code string) bool {
	return code == CodeGenericException
}
