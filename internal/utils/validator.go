package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/DonIsaac/keyhunter/internal/models"
)

const (
	// MaxHeaderValueLength is the largest value a caller-supplied header may
	// carry, 8KiB, well above any real User-Agent or bearer token.
	MaxHeaderValueLength = 8192
)

var (
	// ForbiddenHeaders are names the HTTP client itself owns; letting a
	// caller override them would desync the request from what the client
	// actually sends (e.g. a stale Content-Length after header merging).
	ForbiddenHeaders = []string{
		"Host",
		"Content-Length",
		"Transfer-Encoding",
		"Connection",
	}
)

// HeaderValidator checks a caller-supplied -H header against RFC 7230
// before it ever reaches an outgoing request. KeyHunter sends arbitrary
// operator-provided headers to sites it doesn't control, validating them up
// front turns a malformed --header flag into a clear CLI error instead of a
// confusing transport-level failure deep in ScriptDownloader.
type HeaderValidator struct {
	// nameRegex matches a legal header name (letters, digits, hyphens).
	nameRegex *regexp.Regexp

	// valueRegex matches a legal header value (printable ASCII plus tab).
	valueRegex *regexp.Regexp

	// maxValueLength bounds a header value's length in bytes.
	maxValueLength int

	// forbiddenHeaders holds ForbiddenHeaders, lowercased, for lookup.
	forbiddenHeaders map[string]bool
}

// NewHeaderValidator builds a validator with KeyHunter's RFC 7230 rules.
func NewHeaderValidator() *HeaderValidator {
	forbidden := make(map[string]bool)
	for _, h := range ForbiddenHeaders {
		forbidden[strings.ToLower(h)] = true
	}

	return &HeaderValidator{
		nameRegex:        regexp.MustCompile(`^[A-Za-z0-9-]+$`),
		valueRegex:       regexp.MustCompile(`^[\x20-\x7E\t]*$`),
		maxValueLength:   MaxHeaderValueLength,
		forbiddenHeaders: forbidden,
	}
}

// ValidateName reports whether name is a legal header name.
func (hv *HeaderValidator) ValidateName(name string) error {
	if name == "" {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "header name must not be empty",
		}
	}

	if !hv.nameRegex.MatchString(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "header name contains illegal characters (only letters, digits, and hyphens are allowed)",
			Suggestion: "use letters, digits, and hyphens, e.g. 'User-Agent', 'X-Custom-Header'",
		}
	}

	return nil
}

// ValidateValue reports whether value is a legal header value for name.
func (hv *HeaderValidator) ValidateValue(name, value string) error {
	if len(value) > hv.maxValueLength {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("header value too long: %d bytes (max %d)", len(value), hv.maxValueLength),
			Suggestion: fmt.Sprintf("shorten the value to under %d bytes", hv.maxValueLength),
		}
	}

	if !hv.valueRegex.MatchString(value) {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "header value contains illegal characters (only printable ASCII is allowed)",
			Suggestion: "remove control characters and non-ASCII characters",
		}
	}

	return nil
}

// ValidateHeader validates a name/value pair together, checking the
// forbidden-header list first since that failure has a different
// suggestion than a malformed name or value.
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if hv.IsForbidden(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "this header is managed by the HTTP client and cannot be overridden",
			Suggestion: fmt.Sprintf("remove the '%s' header", name),
		}
	}

	if err := hv.ValidateName(name); err != nil {
		return err
	}

	if err := hv.ValidateValue(name, value); err != nil {
		return err
	}

	return nil
}

// IsForbidden reports whether name is on the forbidden-header list.
func (hv *HeaderValidator) IsForbidden(name string) bool {
	return hv.forbiddenHeaders[strings.ToLower(name)]
}

// Validate validates every name/value pair in headers, returning the first
// ValidationError encountered.
func (hv *HeaderValidator) Validate(headers http.Header) error {
	for name, values := range headers {
		for _, value := range values {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
