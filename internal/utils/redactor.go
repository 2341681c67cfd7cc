package utils

import (
	"net/http"
	"strings"
)

var (
	// SensitiveKeywords names the header-name substrings that mark a header
	// as worth redacting before it's logged. A tool whose whole job is
	// catching leaked secrets has no business leaking the operator's own
	// Authorization or API key into its debug log.
	SensitiveKeywords = []string{
		"authorization",
		"token",
		"key",
		"secret",
		"password",
		"credential",
		"api-key",
	}
)

// HeaderRedactor masks sensitive HTTP header values before they reach a log
// line, the same way KeyExtractor masks a Secret before it reaches a
// reporter line.
type HeaderRedactor struct {
	sensitiveKeywords []string
}

// NewHeaderRedactor builds a redactor using SensitiveKeywords.
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{
		sensitiveKeywords: SensitiveKeywords,
	}
}

// IsSensitiveHeader reports whether name's lowercased form contains any
// sensitive keyword.
func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range hr.sensitiveKeywords {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue masks value if name is sensitive, picking the strategy
// that preserves the most diagnostic value without exposing the secret.
func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}

	// Bearer tokens: keep the scheme, mask the token.
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}

	// Long values: keep a short prefix/suffix so two different keys are
	// still distinguishable in a log without revealing either one.
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}

	// Anything too short to partially mask safely is hidden entirely.
	return "***"
}

// Redact returns headers as a string map with every sensitive value masked,
// for use in log lines.
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string)
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}

		value := values[0]
		if hr.IsSensitiveHeader(name) {
			result[name] = hr.RedactHeaderValue(name, value)
		} else {
			result[name] = value
		}
	}
	return result
}

// RedactToString formats Redact's result as "Header1: value1, Header2:
// value2, ...", for a single debug log line.
func (hr *HeaderRedactor) RedactToString(headers http.Header) string {
	redacted := hr.Redact(headers)
	var parts []string
	for name, value := range redacted {
		parts = append(parts, name+": "+value)
	}
	return strings.Join(parts, ", ")
}
