package models

import (
	"fmt"
	"net/http"
	"strings"
)

// HeaderConfig is the shape of a headers.yaml config file: a flat map of
// header name to value, layered under the hardcoded defaults and over by
// -H flags (see core.HeaderManager).
type HeaderConfig struct {
	// Headers holds one value per header name, e.g. "User-Agent" ->
	// "Mozilla/5.0...".
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// CliHeaders is the raw list of -H flag values, each formatted "Name: Value".
type CliHeaders []string

// Parse converts ch into an http.Header, reporting which flag occurrence
// was malformed so the CLI error points at the actual bad argument.
func (ch CliHeaders) Parse() (http.Header, error) {
	result := make(http.Header)
	for i, s := range ch {
		name, value, err := parseHeaderString(s)
		if err != nil {
			return nil, fmt.Errorf("--header argument %d is malformed: %w", i+1, err)
		}
		result.Set(name, value)
	}
	return result, nil
}

// parseHeaderString splits "Name: Value" into its two parts.
func parseHeaderString(s string) (name, value string, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("missing ':' separator, expected 'Name: Value'")
	}

	name = strings.TrimSpace(parts[0])
	value = strings.TrimSpace(parts[1])

	if name == "" {
		return "", "", fmt.Errorf("header name must not be empty")
	}

	return name, value, nil
}

// HeaderProvider supplies the HTTP headers a crawl attaches to every
// outgoing request. HeaderManager is the only implementation.
type HeaderProvider interface {
	// GetHeaders returns the current effective headers, already merged by
	// priority (default < config < cli).
	//
	// Returns an error if the config file fails to parse or a header fails
	// validation.
	GetHeaders() (http.Header, error)
}

// ValidationError reports why a single header failed RFC 7230 validation.
type ValidationError struct {
	// Field is "name" or "value", whichever failed.
	Field string

	// HeaderName is the header that failed.
	HeaderName string

	// Reason is the human-readable cause.
	Reason string

	// Suggestion is an optional fix.
	Suggestion string
}

// Error implements error.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("header validation failed [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (suggestion: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError reports a config file that failed to load or parse.
type ConfigError struct {
	// FilePath is the config file path.
	FilePath string

	// Cause is the underlying error (e.g. a viper parse error).
	Cause error
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config file error [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap supports errors.Unwrap/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
