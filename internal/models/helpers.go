package models

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// ValidateSeedURL checks that urlStr is an absolute http(s) URL with a host,
// the precondition WebsiteWalker.Walk requires before making any request.
func ValidateSeedURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// NewID returns a fresh random identifier for a ScanStats record.
func NewID() string {
	return uuid.New().String()
}
