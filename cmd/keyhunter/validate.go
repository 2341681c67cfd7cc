package main

import (
	"fmt"

	"github.com/DonIsaac/keyhunter/internal/models"
)

// validateFlags checks the CLI surface's own invariants before any network
// call is made, the same "fail before dialing out" ordering as the
// teacher's ValidateFlags.
func validateFlags(seedURL string, maxDepth, maxPages int, format string) error {
	if err := models.ValidateSeedURL(seedURL); err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}
	if maxDepth < 0 || maxDepth > 100 {
		return fmt.Errorf("--max-depth must be between 0 and 100, got %d", maxDepth)
	}
	if maxPages < 0 {
		return fmt.Errorf("--max-pages must be >= 0, got %d", maxPages)
	}
	switch format {
	case "", "default", "json":
	default:
		return fmt.Errorf("--format must be \"default\" or \"json\", got %q", format)
	}
	return nil
}
