// Package report renders ScanResults as they arrive on the scan pipeline's
// sink, in one of two formats selected by the CLI's --format flag.
package report

import (
	"fmt"
	"io"

	"github.com/DonIsaac/keyhunter/internal/models"
)

// Reporter consumes one scan's results and stats. Implementations must be
// safe to call from a single goroutine only, the scanner drains its sink
// and reports serially, so there is no concurrent-access requirement.
type Reporter interface {
	// Result renders one Finding or Diagnostic as it's produced.
	Result(models.ScanResult) error

	// Summary renders the scan's final stats after the sink closes.
	Summary(models.ScanStats) error
}

// New builds the Reporter named by format ("default" or "json"), writing to
// w. An unrecognized format is a configuration error the caller should treat
// as fatal.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case "", "default":
		return NewDefaultReporter(w), nil
	case "json":
		return NewJSONReporter(w), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want \"default\" or \"json\")", format)
	}
}
