package report

import (
	"encoding/json"
	"io"

	"github.com/DonIsaac/keyhunter/internal/models"
)

// JSONReporter emits one JSON object per line (newline-delimited JSON): a
// ScanResult per line while the scan runs, followed by a final
// {"summary": ScanStats} line. This shape lets a consumer stream results
// with a line-oriented reader instead of buffering one large array.
type JSONReporter struct {
	enc *json.Encoder
}

// NewJSONReporter builds a JSONReporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

// Result encodes whichever of res.Finding or res.Diagnostic is set,
// directly, not the ScanResult wrapper, so a line's top-level keys are the
// Finding/Diagnostic field names themselves (rule_id, secret, script_url,
// ...) rather than a wrapper object with always-present null siblings.
func (r *JSONReporter) Result(res models.ScanResult) error {
	switch {
	case res.Finding != nil:
		return r.enc.Encode(res.Finding)
	case res.Diagnostic != nil:
		return r.enc.Encode(res.Diagnostic)
	default:
		return nil
	}
}

func (r *JSONReporter) Summary(stats models.ScanStats) error {
	return r.enc.Encode(struct {
		Summary models.ScanStats `json:"summary"`
	}{Summary: stats})
}
