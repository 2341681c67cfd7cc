package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/DonIsaac/keyhunter/internal/models"
)

// DefaultReporter prints a terminal-friendly, code-frame-style line per
// Finding: where it was found, the rule that matched, and a masked preview
// of the secret rather than the raw value.
type DefaultReporter struct {
	w io.Writer
}

// NewDefaultReporter builds a DefaultReporter writing to w.
func NewDefaultReporter(w io.Writer) *DefaultReporter {
	return &DefaultReporter{w: w}
}

func (r *DefaultReporter) Result(res models.ScanResult) error {
	switch {
	case res.Finding != nil:
		return r.finding(res.Finding)
	case res.Diagnostic != nil:
		return r.diagnostic(res.Diagnostic)
	default:
		return nil
	}
}

func (r *DefaultReporter) finding(f *models.Finding) error {
	loc := fmt.Sprintf("%s:%d:%d", f.ScriptURL, f.Line, f.Column)
	ident := ""
	if f.Identifier != "" {
		ident = fmt.Sprintf(" (%s)", f.Identifier)
	}
	frame := codeFrame(f.LineText, f.Secret)
	_, err := fmt.Fprintf(r.w, "%s  %s%s\n    %s\n%s\n\n",
		loc, f.RuleID, ident, f.Description, frame)
	return err
}

// codeFrame renders a one-line, indented preview of the source line the
// secret appeared on, with the secret itself masked in place so the frame
// never prints the raw value.
func codeFrame(lineText, secret string) string {
	masked := lineText
	if secret != "" {
		masked = strings.ReplaceAll(lineText, secret, maskSecret(secret))
	}
	return "    " + strings.TrimSpace(masked)
}

func (r *DefaultReporter) diagnostic(d *models.Diagnostic) error {
	_, err := fmt.Fprintf(r.w, "warning: %s: %s\n", d.Kind, d.Message)
	return err
}

func (r *DefaultReporter) Summary(stats models.ScanStats) error {
	_, err := fmt.Fprintf(r.w,
		"pages visited: %d, scripts fetched: %d, inline scripts: %d, findings: %d, errors: %d\n",
		stats.PagesVisited, stats.ScriptsFetched, stats.ScriptsInline, stats.FindingsCount, stats.Errors)
	return err
}

// maskSecret previews a secret without printing it in full, the same
// prefix/suffix strategy the header redactor uses for long header values.
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
