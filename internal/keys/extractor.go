package keys

import (
	"sort"
	"strings"

	"github.com/DonIsaac/keyhunter/internal/keyerr"
	"github.com/DonIsaac/keyhunter/internal/models"
)

// KeyExtractor turns one script's text into Findings using a two-pass
// design: a cheap keyword prefilter narrows the catalogue down to the rules
// that could possibly match, then each surviving rule's regex runs over the
// full text. Identifier enrichment is a third, independent pass, it only
// runs for rules that actually matched, and never changes whether a match is
// reported.
type KeyExtractor struct {
	catalogue *KeyCatalogue
}

// NewKeyExtractor builds an extractor bound to catalogue. The same
// KeyExtractor is safe for concurrent use across extractor worker goroutines
// since KeyCatalogue is read-only after construction.
func NewKeyExtractor(catalogue *KeyCatalogue) *KeyExtractor {
	return &KeyExtractor{catalogue: catalogue}
}

// Extract scans src and returns ScanResults in ascending (span start, rule
// ID) order, each wrapping exactly one Finding. A per-rule panic or regex
// failure is never expected from the standard library's regexp package, so
// unlike PageError/ScriptError this pass has no recoverable failure mode of
// its own; ExtractError exists for completeness should a future rule engine
// need it.
func (x *KeyExtractor) Extract(src models.ScriptSource) []models.ScanResult {
	candidates := x.catalogue.CandidateRules(src.Text)
	if len(candidates) == 0 {
		return nil
	}

	type located struct {
		finding models.Finding
	}
	var all []located
	seen := make(map[string]bool)

	var tokens []token
	var tokensBuilt bool
	lazyTokens := func() []token {
		if !tokensBuilt {
			tokens = tokenize(src.Text)
			tokensBuilt = true
		}
		return tokens
	}

	for _, rule := range candidates {
		matches := rule.matches(src.Text)
		for _, m := range matches {
			key := dedupKey(m.ruleID, m.secret, m.start, m.end)
			if seen[key] {
				continue
			}
			seen[key] = true

			line, col := lineColumn(src.Text, m.start)
			finding := models.Finding{
				RuleID:      m.ruleID,
				Description: m.description,
				Secret:      m.secret,
				Identifier:  enclosingIdentifier(lazyTokens(), m.start),
				ScriptURL:   src.URL,
				Span:        models.Span{Start: m.start, End: m.end},
				Line:        line,
				Column:      col,
				LineText:    sourceLine(src.Text, m.start),
			}
			all = append(all, located{finding: finding})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i].finding, all[j].finding
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		return a.RuleID < b.RuleID
	})

	out := make([]models.ScanResult, 0, len(all))
	for _, l := range all {
		f := l.finding
		out = append(out, models.ScanResult{Finding: &f})
	}
	return out
}

func dedupKey(ruleID, secret string, start, end int) string {
	var b strings.Builder
	b.WriteString(ruleID)
	b.WriteByte('\x00')
	b.WriteString(secret)
	b.WriteByte('\x00')
	writeInt(&b, start)
	b.WriteByte('\x00')
	writeInt(&b, end)
	return b.String()
}

func writeInt(b *strings.Builder, n int) {
	if n == 0 {
		b.WriteByte('0')
		return
	}
	if n < 0 {
		b.WriteByte('-')
		n = -n
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	b.Write(digits[i:])
}

// lineColumn converts a byte offset into 1-based line and column numbers,
// matching the convention terminal diagnostics and editors expect.
func lineColumn(text string, offset int) (line, col int) {
	line, col = 1, 1
	if offset > len(text) {
		offset = len(text)
	}
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// sourceLine returns the text of the line containing offset, trimmed of its
// surrounding newline. Used to build the default reporter's code frame.
func sourceLine(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := strings.IndexByte(text[offset:], '\n')
	if end == -1 {
		end = len(text)
	} else {
		end += offset
	}
	return text[start:end]
}

// diagFromParseFailure wraps a ParseError as the Diagnostic shape shared by
// every non-fatal error in the pipeline. Kept here rather than in keyerr so
// keyerr stays free of any models dependency.
func diagFromParseFailure(url string, err error) models.ScanResult {
	pe := &keyerr.ParseError{URL: url, Cause: err}
	return models.ScanResult{Diagnostic: &models.Diagnostic{
		Kind:      "parse_error",
		ScriptURL: url,
		Message:   pe.Error(),
	}}
}
