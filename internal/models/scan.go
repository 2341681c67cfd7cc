package models

import (
	"fmt"
	"net/url"
)

// ScriptKind distinguishes how a script was discovered on a page.
type ScriptKind int

const (
	// ScriptExternal is a <script src="..."> reference that must be fetched.
	ScriptExternal ScriptKind = iota
	// ScriptInline is a <script>...</script> body embedded directly in the page.
	ScriptInline
)

func (k ScriptKind) String() string {
	switch k {
	case ScriptExternal:
		return "external"
	case ScriptInline:
		return "inline"
	default:
		return "unknown"
	}
}

// ScriptRef is one script discovered while walking a page. External refs carry
// only a URL; inline refs carry the body text plus the page that embedded it.
type ScriptRef struct {
	Kind Kind

	// URL is the absolute script URL (External) or a synthetic
	// "<page>#script-<n>" identifier (Inline).
	URL string

	// Body is the inline script text. Empty for External refs.
	Body string

	// PageURL is the page the script was discovered on.
	PageURL string

	// Index is the zero-based position of the <script> element within
	// PageURL, used to build Inline's synthetic URL.
	Index int

	// Depth is the crawl depth of the page that referenced this script.
	Depth int
}

// Kind is an alias kept for readability at call sites (models.ScriptRef{Kind: models.ScriptExternal}).
type Kind = ScriptKind

// NewInlineScriptURL builds the synthetic URL used to key an inline script.
func NewInlineScriptURL(pageURL string, index int) string {
	return fmt.Sprintf("%s#script-%d", pageURL, index)
}

// ScriptSource is a script's URL paired with its full, decoded text, ready for
// extraction. For inline scripts URL is NewInlineScriptURL's result.
type ScriptSource struct {
	URL  string
	Text string

	// SourceMapURL is the value of a trailing "//# sourceMappingURL=" comment,
	// if one was found. Advisory only, never fetched or resolved.
	SourceMapURL string
}

// Span is a half-open byte range [Start, End) into a ScriptSource's Text.
type Span struct {
	Start int
	End   int
}

// Finding is one candidate leaked secret, located precisely enough for a
// terminal diagnostic or a machine-readable report line.
type Finding struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Secret      string `json:"secret"`
	Identifier  string `json:"identifier,omitempty"`
	ScriptURL   string `json:"script_url"`
	Span        Span   `json:"span"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`

	// LineText is the single source line Span falls on, used by the default
	// reporter to render a one-line code frame. Empty for a Finding that has
	// not been through KeyExtractor (e.g. in tests constructing one by hand).
	LineText string `json:"line_text,omitempty"`
}

// Diagnostic is a non-fatal error surfaced on the same sink as Findings, so a
// reporter can show "script X could not be scanned" alongside real hits.
type Diagnostic struct {
	Kind      string `json:"kind"`
	ScriptURL string `json:"script_url,omitempty"`
	PageURL   string `json:"page_url,omitempty"`
	Message   string `json:"message"`
}

// ScanResult is either a Finding or a Diagnostic; exactly one field is set.
type ScanResult struct {
	Finding    *Finding
	Diagnostic *Diagnostic
}

// ScanConfig controls one scan's crawl breadth, pool sizing, and HTTP limits.
type ScanConfig struct {
	SeedURL  string `mapstructure:"seed_url"`
	MaxDepth int    `mapstructure:"max_depth"`
	MaxPages int    `mapstructure:"max_pages"`

	WalkerWorkers     int `mapstructure:"walker_workers"`
	DownloaderWorkers int `mapstructure:"downloader_workers"`
	ExtractorWorkers  int `mapstructure:"extractor_workers"`

	ScriptsChanCap int `mapstructure:"scripts_chan_cap"`
	SourcesChanCap int `mapstructure:"sources_chan_cap"`

	MaxScriptBytes int64 `mapstructure:"max_script_bytes"`
	RequestTimeout int    `mapstructure:"request_timeout_seconds"`

	RulesPath string `mapstructure:"rules_path"`
}

// Validate checks ScanConfig's numeric fields are within sane bounds,
// mirroring the teacher's ResourceConfig.Validate.
func (c *ScanConfig) Validate() error {
	if c.SeedURL == "" {
		return fmt.Errorf("seed URL must not be empty")
	}
	if _, err := url.Parse(c.SeedURL); err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}
	if c.MaxDepth < 0 || c.MaxDepth > 100 {
		return fmt.Errorf("max depth must be between 0 and 100, got %d", c.MaxDepth)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be >= 1, got %d", c.MaxPages)
	}
	for name, v := range map[string]int{
		"walker_workers":      c.WalkerWorkers,
		"downloader_workers":  c.DownloaderWorkers,
		"extractor_workers":   c.ExtractorWorkers,
	} {
		if v < 2 || v > 32 {
			return fmt.Errorf("%s must be between 2 and 32, got %d", name, v)
		}
	}
	if c.ScriptsChanCap < 64 {
		return fmt.Errorf("scripts_chan_cap must be >= 64, got %d", c.ScriptsChanCap)
	}
	if c.SourcesChanCap < 32 {
		return fmt.Errorf("sources_chan_cap must be >= 32, got %d", c.SourcesChanCap)
	}
	return nil
}

// ScanStats summarizes one completed scan for the reporter and logs.
type ScanStats struct {
	ID             string `json:"id"`
	PagesVisited   int    `json:"pages_visited"`
	ScriptsFetched int    `json:"scripts_fetched"`
	ScriptsInline  int    `json:"scripts_inline"`
	FindingsCount  int    `json:"findings_count"`
	Errors         int    `json:"errors"`
}
