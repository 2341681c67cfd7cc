// Package keys implements KeyCatalogue and KeyExtractor: the pattern engine
// that turns raw script text into Findings.
package keys

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/DonIsaac/keyhunter/internal/keyerr"
	toml "github.com/pelletier/go-toml/v2"
)

//go:embed rules/default.toml
var defaultCatalogueTOML []byte

// ruleAllowlist mirrors the upstream gitleaks-style allowlist table. Paths is
// parsed for schema completeness but never consulted, KeyHunter scans
// script text, not a filesystem.
type ruleAllowlist struct {
	Regexes   []string `toml:"regexes"`
	Paths     []string `toml:"paths"`
	Stopwords []string `toml:"stopwords"`
}

type ruleDoc struct {
	ID          string        `toml:"id"`
	Description string        `toml:"description"`
	Regex       string        `toml:"regex"`
	SecretGroup int           `toml:"secretGroup"`
	Keywords    []string      `toml:"keywords"`
	Entropy     float64       `toml:"entropy"`
	Allowlist   ruleAllowlist `toml:"allowlist"`
}

type catalogueDoc struct {
	Rules []ruleDoc `toml:"rules"`
}

// KeyRule is one compiled pattern-catalogue entry.
type KeyRule struct {
	ID          string
	Description string
	Regex       *regexp.Regexp
	SecretGroup int
	Keywords    []string // lowercased
	Entropy     float64  // 0 means "no minimum"
	Allowlist   []string // lowercased substrings
}

// matches reports a capture for one occurrence of the rule in text, after
// entropy and allowlist filtering. It does not consult the keyword
// prefilter, that happens once per script, before any rule in the set runs.
func (r *KeyRule) matches(text string) []ruleMatch {
	locs := r.Regex.FindAllStringSubmatchIndex(text, -1)
	if locs == nil {
		return nil
	}

	group := r.SecretGroup
	out := make([]ruleMatch, 0, len(locs))
	for _, loc := range locs {
		gi := 2 * group
		if gi+1 >= len(loc) || loc[gi] < 0 {
			continue
		}
		secret := text[loc[gi]:loc[gi+1]]

		lower := strings.ToLower(secret)
		allowed := false
		for _, stop := range r.Allowlist {
			if strings.Contains(lower, stop) {
				allowed = true
				break
			}
		}
		if allowed {
			continue
		}

		if r.Entropy > 0 && ShannonEntropy(secret) < r.Entropy {
			continue
		}

		out = append(out, ruleMatch{
			ruleID:      r.ID,
			description: r.Description,
			secret:      secret,
			start:       loc[gi],
			end:         loc[gi+1],
		})
	}
	return out
}

type ruleMatch struct {
	ruleID      string
	description string
	secret      string
	start, end  int
}

// KeyCatalogue is the immutable, process-wide set of compiled rules plus a
// derived multi-substring keyword index used to cheaply skip rules whose
// keywords are absent from a given script.
type KeyCatalogue struct {
	rules    []*KeyRule
	keywords []string // union of every rule's lowercased keywords
}

// LoadDefaultCatalogue parses the catalogue embedded at build time.
func LoadDefaultCatalogue() (*KeyCatalogue, error) {
	return ParseCatalogue(defaultCatalogueTOML, "embedded:rules/default.toml")
}

// ParseCatalogue decodes a gitleaks-style TOML document into a KeyCatalogue,
// compiling every rule's regex up front so a malformed catalogue fails fast
// with a precise message instead of at first use.
func ParseCatalogue(data []byte, sourcePath string) (*KeyCatalogue, error) {
	var doc catalogueDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &keyerr.ConfigError{Path: sourcePath, Cause: err}
	}
	if len(doc.Rules) == 0 {
		return nil, &keyerr.ConfigError{Path: sourcePath, Cause: fmt.Errorf("catalogue defines no rules")}
	}

	cat := &KeyCatalogue{}
	keywordSet := make(map[string]bool)

	for _, rd := range doc.Rules {
		if rd.ID == "" {
			return nil, &keyerr.ConfigError{Path: sourcePath, Cause: fmt.Errorf("rule missing id")}
		}
		re, err := regexp.Compile(rd.Regex)
		if err != nil {
			return nil, &keyerr.ConfigError{Path: sourcePath, Cause: fmt.Errorf("rule %s: invalid regex: %w", rd.ID, err)}
		}

		rule := &KeyRule{
			ID:          rd.ID,
			Description: rd.Description,
			Regex:       re,
			SecretGroup: rd.SecretGroup,
			Entropy:     rd.Entropy,
		}
		for _, kw := range rd.Keywords {
			lower := strings.ToLower(kw)
			rule.Keywords = append(rule.Keywords, lower)
			keywordSet[lower] = true
		}
		for _, sw := range rd.Allowlist.Stopwords {
			rule.Allowlist = append(rule.Allowlist, strings.ToLower(sw))
		}

		cat.rules = append(cat.rules, rule)
	}

	for kw := range keywordSet {
		cat.keywords = append(cat.keywords, kw)
	}

	return cat, nil
}

// Rules returns every rule in the catalogue. Callers must not mutate the
// returned slice or its elements.
func (c *KeyCatalogue) Rules() []*KeyRule {
	return c.rules
}

// CandidateRules returns the subset of c's rules applicable to text: rules
// with no keywords (always applicable) plus rules whose keywords overlap a
// case-insensitive substring scan of text. This is the prefilter described
// by the extractor's two-pass design, cheap enough to run before every
// script's expensive regex pass.
func (c *KeyCatalogue) CandidateRules(text string) []*KeyRule {
	lower := strings.ToLower(text)
	hit := make(map[string]bool, len(c.keywords))
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			hit[kw] = true
		}
	}

	var out []*KeyRule
	for _, r := range c.rules {
		if len(r.Keywords) == 0 {
			out = append(out, r)
			continue
		}
		for _, kw := range r.Keywords {
			if hit[kw] {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
