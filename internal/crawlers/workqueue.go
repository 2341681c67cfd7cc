package crawlers

import (
	"net/url"
	"sort"
	"strings"
	"sync"
)

// VisitedSet is WebsiteWalker's concurrent, normalized page-visited set and
// page-count cap. Colly's own async scheduler (colly.Async + Collector.Wait)
// already solves the queue-empty-and-in-flight-zero termination problem
// correctly via its internal WaitGroup, every Visit call increments it
// before scheduling the request and decrements it only once that request's
// callbacks have all run, including any further Visit calls they make. What
// Colly's built-in dedup does NOT do safely is per-host allowlisting across
// subdomains (it rejects subdomains a caller may want to allow), so that
// check, plus the visited-URL and page-count bookkeeping used by spec
// invariants 1 and 3, lives here instead.
type VisitedSet struct {
	mu       sync.Mutex
	visited  map[string]bool
	visitedN int
	maxPages int
}

// NewVisitedSet creates a set capped at maxPages distinct pages.
func NewVisitedSet(maxPages int) *VisitedSet {
	return &VisitedSet{
		visited:  make(map[string]bool),
		maxPages: maxPages,
	}
}

// NormalizeURL strips the fragment, sorts the query, and trims a trailing
// slash so equivalent URLs compare equal in the visited set.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for i, k := range keys {
			vs := append([]string(nil), q[k]...)
			sort.Strings(vs)
			for j, v := range vs {
				if i > 0 || j > 0 {
					b.WriteByte('&')
				}
				b.WriteString(k)
				b.WriteByte('=')
				b.WriteString(v)
			}
		}
		u.RawQuery = b.String()
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// TryVisit normalizes raw and admits it into the set iff it is both unseen
// and under the page cap. Returns the normalized form and whether admission
// succeeded, callers should fetch the page only when ok is true.
func (s *VisitedSet) TryVisit(raw string) (norm string, ok bool) {
	norm, err := NormalizeURL(raw)
	if err != nil {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visited[norm] {
		return norm, false
	}
	if s.visitedN >= s.maxPages {
		return norm, false
	}
	s.visited[norm] = true
	s.visitedN++
	return norm, true
}

// Count returns the number of pages admitted so far.
func (s *VisitedSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visitedN
}

// AtCapacity reports whether the page cap has been reached.
func (s *VisitedSet) AtCapacity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visitedN >= s.maxPages
}
