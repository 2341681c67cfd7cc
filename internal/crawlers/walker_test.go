package crawlers

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/DonIsaac/keyhunter/internal/models"
)

func testConfig(seed string) models.ScanConfig {
	return models.ScanConfig{
		SeedURL:           seed,
		MaxDepth:          5,
		MaxPages:          100,
		WalkerWorkers:     MinPoolSize,
		DownloaderWorkers: MinPoolSize,
		ExtractorWorkers:  MinPoolSize,
		ScriptsChanCap:    64,
		SourcesChanCap:    32,
		MaxScriptBytes:    5 * 1024 * 1024,
		RequestTimeout:    10,
	}
}

// TestWebsiteWalkerSameOriginOnly verifies that pages on another origin are
// never visited, matching invariant 3 (every crawled page shares the seed's
// origin).
func TestWebsiteWalkerSameOriginOnly(t *testing.T) {
	var other *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<a href="/b.html">b</a>
			<a href="` + other.URL + `/c.html">external</a>
			<script src="/app.js"></script>
			<script>const AWS_KEY = "inline";</script>
		</body></html>`))
	})
	mux.HandleFunc("/b.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>visited b</body></html>`))
	})
	mux.HandleFunc("/app.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(`var x = 1;`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	otherMux := http.NewServeMux()
	otherMux.HandleFunc("/c.html", func(w http.ResponseWriter, r *http.Request) {
		t.Error("walker must never fetch a cross-origin page")
	})
	other = httptest.NewServer(otherMux)
	defer other.Close()

	scripts := make(chan models.ScriptRef, 16)
	results := make(chan models.ScanResult, 16)

	cfg := testConfig(srv.URL)
	w := NewWebsiteWalker(cfg, nil, scripts, results)

	if err := w.Walk(srv.URL); err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	close(scripts)

	var urls []string
	for ref := range scripts {
		urls = append(urls, ref.URL)
	}
	sort.Strings(urls)

	if len(urls) != 2 {
		t.Fatalf("expected 2 scripts, got %d: %v", len(urls), urls)
	}
	if w.PagesVisited() != 2 {
		t.Errorf("expected 2 pages visited (seed + /b.html), got %d", w.PagesVisited())
	}
}

// TestWebsiteWalkerMaxDepth verifies links beyond max depth are not followed.
func TestWebsiteWalkerMaxDepth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="/deep">deep</a></body></html>`))
	})
	mux.HandleFunc("/deep", func(w http.ResponseWriter, r *http.Request) {
		t.Error("depth-0 walk must not follow any links")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	scripts := make(chan models.ScriptRef, 16)
	results := make(chan models.ScanResult, 16)
	cfg := testConfig(srv.URL)
	cfg.MaxDepth = 0

	w := NewWebsiteWalker(cfg, nil, scripts, results)
	if err := w.Walk(srv.URL); err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	close(scripts)

	if w.PagesVisited() != 1 {
		t.Errorf("expected exactly 1 page visited with max depth 0, got %d", w.PagesVisited())
	}
}

// TestWebsiteWalkerSeedFailurePagesVisitedZero verifies that a seed which
// responds with a server error leaves PagesVisited at 0, even though the
// seed URL was already admitted into the visited set before the request was
// attempted. This is what lets the caller distinguish "nothing was ever
// fetched" from "the crawl legitimately found nothing to do."
func TestWebsiteWalkerSeedFailurePagesVisitedZero(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	scripts := make(chan models.ScriptRef, 16)
	results := make(chan models.ScanResult, 16)
	cfg := testConfig(srv.URL)

	w := NewWebsiteWalker(cfg, nil, scripts, results)
	if err := w.Walk(srv.URL); err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	close(scripts)

	if w.PagesVisited() != 0 {
		t.Errorf("expected 0 pages visited after a 500 seed response, got %d", w.PagesVisited())
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips fragment", "https://example.com/a#frag", "https://example.com/a"},
		{"sorts query params", "https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"trims trailing slash", "https://example.com/a/", "https://example.com/a"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if err != nil {
				t.Fatalf("NormalizeURL returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
