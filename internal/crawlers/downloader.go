package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/DonIsaac/keyhunter/internal/keyerr"
	"github.com/DonIsaac/keyhunter/internal/models"
	"github.com/andybalholm/brotli"
)

// jsSniffKeywords are the tokens used to content-sniff a response body that
// doesn't carry a JavaScript Content-Type, sites sometimes serve real JS
// behind a wrong content type or a non-2xx status.
var jsSniffKeywords = []string{
	"function", "var ", "let ", "const ", "=>", "class ", "import ", "export",
}

const sniffSampleSize = 1024

// isValidJavaScript reports whether body looks like JavaScript, first
// trusting an explicit Content-Type and otherwise sampling the first 1KB for
// at least two JS-shaped keywords.
func isValidJavaScript(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "javascript") || strings.Contains(ct, "ecmascript") {
		return true
	}

	sample := body
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
	}
	lower := strings.ToLower(string(sample))

	hits := 0
	for _, kw := range jsSniffKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits >= 2
}

// decompressResponse inflates body per the given Content-Encoding. An
// unrecognized encoding is returned unchanged, the caller still attempts to
// use it rather than discard a response outright.
func decompressResponse(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return io.ReadAll(r)
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	default:
		return body, nil
	}
}

// findSourceMapURL returns the value of a trailing "//# sourceMappingURL="
// comment, resolved against scriptURL, or "" if none is present. The map is
// never fetched, only surfaced as advisory metadata.
func findSourceMapURL(scriptURL, text string) string {
	idx := strings.LastIndex(text, "sourceMappingURL=")
	if idx == -1 {
		return ""
	}
	start := idx + len("sourceMappingURL=")
	rest := text[start:]
	end := strings.IndexAny(rest, "\n\r \t")
	if end == -1 {
		end = len(rest)
	}
	ref := strings.TrimSpace(rest[:end])
	if ref == "" {
		return ""
	}
	base, err := url.Parse(scriptURL)
	if err != nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}

// ScriptDownloader fetches external scripts with a shared HTTP client and
// passes inline scripts through unchanged, per the pipeline's second stage.
type ScriptDownloader struct {
	client         *http.Client
	headerProvider models.HeaderProvider
	maxBytes       int64

	mu          sync.Mutex
	seenContent map[string]bool // sha256 hex -> seen, for cross-URL dedup (S6)
}

// NewScriptDownloader builds a downloader sharing one *http.Client (with
// cookie jar) across every fetch in the scan, per the pipeline's shared-
// resources contract.
func NewScriptDownloader(cfg models.ScanConfig, headerProvider models.HeaderProvider) *ScriptDownloader {
	jar, _ := cookiejar.New(nil)
	return &ScriptDownloader{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		headerProvider: headerProvider,
		maxBytes:       cfg.MaxScriptBytes,
		seenContent:    make(map[string]bool),
	}
}

// Fetch resolves ref to a ScriptSource. Inline refs pass through unchanged;
// external refs are fetched, decompressed, size-capped, and UTF-8 decoded.
// A non-nil Diagnostic means the ref was a non-fatal ScriptError: the caller
// should surface it and move on, not treat Fetch as having failed fatally.
func (d *ScriptDownloader) Fetch(ref models.ScriptRef) (*models.ScriptSource, *models.Diagnostic) {
	if ref.Kind == models.ScriptInline {
		return &models.ScriptSource{URL: ref.URL, Text: ref.Body}, nil
	}

	req, err := http.NewRequest(http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, diag(ref.URL, &keyerr.ScriptError{URL: ref.URL, Reason: "invalid request", Cause: err})
	}
	if d.headerProvider != nil {
		if headers, err := d.headerProvider.GetHeaders(); err == nil {
			for name, values := range headers {
				if len(values) > 0 {
					req.Header.Set(name, values[0])
				}
			}
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, diag(ref.URL, &keyerr.ScriptError{URL: ref.URL, Reason: "fetch failed", Cause: err})
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, d.maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, diag(ref.URL, &keyerr.ScriptError{URL: ref.URL, Reason: "read failed", Cause: err})
	}
	if int64(len(body)) > d.maxBytes {
		return nil, diag(ref.URL, &keyerr.ScriptError{URL: ref.URL, Reason: "exceeded size cap"})
	}

	if enc := resp.Header.Get("Content-Encoding"); enc != "" {
		if decoded, err := decompressResponse(enc, body); err == nil {
			body = decoded
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isValidJavaScript(contentType, body) && !strings.Contains(strings.ToLower(contentType), "html") {
		// Advisory only: scan it anyway. Many sites mislabel JS as
		// text/plain or octet-stream behind a CDN; dropping it here would
		// silently lose findings rather than just risk a false positive.
	}

	hash := sha256.Sum256(body)
	hashHex := hex.EncodeToString(hash[:])
	d.mu.Lock()
	dup := d.seenContent[hashHex]
	d.seenContent[hashHex] = true
	d.mu.Unlock()
	if dup {
		return nil, nil
	}

	text := strings.ToValidUTF8(string(body), "�")

	return &models.ScriptSource{
		URL:          ref.URL,
		Text:         text,
		SourceMapURL: findSourceMapURL(ref.URL, text),
	}, nil
}

func diag(url string, cause error) *models.Diagnostic {
	return &models.Diagnostic{Kind: "script_error", ScriptURL: url, Message: cause.Error()}
}
