package crawlers

import (
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/DonIsaac/keyhunter/internal/keyerr"
	"github.com/DonIsaac/keyhunter/internal/models"
	"github.com/DonIsaac/keyhunter/internal/utils"
	"github.com/gocolly/colly/v2"
)

// WebsiteWalker performs the same-origin breadth-first crawl described by
// the pipeline's first stage: it discovers every HTML page reachable from a
// seed URL and emits every script those pages reference.
//
// It is built on Colly the way the teacher's StaticCrawler is, but domain
// and depth admission are decided entirely in the callbacks below rather
// than via colly.AllowedDomains, because AllowedDomains rejects subdomains
// a caller may legitimately want to treat as the same site.
type WebsiteWalker struct {
	collector  *colly.Collector
	visited    *VisitedSet
	maxDepth   int
	seedOrigin string
	seedHost   string
	fetched    int64 // pages with a successful HTTP response, distinct from admission count

	headerProvider models.HeaderProvider
	scripts        chan<- models.ScriptRef
	results        chan<- models.ScanResult
}

// NewWebsiteWalker builds a walker scoped to one scan. scripts receives every
// discovered ScriptRef; results receives non-fatal PageError diagnostics.
// Both channels are left open by the walker, the caller closes scripts once
// Walk returns.
func NewWebsiteWalker(cfg models.ScanConfig, headerProvider models.HeaderProvider, scripts chan<- models.ScriptRef, results chan<- models.ScanResult) *WebsiteWalker {
	c := colly.NewCollector(colly.Async(true))
	c.SetRequestTimeout(time.Duration(cfg.RequestTimeout) * time.Second)

	workers := cfg.WalkerWorkers
	if workers < MinPoolSize {
		workers = MinPoolSize
	}
	_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: workers})

	return &WebsiteWalker{
		collector:      c,
		visited:        NewVisitedSet(cfg.MaxPages),
		maxDepth:       cfg.MaxDepth,
		headerProvider: headerProvider,
		scripts:        scripts,
		results:        results,
	}
}

// Walk crawls starting from seedURL until the visited set is exhausted, the
// page cap is reached, or every in-flight request completes with no more
// work queued, Colly's own WaitGroup-backed Async scheduler guarantees that
// last property, so Walk itself does not need to reimplement it.
func (w *WebsiteWalker) Walk(seedURL string) error {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return &keyerr.SeedError{URL: seedURL, Cause: err}
	}
	if seed.Scheme != "http" && seed.Scheme != "https" {
		return &keyerr.SeedError{URL: seedURL, Cause: fmt.Errorf("unsupported scheme %q", seed.Scheme)}
	}
	w.seedOrigin = seed.Scheme + "://" + seed.Host
	w.seedHost = seed.Host

	w.setupCallbacks()

	if norm, ok := w.visited.TryVisit(seedURL); ok {
		if err := w.collector.Visit(norm); err != nil {
			return &keyerr.SeedError{URL: seedURL, Cause: err}
		}
	}
	w.collector.Wait()
	return nil
}

func (w *WebsiteWalker) setupCallbacks() {
	w.collector.OnRequest(func(r *colly.Request) {
		if r.URL.Scheme+"://"+r.URL.Host != w.seedOrigin {
			r.Abort()
			return
		}
		if w.headerProvider != nil {
			if headers, err := w.headerProvider.GetHeaders(); err != nil {
				utils.Warnf("failed to load request headers: %v", err)
			} else {
				for name, values := range headers {
					if len(values) > 0 {
						r.Headers.Set(name, values[0])
					}
				}
			}
		}
	})

	w.collector.OnError(func(r *colly.Response, err error) {
		w.emitResult(models.ScanResult{Diagnostic: &models.Diagnostic{
			Kind:    "page_error",
			PageURL: r.Request.URL.String(),
			Message: (&keyerr.PageError{URL: r.Request.URL.String(), Cause: err}).Error(),
		}})
	})

	w.collector.OnResponse(func(r *colly.Response) {
		atomic.AddInt64(&w.fetched, 1)

		contentType := r.Headers.Get("Content-Type")
		if !strings.Contains(strings.ToLower(contentType), "html") {
			return
		}

		page, err := extractPage(string(r.Body), r.Request.URL.String())
		if err != nil {
			w.emitResult(models.ScanResult{Diagnostic: &models.Diagnostic{
				Kind:    "page_error",
				PageURL: r.Request.URL.String(),
				Message: (&keyerr.PageError{URL: r.Request.URL.String(), Cause: err}).Error(),
			}})
			return
		}

		depth := r.Request.Depth
		pageURL := r.Request.URL.String()

		for _, link := range page.Links {
			linkURL, err := url.Parse(link)
			if err != nil || linkURL.Scheme+"://"+linkURL.Host != w.seedOrigin {
				continue
			}
			if depth+1 > w.maxDepth {
				continue
			}
			norm, ok := w.visited.TryVisit(link)
			if !ok {
				continue
			}
			if err := r.Request.Visit(norm); err != nil {
				utils.Debugf("failed to visit %s: %v", norm, err)
			}
		}

		for _, s := range page.Scripts {
			if s.External {
				w.scripts <- models.ScriptRef{
					Kind:    models.ScriptExternal,
					URL:     s.URL,
					PageURL: pageURL,
					Index:   s.Index,
					Depth:   depth,
				}
			} else {
				w.scripts <- models.ScriptRef{
					Kind:    models.ScriptInline,
					URL:     models.NewInlineScriptURL(pageURL, s.Index),
					Body:    s.Body,
					PageURL: pageURL,
					Index:   s.Index,
					Depth:   depth,
				}
			}
		}
	})
}

func (w *WebsiteWalker) emitResult(res models.ScanResult) {
	if w.results == nil {
		return
	}
	select {
	case w.results <- res:
	default:
		// Diagnostics are best-effort; a full results channel never blocks
		// the crawl waiting for a reader to drain it.
	}
}

// PagesVisited returns how many pages were successfully fetched during the
// walk. This is distinct from the visited set's admission count: a seed that
// fails at the network level (scenario: seed returns 5xx) is admitted into
// the visited set before the request is attempted, but never receives a
// response, so PagesVisited stays 0 and the caller can tell "nothing was
// fetched" apart from "the crawl legitimately found nothing to do."
func (w *WebsiteWalker) PagesVisited() int {
	return int(atomic.LoadInt64(&w.fetched))
}
