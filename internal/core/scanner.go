package core

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DonIsaac/keyhunter/internal/crawlers"
	"github.com/DonIsaac/keyhunter/internal/keyerr"
	"github.com/DonIsaac/keyhunter/internal/keys"
	"github.com/DonIsaac/keyhunter/internal/models"
	"github.com/DonIsaac/keyhunter/internal/report"
	"github.com/DonIsaac/keyhunter/internal/utils"
	"github.com/schollz/progressbar/v3"
)

// Scanner coordinates the three-stage pipeline described by the crawl →
// fetch → extract architecture: a WebsiteWalker feeds a ScriptDownloader
// pool via scripts_chan, which feeds a KeyExtractor pool via sources_chan,
// all draining onto one results channel that the caller's Reporter renders.
// This mirrors the teacher's Crawler coordinator (static crawler feeding a
// shared file-hash table), generalized to the streaming, channel-based shape
// the pipeline needs instead of a write-everything-to-disk batch run.
type Scanner struct {
	cfg            models.ScanConfig
	headerProvider models.HeaderProvider
	catalogue      *keys.KeyCatalogue
	resource       ResourceConfig
}

// NewScanner builds a Scanner for one scan run. resourceCfg tunes the
// background ResourceMonitor that throttles the downloader pool; the zero
// value disables throttling (CPULoadThreshold <= 0).
func NewScanner(cfg models.ScanConfig, headerProvider models.HeaderProvider, catalogue *keys.KeyCatalogue, resourceCfg ResourceConfig) *Scanner {
	return &Scanner{cfg: cfg, headerProvider: headerProvider, catalogue: catalogue, resource: resourceCfg}
}

// Run drives the full pipeline to completion, calling reporter.Result for
// every Finding/Diagnostic produced and reporter.Summary once at the end. It
// returns the accumulated ScanStats plus a non-nil error only for a fatal,
// pre-flight failure (see keyerr.SeedError), per-script and per-page
// problems are non-fatal and only ever surface as Diagnostics.
func (s *Scanner) Run(reporter report.Reporter) (models.ScanStats, error) {
	stats := models.ScanStats{ID: models.NewID()}

	scripts := make(chan models.ScriptRef, s.cfg.ScriptsChanCap)
	sources := make(chan models.ScriptSource, s.cfg.SourcesChanCap)
	results := make(chan models.ScanResult, s.cfg.SourcesChanCap)

	walker := crawlers.NewWebsiteWalker(s.cfg, s.headerProvider, scripts, results)
	downloader := crawlers.NewScriptDownloader(s.cfg, s.headerProvider)
	extractor := keys.NewKeyExtractor(s.catalogue)

	monitor := crawlers.NewResourceMonitor(s.resource.CPULoadThreshold, s.resource.SafetyReserveMemoryMB)
	monitor.Start(2 * time.Second)
	defer monitor.Stop()

	var scriptsFetched, scriptsInline int64

	// Progress goes to stderr, not stdout, so it never interleaves with
	// --format json output piped from stdout.
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("scanning"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	var walkErr error
	var walkWG sync.WaitGroup
	walkWG.Add(1)
	go func() {
		defer walkWG.Done()
		defer close(scripts)
		walkErr = walker.Walk(s.cfg.SeedURL)
	}()

	var downloadWG sync.WaitGroup
	for i := 0; i < clampWorkers(s.cfg.DownloaderWorkers); i++ {
		downloadWG.Add(1)
		go func() {
			defer downloadWG.Done()
			for ref := range scripts {
				if monitor.ShouldThrottle() {
					time.Sleep(200 * time.Millisecond)
				}

				src, diagnostic := downloader.Fetch(ref)
				if diagnostic != nil {
					results <- models.ScanResult{Diagnostic: diagnostic}
					continue
				}
				if src == nil {
					// Duplicate content already seen under another URL (S6):
					// nothing to extract, nothing to report.
					continue
				}
				if ref.Kind == models.ScriptInline {
					atomic.AddInt64(&scriptsInline, 1)
				} else {
					atomic.AddInt64(&scriptsFetched, 1)
				}
				_ = bar.Add(1)
				sources <- *src
			}
		}()
	}
	go func() {
		downloadWG.Wait()
		close(sources)
	}()

	var extractWG sync.WaitGroup
	for i := 0; i < clampWorkers(s.cfg.ExtractorWorkers); i++ {
		extractWG.Add(1)
		go func() {
			defer extractWG.Done()
			for src := range sources {
				for _, res := range extractor.Extract(src) {
					results <- res
				}
			}
		}()
	}
	go func() {
		extractWG.Wait()
		close(results)
	}()

	for res := range results {
		switch {
		case res.Finding != nil:
			stats.FindingsCount++
		case res.Diagnostic != nil:
			stats.Errors++
		}
		if err := reporter.Result(res); err != nil {
			utils.Warnf("failed to write report line: %v", err)
		}
	}

	walkWG.Wait()
	_ = bar.Finish()

	stats.PagesVisited = walker.PagesVisited()
	stats.ScriptsFetched = int(atomic.LoadInt64(&scriptsFetched))
	stats.ScriptsInline = int(atomic.LoadInt64(&scriptsInline))

	if walkErr != nil {
		var seedErr *keyerr.SeedError
		if asSeedError(walkErr, &seedErr) {
			return stats, seedErr
		}
		return stats, walkErr
	}

	if err := reporter.Summary(stats); err != nil {
		utils.Warnf("failed to write summary: %v", err)
	}

	return stats, nil
}

func clampWorkers(n int) int {
	if n < crawlers.MinPoolSize {
		return crawlers.MinPoolSize
	}
	return n
}

func asSeedError(err error, target **keyerr.SeedError) bool {
	se, ok := err.(*keyerr.SeedError)
	if ok {
		*target = se
	}
	return ok
}
