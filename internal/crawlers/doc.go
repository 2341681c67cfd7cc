// Package crawlers implements the first two stages of KeyHunter's scan
// pipeline: WebsiteWalker, a same-origin breadth-first HTML crawler built on
// Colly, and ScriptDownloader, the shared-HTTP-client fetcher that turns a
// discovered ScriptRef into scannable source text.
//
// WebsiteWalker owns a VisitedSet (normalized-URL dedup plus a page-count
// cap) and emits every script it finds onto a caller-supplied channel.
// ScriptDownloader fetches external scripts, decompressing gzip/deflate/br
// bodies, enforcing a size cap, and deduping identical content across
// differing URLs, and passes inline scripts through untouched.
//
// Neither component retries a failed request; transient failures are
// reported once as a Diagnostic and the unit of work is abandoned.
package crawlers
