package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// skippedSchemes are link schemes the walker never follows or fetches.
var skippedSchemes = map[string]bool{
	"mailto":     true,
	"javascript": true,
	"data":       true,
	"tel":        true,
	"blob":       true,
}

// allowedScriptTypes are the <script type="..."> values treated as
// JavaScript. An empty/missing type attribute also counts.
var allowedScriptTypes = map[string]bool{
	"":                        true,
	"application/javascript":  true,
	"text/javascript":         true,
	"module":                  true,
}

// pageExtraction is everything WebsiteWalker needs out of one HTML page: the
// same-origin links to follow and the scripts it references.
type pageExtraction struct {
	Links   []string
	Scripts []extractedScript
}

type extractedScript struct {
	External bool
	URL      string // absolute URL, External only
	Body     string // inline text, !External only
	Index    int
}

// extractPage parses htmlContent relative to baseURL and returns every
// same-origin-candidate link and every <script> element. Origin filtering
// itself is the caller's job (SameOrigin); this function only resolves URLs
// and applies scheme/type screens that are never origin-dependent.
func extractPage(htmlContent, baseURL string) (*pageExtraction, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	out := &pageExtraction{}
	scriptIndex := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href, ok := attr(n, "href"); ok {
					if link := resolveFollowable(base, href); link != "" {
						out.Links = append(out.Links, link)
					}
				}
			case "script":
				typ, _ := attr(n, "type")
				if !allowedScriptTypes[strings.ToLower(strings.TrimSpace(typ))] {
					scriptIndex++
					break
				}
				if src, ok := attr(n, "src"); ok {
					if link := resolveFollowable(base, src); link != "" {
						out.Scripts = append(out.Scripts, extractedScript{
							External: true,
							URL:      link,
							Index:    scriptIndex,
						})
					}
				} else if body := innerText(n); strings.TrimSpace(body) != "" {
					out.Scripts = append(out.Scripts, extractedScript{
						External: false,
						Body:     body,
						Index:    scriptIndex,
					})
				}
				scriptIndex++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

// resolveFollowable resolves href against base and returns "" for schemes
// the walker never follows (mailto, javascript, data, tel, blob) or for
// unparsable references.
func resolveFollowable(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if skippedSchemes[strings.ToLower(resolved.Scheme)] {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// SameOrigin reports whether two URLs share scheme, host, and port.
func SameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Host == b.Host
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
