// Package goquery provides a goquery-based link extractor for
// discovering additional documentation pages on the same site.
package goquery

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/qagen"
)

// Ensure LinkExtractor implements qagen.LinkExtractor at compile time.
var _ qagen.LinkExtractor = (*LinkExtractor)(nil)

// skipExtensions lists asset suffixes that never hold documentation text.
var skipExtensions = map[string]bool{
	".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".ico": true, ".css": true, ".js": true,
	".woff": true, ".woff2": true, ".mp4": true, ".webm": true,
}

// LinkExtractor extracts same-host documentation links from HTML.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks parses HTML and returns absolute same-host URLs in
// document order, deduplicated, with fragments stripped. Links to
// other hosts, non-HTTP schemes, and binary assets are skipped.
func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, qagen.Errorf(qagen.EINVALID, "invalid base URL %q: %v", baseURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if resolved.Host != base.Host {
			return
		}
		if skipExtensions[strings.ToLower(path.Ext(resolved.Path))] {
			return
		}

		resolved.Fragment = ""
		u := resolved.String()
		if seen[u] {
			return
		}
		seen[u] = true
		links = append(links, u)
	})

	return links, nil
}
