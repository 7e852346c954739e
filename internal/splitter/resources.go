package splitter

import (
	"bytes"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuanying/epubsplit/internal/epub"
)

var (
	cssCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cssImportRe  = regexp.MustCompile(`@import\s+(?:url\(\s*)?["']?([^"'()\s;]+)["']?\s*\)?`)
	cssURLRe     = regexp.MustCompile(`url\(\s*["']?([^"')]+)["']?\s*\)`)
)

// resourceScanner discovers the same-archive resources a content document
// depends on: src/xlink:href targets, linked stylesheets, and transitively
// the stylesheets' own imports and url() references. One scanner accumulates
// the closure for a whole write operation, deduplicated by normalized href.
type resourceScanner struct {
	reader  *epub.Reader
	closure map[string]struct{}
	visited map[string]struct{} // stylesheets already scanned, guards @import cycles
}

func newResourceScanner(reader *epub.Reader) *resourceScanner {
	return &resourceScanner{
		reader:  reader,
		closure: make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// scanContent records every resource referenced by one content document.
// href is the document's own normalized path; relative references resolve
// against its directory.
func (s *resourceScanner) scanContent(href string, content []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		log.Printf("warning: resource scan of %s failed: %v", href, err)
		return
	}

	baseDir := epub.BaseDir(href)

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			for _, attr := range node.Attr {
				// The HTML parser splits xlink:href inside SVG content into
				// namespace "xlink" + key "href".
				isRef := attr.Key == "src" ||
					attr.Key == "xlink:href" ||
					(attr.Namespace == "xlink" && attr.Key == "href")
				if isRef && !isExternalRef(attr.Val) {
					s.add(epub.ResolveHref(baseDir, attr.Val))
				}
			}
		}
	})

	doc.Find("link[href]").Each(func(_ int, sel *goquery.Selection) {
		v, _ := sel.Attr("href")
		if isExternalRef(v) || !strings.HasSuffix(strings.ToLower(v), ".css") {
			return
		}
		cssPath := epub.ResolveHref(baseDir, v)
		s.add(cssPath)
		s.scanStylesheet(cssPath)
	})
}

// scanStylesheet records a stylesheet's imports and url() references and
// recurses into imported stylesheets. A missing or unreadable stylesheet is
// skipped, not fatal.
func (s *resourceScanner) scanStylesheet(cssPath string) {
	if _, seen := s.visited[cssPath]; seen {
		return
	}
	s.visited[cssPath] = struct{}{}

	css, err := s.reader.ReadText(cssPath)
	if err != nil {
		log.Printf("warning: stylesheet %s unreadable, skipping: %v", cssPath, err)
		return
	}

	// Strip comments first so commented-out references are not collected.
	css = cssCommentRe.ReplaceAllString(css, "")
	baseDir := epub.BaseDir(cssPath)

	for _, m := range cssImportRe.FindAllStringSubmatch(css, -1) {
		if isExternalRef(m[1]) {
			continue
		}
		imported := epub.ResolveHref(baseDir, m[1])
		s.add(imported)
		s.scanStylesheet(imported)
	}
	for _, m := range cssURLRe.FindAllStringSubmatch(css, -1) {
		if isExternalRef(m[1]) {
			continue
		}
		s.add(epub.ResolveHref(baseDir, strings.TrimSpace(m[1])))
	}
}

func (s *resourceScanner) add(href string) {
	if href != "" {
		s.closure[href] = struct{}{}
	}
}

// isExternalRef reports whether a reference leaves the archive: absolute
// http(s) URLs and inline data URIs are never separate archive entries.
func isExternalRef(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:")
}
