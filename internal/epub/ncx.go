package epub

import (
	"encoding/xml"
	"fmt"
	"slices"
	"strings"
)

// ncxRoot represents the NCX XML structure.
type ncxRoot struct {
	XMLName xml.Name `xml:"ncx"`
	NavMap  struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

// ncxNavPoint represents a navPoint element, possibly nested.
type ncxNavPoint struct {
	NavLabel struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

// ParseNCX parses the legacy navigation document into a NavMap. ncxPath is
// the normalized path of the NCX file; content srcs are resolved against its
// directory. Nesting depth does not matter for addressing: every navPoint at
// any depth contributes one entry to its target document, in document order.
func ParseNCX(content []byte, ncxPath string) (NavMap, error) {
	var root ncxRoot
	if err := xml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("failed to parse NCX %s: %w", ncxPath, err)
	}

	nav := make(NavMap)
	addNavPoints(nav, root.NavMap.NavPoints, BaseDir(ncxPath))
	return nav, nil
}

// addNavPoints walks navPoints depth-first in document order, recording one
// NavEntry per point.
func addNavPoints(nav NavMap, points []ncxNavPoint, baseDir string) {
	for _, np := range points {
		path, fragment := SplitFragment(np.Content.Src)
		if strings.TrimSpace(path) != "" {
			href := ResolveHref(baseDir, path)
			nav.add(href, NavEntry{
				Label:  strings.TrimSpace(np.NavLabel.Text),
				Anchor: fragment,
			})
		}
		addNavPoints(nav, np.Children, baseDir)
	}
}

// add records an entry for href. Anchor-free entries describe the whole
// document and are inserted ahead of every anchored entry already recorded;
// anchored entries append. This is an ordered insertion, not a sort: document
// order among entries of the same kind is preserved.
func (m NavMap) add(href string, e NavEntry) {
	entries := m[href]
	if e.Anchor == "" {
		i := 0
		for i < len(entries) && entries[i].Anchor == "" {
			i++
		}
		entries = slices.Insert(entries, i, e)
	} else {
		entries = append(entries, e)
	}
	m[href] = entries
}
