package splitter

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/yuanying/epubsplit/internal/epub"
)

// sampleLimit bounds the preview text attached to each split point.
const sampleLimit = 1500

// SplitPoint is one addressable unit in the flattened, anchor-aware reading
// sequence. Within one spine item at most one point has an empty Anchor (the
// item's own start); anchored points follow in document order.
type SplitPoint struct {
	Labels    []string // navigation labels describing this point
	Guide     *epub.GuideRef
	Anchor    string // "" for the document's own start
	ID        string // manifest id of the spine item
	Href      string // normalized document path
	MediaType string
	Sample    string // bounded preview of the content at this point
}

// buildSplitPoints fuses spine order with the navigation map into the flat
// split-point catalog. Run once per Book; the result is treated as immutable.
func buildSplitPoints(reader *epub.Reader, opf *epub.OPF, nav epub.NavMap) ([]SplitPoint, error) {
	var points []SplitPoint

	for _, idref := range opf.Spine {
		item, ok := opf.Manifest[idref]
		if !ok {
			return nil, &epub.StructureError{
				Path:   reader.OPFPath(),
				Reason: "spine itemref " + idref + " has no manifest entry",
			}
		}

		raw, err := reader.ReadText(item.Href)
		if err != nil {
			log.Printf("warning: preview for %s unavailable: %v", item.Href, err)
			raw = ""
		}

		cur := SplitPoint{
			ID:        item.ID,
			Href:      item.Href,
			MediaType: item.MediaType,
			Sample:    truncateSample(raw),
		}
		if g, ok := opf.Guide[item.Href]; ok {
			guide := g
			cur.Guide = &guide
		}

		for _, entry := range nav[item.Href] {
			if entry.Anchor == "" {
				// Describes the whole document, which the current point
				// already represents.
				cur.Labels = append(cur.Labels, entry.Label)
				continue
			}
			points = append(points, cur)
			cur = SplitPoint{
				Labels:    []string{entry.Label},
				Anchor:    entry.Anchor,
				ID:        item.ID,
				Href:      item.Href,
				MediaType: item.MediaType,
				Sample:    anchorSample(raw, entry.Anchor),
			}
		}
		points = append(points, cur)
	}
	return points, nil
}

// anchorSample returns a bounded preview starting at the first id= or name=
// attribute matching anchor. Detection is textual, not a markup parse; no
// match yields an empty sample.
func anchorSample(raw, anchor string) string {
	best := -1
	for _, pattern := range []string{
		`id="` + anchor + `"`,
		`id='` + anchor + `'`,
		`name="` + anchor + `"`,
		`name='` + anchor + `'`,
	} {
		if idx := strings.Index(raw, pattern); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	if best < 0 {
		return ""
	}
	return truncateSample(raw[best:])
}

// truncateSample bounds s to sampleLimit bytes on a rune boundary, marking
// truncation with an ellipsis.
func truncateSample(s string) string {
	if len(s) <= sampleLimit {
		return s
	}
	cut := sampleLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
