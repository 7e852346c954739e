package splitter

import (
	"archive/zip"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yuanying/epubsplit/internal/epub"
)

// Fixed names inside the output archive. The container descriptor always
// points at opfName, whatever the source package document was called.
const (
	opfName = "content.opf"
	ncxName = "toc.ncx"
)

// WriteOptions carries the metadata overrides for one output archive. Empty
// fields fall back to the source book's metadata.
type WriteOptions struct {
	Title       string
	Authors     []string
	Description string
	Tags        []string
	Languages   []string
	CoverPath   string // filesystem path of an image to inject as cover
}

// stagedFile is one content document selected for the output, with its
// synthetic manifest id.
type stagedFile struct {
	id        string
	href      string
	mediaType string
	data      []byte
}

// navTarget is one regenerated navigation entry.
type navTarget struct {
	label string
	src   string // href, plus #anchor when the split point carries one
}

// WriteSplit assembles a new EPUB at outputPath from the split points named
// by indices, in the given order. All indices are validated up front; the
// resource closure is computed before any bytes are written because the zip
// stream is append-only. A failure partway through leaves an invalid file at
// outputPath; the caller cleans up.
func (b *Book) WriteSplit(outputPath string, indices []int, opts WriteOptions) error {
	points, err := b.SplitPoints()
	if err != nil {
		return err
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(points) {
			return &IndexError{Index: idx, Max: len(points) - 1}
		}
	}

	title := opts.Title
	if title == "" {
		title = b.Title()
	}
	authors := opts.Authors
	if len(authors) == 0 {
		authors = b.Authors()
	}
	languages := opts.Languages
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	description := opts.Description
	if description == "" {
		description = "Sections split from " + b.Title()
	}

	// Stage content and compute the full resource closure first.
	scanner := newResourceScanner(b.reader)
	var contents []stagedFile
	staged := make(map[string]struct{})
	var navTargets []navTarget

	for _, idx := range indices {
		p := points[idx]
		if _, ok := staged[p.Href]; !ok {
			staged[p.Href] = struct{}{}
			data, err := b.readContent(p.Href)
			if err != nil {
				return err
			}
			contents = append(contents, stagedFile{
				id:        fmt.Sprintf("split%04d", len(contents)),
				href:      p.Href,
				mediaType: p.MediaType,
				data:      data,
			})
			scanner.scanContent(p.Href, data)
		}

		label := title
		if len(p.Labels) > 0 {
			label = p.Labels[0]
		}
		src := p.Href
		if p.Anchor != "" {
			src += "#" + p.Anchor
		}
		navTargets = append(navTargets, navTarget{label: label, src: src})
	}

	// Resources, minus anything already staged as content, in a
	// deterministic order.
	var resourceHrefs []string
	for href := range scanner.closure {
		if _, ok := staged[href]; !ok {
			resourceHrefs = append(resourceHrefs, href)
		}
	}
	sort.Strings(resourceHrefs)

	var coverData []byte
	if opts.CoverPath != "" {
		coverData, err = loadCoverImage(opts.CoverPath)
		if err != nil {
			return err
		}
	}

	uid := newUID()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer out.Close()
	zw := zip.NewWriter(out)

	// The mimetype entry must come first and stay uncompressed for reader
	// compatibility.
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("failed to write mimetype: %w", err)
	}
	if _, err := mw.Write([]byte(epub.MimetypeEPUB)); err != nil {
		return fmt.Errorf("failed to write mimetype: %w", err)
	}

	if err := writeEntry(zw, "META-INF/container.xml", []byte(containerXML)); err != nil {
		return err
	}

	for _, c := range contents {
		if err := writeEntry(zw, c.href, c.data); err != nil {
			return err
		}
	}

	// A single unreadable decorative resource does not block the rest of
	// the book.
	var resources []stagedFile
	for _, href := range resourceHrefs {
		data, err := b.reader.ReadBytes(href)
		if err != nil {
			log.Printf("warning: skipping unreadable resource %s: %v", href, err)
			continue
		}
		res := stagedFile{
			id:        fmt.Sprintf("res%04d", len(resources)),
			href:      href,
			mediaType: b.mediaTypeFor(href),
		}
		if err := writeEntry(zw, href, data); err != nil {
			return err
		}
		resources = append(resources, res)
	}

	hasCover := coverData != nil
	opf := buildOPF(opfMeta{
		uid:         uid,
		title:       title,
		authors:     authors,
		description: description,
		tags:        opts.Tags,
		languages:   languages,
		hasCover:    hasCover,
	}, contents, resources)
	if err := writeEntry(zw, opfName, []byte(opf)); err != nil {
		return err
	}

	ncx := buildNCX(uid, title, navTargets)
	if err := writeEntry(zw, ncxName, []byte(ncx)); err != nil {
		return err
	}

	if hasCover {
		if err := writeEntry(zw, coverImageName, coverData); err != nil {
			return err
		}
		if err := writeEntry(zw, coverPageName, []byte(coverPageXHTML)); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", outputPath, err)
	}
	return out.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// mediaTypeFor returns the media type for a discovered resource: the source
// manifest's declaration when there is one, otherwise a guess from the file
// extension.
func (b *Book) mediaTypeFor(href string) string {
	for _, item := range b.opf.Manifest {
		if item.Href == href {
			return item.MediaType
		}
	}
	return guessMediaType(href)
}

var extMediaTypes = map[string]string{
	"css":   "text/css",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"png":   "image/png",
	"gif":   "image/gif",
	"svg":   "image/svg+xml",
	"ttf":   "font/ttf",
	"otf":   "font/otf",
	"woff":  "font/woff",
	"woff2": "font/woff2",
}

func guessMediaType(href string) string {
	if i := strings.LastIndexByte(href, '.'); i >= 0 {
		if mt, ok := extMediaTypes[strings.ToLower(href[i+1:])]; ok {
			return mt
		}
	}
	return "application/octet-stream"
}

// newUID returns an opaque identifier unique across separate invocations,
// shared by the package and navigation documents of one output.
func newUID() string {
	return fmt.Sprintf("epubsplit-%d", time.Now().UnixNano())
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

type opfMeta struct {
	uid         string
	title       string
	authors     []string
	description string
	tags        []string
	languages   []string
	hasCover    bool
}

// buildOPF regenerates the package document for the output archive: metadata,
// a manifest covering every emitted file, and a spine in selection order with
// the cover page first when present.
func buildOPF(meta opfMeta, contents, resources []stagedFile) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="BookId">` + "\n")

	b.WriteString(`  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">` + "\n")
	fmt.Fprintf(&b, "    <dc:identifier id=\"BookId\" opf:scheme=\"epubsplit\">%s</dc:identifier>\n", xmlEscape(meta.uid))
	fmt.Fprintf(&b, "    <dc:title>%s</dc:title>\n", xmlEscape(meta.title))
	for _, author := range meta.authors {
		fmt.Fprintf(&b, "    <dc:creator opf:role=\"aut\">%s</dc:creator>\n", xmlEscape(author))
	}
	b.WriteString("    <dc:contributor opf:role=\"bkp\">epubsplit</dc:contributor>\n")
	for _, lang := range meta.languages {
		fmt.Fprintf(&b, "    <dc:language>%s</dc:language>\n", xmlEscape(lang))
	}
	fmt.Fprintf(&b, "    <dc:description>%s</dc:description>\n", xmlEscape(meta.description))
	for _, tag := range meta.tags {
		fmt.Fprintf(&b, "    <dc:subject>%s</dc:subject>\n", xmlEscape(tag))
	}
	if meta.hasCover {
		b.WriteString("    <meta name=\"cover\" content=\"cover-image\"/>\n")
	}
	b.WriteString("  </metadata>\n")

	b.WriteString("  <manifest>\n")
	fmt.Fprintf(&b, "    <item id=\"ncx\" href=\"%s\" media-type=\"%s\"/>\n", ncxName, epub.MediaTypeNCX)
	if meta.hasCover {
		fmt.Fprintf(&b, "    <item id=\"cover-image\" href=\"%s\" media-type=\"image/jpeg\"/>\n", coverImageName)
		fmt.Fprintf(&b, "    <item id=\"cover-page\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n", coverPageName)
	}
	for _, c := range contents {
		fmt.Fprintf(&b, "    <item id=\"%s\" href=\"%s\" media-type=\"%s\"/>\n",
			c.id, xmlEscape(c.href), xmlEscape(c.mediaType))
	}
	for _, r := range resources {
		fmt.Fprintf(&b, "    <item id=\"%s\" href=\"%s\" media-type=\"%s\"/>\n",
			r.id, xmlEscape(r.href), xmlEscape(r.mediaType))
	}
	b.WriteString("  </manifest>\n")

	b.WriteString("  <spine toc=\"ncx\">\n")
	if meta.hasCover {
		b.WriteString("    <itemref idref=\"cover-page\"/>\n")
	}
	for _, c := range contents {
		fmt.Fprintf(&b, "    <itemref idref=\"%s\"/>\n", c.id)
	}
	b.WriteString("  </spine>\n")

	if meta.hasCover {
		b.WriteString("  <guide>\n")
		fmt.Fprintf(&b, "    <reference type=\"cover\" title=\"Cover\" href=\"%s\"/>\n", coverPageName)
		b.WriteString("  </guide>\n")
	}

	b.WriteString("</package>\n")
	return b.String()
}

// buildNCX regenerates the navigation document: one navPoint per selected
// split point, numbered from 1.
func buildNCX(uid, title string, targets []navTarget) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">` + "\n")
	b.WriteString("  <head>\n")
	fmt.Fprintf(&b, "    <meta name=\"dtb:uid\" content=\"%s\"/>\n", xmlEscape(uid))
	b.WriteString("    <meta name=\"dtb:depth\" content=\"1\"/>\n")
	b.WriteString("    <meta name=\"dtb:totalPageCount\" content=\"0\"/>\n")
	b.WriteString("    <meta name=\"dtb:maxPageNumber\" content=\"0\"/>\n")
	b.WriteString("  </head>\n")
	fmt.Fprintf(&b, "  <docTitle><text>%s</text></docTitle>\n", xmlEscape(title))
	b.WriteString("  <navMap>\n")
	for i, t := range targets {
		n := i + 1
		fmt.Fprintf(&b, "    <navPoint id=\"navPoint-%d\" playOrder=\"%d\">\n", n, n)
		fmt.Fprintf(&b, "      <navLabel><text>%s</text></navLabel>\n", xmlEscape(t.label))
		fmt.Fprintf(&b, "      <content src=\"%s\"/>\n", xmlEscape(t.src))
		b.WriteString("    </navPoint>\n")
	}
	b.WriteString("  </navMap>\n")
	b.WriteString("</ncx>\n")
	return b.String()
}
