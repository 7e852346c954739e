package splitter

import (
	"fmt"
	"log"

	"github.com/yuanying/epubsplit/internal/epub"
)

// Book is the in-memory model of one source EPUB: the archive handle, the
// parsed package document and navigation map, and the lazily computed
// split-point catalog. A Book is constructed once per input archive and read
// by a single caller sequentially.
type Book struct {
	reader *epub.Reader
	opf    *epub.OPF
	nav    epub.NavMap

	points []SplitPoint // built on first SplitPoints call
}

// Open loads an EPUB and parses its container descriptor, package document
// and navigation document. Structural failures abort immediately; a missing
// navigation document degrades to an empty navigation map.
func Open(path string) (*Book, error) {
	reader, err := epub.Open(path)
	if err != nil {
		return nil, err
	}

	opfData, err := reader.ReadBytes(reader.OPFPath())
	if err != nil {
		reader.Close()
		return nil, &epub.StructureError{Path: reader.OPFPath(), Reason: "package document unreadable", Err: err}
	}
	opf, err := epub.ParseOPF(opfData, reader.OPFPath())
	if err != nil {
		reader.Close()
		return nil, err
	}

	b := &Book{
		reader: reader,
		opf:    opf,
		nav:    epub.NavMap{},
	}
	b.loadNav()
	return b, nil
}

// loadNav parses the NCX when the manifest declares one. Navigation only
// enriches split points, so every failure here degrades to an empty map.
func (b *Book) loadNav() {
	if b.opf.NCXPath == "" {
		log.Printf("warning: no navigation document in manifest")
		return
	}
	data, err := b.reader.ReadBytes(b.opf.NCXPath)
	if err != nil {
		log.Printf("warning: navigation document %s unreadable: %v", b.opf.NCXPath, err)
		return
	}
	nav, err := epub.ParseNCX(data, b.opf.NCXPath)
	if err != nil {
		log.Printf("warning: %v", err)
		return
	}
	b.nav = nav
}

// Close releases the source archive.
func (b *Book) Close() error {
	return b.reader.Close()
}

// Title returns the source book's title.
func (b *Book) Title() string {
	return b.opf.Metadata.Title
}

// Authors returns the source book's authors.
func (b *Book) Authors() []string {
	return b.opf.Metadata.Authors
}

// SplitPoints returns the ordered split-point catalog, computing it on first
// use. The catalog is stable for the life of the Book; selection is by
// 0-based index into it.
func (b *Book) SplitPoints() ([]SplitPoint, error) {
	if b.points == nil {
		points, err := buildSplitPoints(b.reader, b.opf, b.nav)
		if err != nil {
			return nil, err
		}
		b.points = points
	}
	return b.points, nil
}

// readContent reads a staged content document. Content named by the selection
// is required; failures here are fatal to the write.
func (b *Book) readContent(href string) ([]byte, error) {
	data, err := b.reader.ReadBytes(href)
	if err != nil {
		return nil, fmt.Errorf("required content %s: %w", href, err)
	}
	return data, nil
}
