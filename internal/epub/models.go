package epub

// ManifestItem represents an item in the package manifest. Hrefs are
// normalized archive-internal paths.
type ManifestItem struct {
	ID        string
	Href      string
	MediaType string
}

// GuideRef is a semantic landmark (cover, title-page, ...) attached to a
// document. Guide entries are document-level; fragments are stripped during
// parsing.
type GuideRef struct {
	Type  string
	Title string
}

// Metadata holds the descriptive metadata extracted from the package
// document. Missing titles and authors degrade to placeholder defaults.
type Metadata struct {
	Title   string
	Authors []string
}

// OPF represents the parsed package document.
type OPF struct {
	Metadata Metadata
	Manifest map[string]ManifestItem // id -> item
	Spine    []string                // ordered itemref idrefs
	Guide    map[string]GuideRef     // normalized href -> reference
	NCXPath  string                  // normalized path of the NCX item, "" if absent
}

// NavEntry is one table-of-contents entry for a document. Anchor is empty
// when the entry targets the whole document.
type NavEntry struct {
	Label  string
	Anchor string
}

// NavMap maps a normalized document href to its ordered navigation entries.
// Entries without an anchor always precede anchored entries for the same
// document; within each kind, document order is preserved.
type NavMap map[string][]NavEntry

const (
	// MediaTypeNCX identifies the legacy navigation control file in the
	// manifest.
	MediaTypeNCX = "application/x-dtbncx+xml"

	// MimetypeEPUB is the exact required content of the mimetype entry.
	MimetypeEPUB = "application/epub+zip"
)
