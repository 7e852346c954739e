package epub

import (
	"encoding/xml"
	"strings"
)

const (
	defaultTitle  = "(Title Missing)"
	defaultAuthor = "(Authors Missing)"
)

// opfPackage represents the OPF XML structure.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
	Guide    opfGuide    `xml:"guide"`
}

// opfMetadata represents the metadata section.
type opfMetadata struct {
	Title   []string     `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator []opfCreator `xml:"http://purl.org/dc/elements/1.1/ creator"`
}

// opfCreator represents a creator element.
type opfCreator struct {
	Name string `xml:",chardata"`
	Role string `xml:"http://www.idpf.org/2007/opf role,attr"`
}

// opfManifest represents the manifest section.
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents an item in the manifest.
type opfManifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// opfSpine represents the spine section.
type opfSpine struct {
	ItemRefs []opfItemRef `xml:"itemref"`
}

// opfItemRef represents an itemref in the spine.
type opfItemRef struct {
	IDRef string `xml:"idref,attr"`
}

// opfGuide represents the guide section.
type opfGuide struct {
	References []opfGuideRef `xml:"reference"`
}

// opfGuideRef represents a reference in the guide.
type opfGuideRef struct {
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

// ParseOPF parses a package document. baseDir is the directory containing the
// OPF file; all hrefs are normalized against it. A missing or empty manifest
// or spine is a StructureError; missing metadata degrades to placeholder
// defaults since titles and authors are display data only.
func ParseOPF(content []byte, opfPath string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, &StructureError{Path: opfPath, Reason: "failed to parse package document", Err: err}
	}
	if len(pkg.Manifest.Items) == 0 {
		return nil, &StructureError{Path: opfPath, Reason: "package document has no manifest items"}
	}
	if len(pkg.Spine.ItemRefs) == 0 {
		return nil, &StructureError{Path: opfPath, Reason: "package document has no spine"}
	}

	baseDir := BaseDir(opfPath)
	opf := &OPF{
		Manifest: make(map[string]ManifestItem, len(pkg.Manifest.Items)),
		Guide:    make(map[string]GuideRef, len(pkg.Guide.References)),
	}

	for _, item := range pkg.Manifest.Items {
		href := ResolveHref(baseDir, item.Href)
		opf.Manifest[item.ID] = ManifestItem{
			ID:        item.ID,
			Href:      href,
			MediaType: item.MediaType,
		}
		if item.MediaType == MediaTypeNCX {
			opf.NCXPath = href
		}
	}

	for _, ref := range pkg.Guide.References {
		// Guide references are document-level; drop any fragment before
		// normalizing.
		path, _ := SplitFragment(ref.Href)
		opf.Guide[ResolveHref(baseDir, path)] = GuideRef{Type: ref.Type, Title: ref.Title}
	}

	for _, itemRef := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, itemRef.IDRef)
	}

	opf.Metadata = parseMetadata(&pkg.Metadata)
	return opf, nil
}

// parseMetadata extracts the title and author-role creators, falling back to
// placeholders when absent.
func parseMetadata(meta *opfMetadata) Metadata {
	md := Metadata{Title: defaultTitle}
	if len(meta.Title) > 0 && strings.TrimSpace(meta.Title[0]) != "" {
		md.Title = strings.TrimSpace(meta.Title[0])
	}

	seen := make(map[string]struct{})
	for _, creator := range meta.Creator {
		if !isAuthorRole(creator.Role) {
			continue
		}
		name := strings.TrimSpace(creator.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		md.Authors = append(md.Authors, name)
	}
	if len(md.Authors) == 0 {
		md.Authors = []string{defaultAuthor}
	}
	return md
}

// isAuthorRole reports whether a creator role attribute marks an author. An
// absent role counts; both the MARC relator code and the plain word appear in
// the wild.
func isAuthorRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", "aut", "author":
		return true
	}
	return false
}
