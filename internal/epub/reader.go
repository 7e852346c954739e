package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
)

const containerPath = "META-INF/container.xml"

// Reader provides read-only access to an EPUB archive. One Reader owns one
// source archive for its lifetime and is driven by a single caller
// sequentially.
type Reader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File // normalized entry name -> entry
	opfPath   string
}

// container models the META-INF/container.xml pointer file.
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// Open opens an EPUB archive and resolves the package document location from
// the container descriptor.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	r := &Reader{
		zipReader: zr,
		files:     make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		r.files[ResolveHref("", f.Name)] = f
	}

	if err := r.parseContainer(); err != nil {
		zr.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying archive.
func (r *Reader) Close() error {
	return r.zipReader.Close()
}

// OPFPath returns the normalized path of the package document.
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// Has reports whether the archive contains the given normalized path.
func (r *Reader) Has(path string) bool {
	_, ok := r.files[ResolveHref("", path)]
	return ok
}

// ReadBytes reads the contents of an archive entry.
func (r *Reader) ReadBytes(path string) ([]byte, error) {
	path = ResolveHref("", path)
	f, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// ReadText reads an archive entry as a string.
func (r *Reader) ReadText(path string) (string, error) {
	data, err := r.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseContainer reads the container descriptor and extracts the first
// rootfile reference.
func (r *Reader) parseContainer() error {
	content, err := r.ReadBytes(containerPath)
	if err != nil {
		return &StructureError{Path: containerPath, Reason: "container descriptor missing", Err: ErrContainerNotFound}
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return &StructureError{Path: containerPath, Reason: "failed to parse", Err: err}
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.FullPath != "" {
			r.opfPath = ResolveHref("", rf.FullPath)
			return nil
		}
	}
	return &StructureError{Path: containerPath, Reason: "no usable rootfile", Err: ErrNoRootfile}
}
