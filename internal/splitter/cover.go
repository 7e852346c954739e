package splitter

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/disintegration/imaging"
)

const coverJPEGQuality = 90

// Fixed names for the injected cover files inside the output archive.
const (
	coverImageName = "cover.jpg"
	coverPageName  = "cover_page.xhtml"
)

// loadCoverImage reads a cover image from the filesystem and returns JPEG
// bytes for the fixed cover.jpg entry. Non-JPEG sources are re-encoded;
// undecodable data passes through raw with a warning so an unusual but
// reader-supported file still ends up in the book.
func loadCoverImage(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover %s: %w", path, err)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		log.Printf("warning: cover %s not decodable (%v), using raw bytes", path, err)
		return raw, nil
	}
	if format == "jpeg" {
		return raw, nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(coverJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode cover %s as JPEG: %w", path, err)
	}
	return buf.Bytes(), nil
}

// coverPageXHTML is the minimal synthesized cover document referencing the
// injected image. It becomes the first spine item.
const coverPageXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Cover</title></head>
<body>
<div style="text-align: center;"><img src="cover.jpg" alt="cover"/></div>
</body>
</html>
`
