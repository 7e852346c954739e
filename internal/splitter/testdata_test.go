package splitter

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixtureEntry is one archive entry of a synthetic test EPUB.
type fixtureEntry struct {
	name string
	data string
}

// writeFixtureEPUB builds an EPUB archive from entries, prepending the stored
// mimetype entry, and returns its path.
func writeFixtureEPUB(t *testing.T, name string, entries []fixtureEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = mw.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	for _, e := range entries {
		ew, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = ew.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

const fixtureContainer = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const fixtureOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Fixture Book</dc:title>
    <dc:creator opf:role="aut">Fixture Author</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch3" href="ch3.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="img" href="img/cover.png" media-type="image/png"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
    <itemref idref="ch3"/>
  </spine>
  <guide>
    <reference type="text" title="Beginning" href="ch1.xhtml"/>
  </guide>
</package>`

const fixtureNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head><meta name="dtb:uid" content="fixture-uid"/></head>
  <docTitle><text>Fixture Book</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Chapter 1</text></navLabel>
      <content src="ch1.xhtml"/>
    </navPoint>
    <navPoint id="np2" playOrder="2">
      <navLabel><text>Chapter 2</text></navLabel>
      <content src="ch2.xhtml"/>
      <navPoint id="np3" playOrder="3">
        <navLabel><text>Section 2</text></navLabel>
        <content src="ch2.xhtml#s2"/>
      </navPoint>
    </navPoint>
    <navPoint id="np4" playOrder="4">
      <navLabel><text>Chapter 3</text></navLabel>
      <content src="ch3.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

const fixtureCh1 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter 1</title>
<link rel="stylesheet" type="text/css" href="style.css"/>
</head>
<body><p><img src="img/cover.png" alt=""/></p><p>First chapter text.</p></body>
</html>`

const fixtureCh2 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter 2</title></head>
<body><p>Second chapter text.</p><h2 id="s2">Section 2</h2><p>After the anchor.</p></body>
</html>`

const fixtureCh3 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter 3</title></head>
<body><p>Third chapter text.</p></body>
</html>`

const fixtureCSS = `/* url(commented-out.png) */
@import "fonts.css";
body { background: url(img/cover.png); }
`

const fixtureFontsCSS = `body { font-family: serif; }
`

// fixtureBook opens the standard three-chapter fixture with one anchored
// navigation entry inside ch2.
func fixtureBook(t *testing.T) *Book {
	t.Helper()
	path := writeFixtureEPUB(t, "fixture.epub", []fixtureEntry{
		{"META-INF/container.xml", fixtureContainer},
		{"OEBPS/content.opf", fixtureOPF},
		{"OEBPS/toc.ncx", fixtureNCX},
		{"OEBPS/ch1.xhtml", fixtureCh1},
		{"OEBPS/ch2.xhtml", fixtureCh2},
		{"OEBPS/ch3.xhtml", fixtureCh3},
		{"OEBPS/style.css", fixtureCSS},
		{"OEBPS/fonts.css", fixtureFontsCSS},
		{"OEBPS/img/cover.png", "\x89PNG fake image bytes"},
	})

	book, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { book.Close() })
	return book
}
