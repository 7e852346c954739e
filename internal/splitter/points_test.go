package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three spine items plus one anchored navigation entry inside ch2 produce a
// four-point catalog: ch1, ch2, ch2#s2, ch3.
func TestSplitPoints(t *testing.T) {
	book := fixtureBook(t)

	points, err := book.SplitPoints()
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.Equal(t, "OEBPS/ch1.xhtml", points[0].Href)
	assert.Empty(t, points[0].Anchor)
	assert.Equal(t, []string{"Chapter 1"}, points[0].Labels)
	require.NotNil(t, points[0].Guide)
	assert.Equal(t, "text", points[0].Guide.Type)

	assert.Equal(t, "OEBPS/ch2.xhtml", points[1].Href)
	assert.Empty(t, points[1].Anchor)
	assert.Equal(t, []string{"Chapter 2"}, points[1].Labels)

	assert.Equal(t, "OEBPS/ch2.xhtml", points[2].Href)
	assert.Equal(t, "s2", points[2].Anchor)
	assert.Equal(t, []string{"Section 2"}, points[2].Labels)
	// Anchored points never carry the guide; it belongs to the document's
	// first point.
	assert.Nil(t, points[2].Guide)

	assert.Equal(t, "OEBPS/ch3.xhtml", points[3].Href)
	assert.Empty(t, points[3].Anchor)
}

func TestSplitPoints_Cached(t *testing.T) {
	book := fixtureBook(t)

	first, err := book.SplitPoints()
	require.NoError(t, err)
	second, err := book.SplitPoints()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSplitPoints_Samples(t *testing.T) {
	book := fixtureBook(t)

	points, err := book.SplitPoints()
	require.NoError(t, err)

	// Document-start samples begin at the top of the file.
	assert.True(t, strings.HasPrefix(points[0].Sample, `<?xml version="1.0"`))

	// Anchored samples begin at the matching id attribute.
	assert.True(t, strings.HasPrefix(points[2].Sample, `id="s2"`), "sample = %q", points[2].Sample)
	assert.Contains(t, points[2].Sample, "After the anchor.")
}

// Without a navigation document every spine item yields exactly one
// anchor-free point.
func TestSplitPoints_NoNavigation(t *testing.T) {
	path := writeFixtureEPUB(t, "nonav.epub", []fixtureEntry{
		{"META-INF/container.xml", fixtureContainer},
		{"OEBPS/content.opf", strings.ReplaceAll(fixtureOPF,
			`<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>`, "")},
		{"OEBPS/ch1.xhtml", fixtureCh1},
		{"OEBPS/ch2.xhtml", fixtureCh2},
		{"OEBPS/ch3.xhtml", fixtureCh3},
	})

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	points, err := book.SplitPoints()
	require.NoError(t, err)
	require.Len(t, points, 3)
	for _, p := range points {
		assert.Empty(t, p.Anchor)
	}
}

func TestSplitPoints_SpineIDWithoutManifestEntry(t *testing.T) {
	broken := strings.ReplaceAll(fixtureOPF,
		`<itemref idref="ch3"/>`, `<itemref idref="ghost"/>`)
	path := writeFixtureEPUB(t, "broken.epub", []fixtureEntry{
		{"META-INF/container.xml", fixtureContainer},
		{"OEBPS/content.opf", broken},
		{"OEBPS/ch1.xhtml", fixtureCh1},
		{"OEBPS/ch2.xhtml", fixtureCh2},
	})

	book, err := Open(path)
	require.NoError(t, err)
	defer book.Close()

	_, err = book.SplitPoints()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestTruncateSample(t *testing.T) {
	long := strings.Repeat("a", sampleLimit+100)
	got := truncateSample(long)
	assert.Len(t, got, sampleLimit+3)
	assert.True(t, strings.HasSuffix(got, "..."))

	short := "short text"
	assert.Equal(t, short, truncateSample(short))
}

func TestAnchorSample(t *testing.T) {
	raw := `<p>before</p><h2 id='x1'>one</h2><h2 name="x1">again</h2>`

	// Earliest of the quoted forms wins.
	assert.True(t, strings.HasPrefix(anchorSample(raw, "x1"), `id='x1'`))
	assert.Empty(t, anchorSample(raw, "missing"))
}
