package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuanying/epubsplit/internal/splitter"
)

var rootCmd = &cobra.Command{
	Use:   "epubsplit EPUB [INDEX...]",
	Short: "Split EPUB files into multiple books",
	Long: `Giving an epub without index numbers will return a list of the possible
split points in the input file. Calling with index numbers will generate
an epub with each of the sections given included.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

var flags struct {
	output         string
	outputDir      string
	splitBySection bool
	title          string
	description    string
	authors        []string
	tags           []string
	languages      []string
	cover          string
	debug          bool
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "split.epub", "Output file name")
	f.StringVar(&flags.outputDir, "output-dir", "", "Output directory")
	f.BoolVar(&flags.splitBySection, "split-by-section", false,
		"Create a new epub from each listed section instead of one containing all")
	f.StringVarP(&flags.title, "title", "t", "", "Metadata title for output epub")
	f.StringVarP(&flags.description, "description", "d", "", "Metadata description for output epub")
	f.StringArrayVarP(&flags.authors, "author", "a", nil, "Metadata author(s) for output epub")
	f.StringArrayVarP(&flags.tags, "tag", "g", nil, "Subject tag(s) for output epub")
	f.StringArrayVarP(&flags.languages, "language", "l", []string{"en"}, "Language(s) for output epub")
	f.StringVarP(&flags.cover, "cover", "c", "", "Path to cover image (JPG)")
	f.BoolVar(&flags.debug, "debug", false, "Enable debug output")
}

func run(cmd *cobra.Command, args []string) error {
	log.SetFlags(0)

	indices, err := parseIndices(args[1:])
	if err != nil {
		return err
	}

	book, err := splitter.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to load EPUB %s: %w", args[0], err)
	}
	defer book.Close()

	points, err := book.SplitPoints()
	if err != nil {
		return fmt.Errorf("failed to extract split points: %w", err)
	}

	switch {
	case flags.splitBySection:
		if len(indices) == 0 {
			indices = allIndices(len(points))
		}
		return splitBySection(book, points, indices)
	case len(indices) == 0:
		listSplitPoints(cmd.OutOrStdout(), points)
		return nil
	default:
		return extractSections(book, indices)
	}
}

// parseIndices converts positional index arguments to ints.
func parseIndices(args []string) ([]int, error) {
	var indices []int
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid split point index %q", arg)
		}
		indices = append(indices, n)
	}
	return indices, nil
}

func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// listSplitPoints prints the numbered split-point catalog.
func listSplitPoints(w io.Writer, points []splitter.SplitPoint) {
	for i, p := range points {
		fmt.Fprintf(w, "Line Number: %d\n", i)
		if len(p.Labels) > 0 {
			fmt.Fprintf(w, "\ttoc: %q\n", p.Labels)
		}
		if p.Guide != nil {
			fmt.Fprintf(w, "\tguide: %s (%s)\n", p.Guide.Type, p.Guide.Title)
		}
		src := p.Href
		if p.Anchor != "" {
			src += "#" + p.Anchor
		}
		fmt.Fprintf(w, "\thref: %s\n", src)
		if flags.debug && p.Sample != "" {
			fmt.Fprintf(w, "\tsample: %.120q\n", p.Sample)
		}
	}
}

// extractSections writes the selected sections into one output epub.
func extractSections(book *splitter.Book, indices []int) error {
	outputPath := filepath.Join(flags.outputDir, ensureEpubExtension(flags.output))
	if err := book.WriteSplit(outputPath, indices, writeOptions("")); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", outputPath)
	return nil
}

// splitBySection writes one epub per selected section, named after its index
// and first toc label.
func splitBySection(book *splitter.Book, points []splitter.SplitPoint, indices []int) error {
	for _, idx := range indices {
		if idx < 0 || idx >= len(points) {
			return &splitter.IndexError{Index: idx, Max: len(points) - 1}
		}
		p := points[idx]

		sectionTitle := ""
		if len(p.Labels) > 0 {
			sectionTitle = p.Labels[0]
		}

		name := fmt.Sprintf("%03d.epub", idx)
		if slug := slugify(sectionTitle); slug != "" {
			name = fmt.Sprintf("%03d_%s.epub", idx, slug)
		}
		outputPath := filepath.Join(flags.outputDir, name)

		if err := book.WriteSplit(outputPath, []int{idx}, writeOptions(sectionTitle)); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", outputPath)
	}
	return nil
}

// writeOptions builds the writer options from the flags. sectionTitle, when
// non-empty, overrides the book title unless -t was given.
func writeOptions(sectionTitle string) splitter.WriteOptions {
	title := flags.title
	if title == "" {
		title = sectionTitle
	}
	return splitter.WriteOptions{
		Title:       title,
		Authors:     flags.authors,
		Description: flags.description,
		Tags:        flags.tags,
		Languages:   flags.languages,
		CoverPath:   flags.cover,
	}
}

// ensureEpubExtension appends .epub when the name does not already carry it.
func ensureEpubExtension(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".epub") {
		return name
	}
	return name + ".epub"
}

// slugify reduces a section title to a filesystem-safe fragment.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	slug := strings.Trim(b.String(), "_")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return slug
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
