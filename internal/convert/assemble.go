package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fragment is the converted Markdown for a single page.
type Fragment struct {
	Page int
	Text string
}

// Metadata describes a conversion run for the artifact trailer.
type Metadata struct {
	Command   string
	Timestamp time.Time
	Source    string
	Platform  string
	Model     string
}

// Trailer renders the metadata as an HTML comment block.
func (m Metadata) Trailer() string {
	var b strings.Builder
	b.WriteString("<!--\n")
	fmt.Fprintf(&b, "  command:   %s\n", m.Command)
	fmt.Fprintf(&b, "  date:      %s\n", m.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  source:    %s\n", m.Source)
	fmt.Fprintf(&b, "  platform:  %s\n", m.Platform)
	fmt.Fprintf(&b, "  model:     %s\n", m.Model)
	b.WriteString("-->")
	return b.String()
}

// Assemble joins page fragments in order, blank-line separated, and
// appends the metadata trailer. With no fragments the document is just
// the trailer.
func Assemble(fragments []Fragment, meta Metadata) string {
	pieces := make([]string, 0, len(fragments)+1)
	for _, f := range fragments {
		pieces = append(pieces, f.Text)
	}
	pieces = append(pieces, meta.Trailer())
	return strings.Join(pieces, "\n\n") + "\n"
}

// maxOutputCandidates bounds the numbered-suffix search.
const maxOutputCandidates = 1000

// ResolveOutputPath picks a Markdown path next to the source PDF that
// does not clobber an existing file. It tries name.md, then
// name_converted.md, then name_converted_2.md and counts up.
func ResolveOutputPath(pdfPath string) (string, error) {
	base := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath))

	candidate := base + ".md"
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}
	candidate = base + "_converted.md"
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}
	for i := 2; i < maxOutputCandidates; i++ {
		candidate = fmt.Sprintf("%s_converted_%d.md", base, i)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no available output path for %s", pdfPath)
}
