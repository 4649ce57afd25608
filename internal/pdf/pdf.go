// Package pdf validates input documents and rasterizes their pages.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	DefaultDPI         = 300
	DefaultJPEGQuality = 85
)

var (
	// ErrNotPDF is returned when the input path does not name a .pdf file.
	ErrNotPDF = errors.New("input file must be a PDF")

	// ErrRasterize is returned when the document cannot be rasterized.
	ErrRasterize = errors.New("failed to rasterize PDF")
)

// Validate checks that path names an existing, regular .pdf file.
// The extension check runs first so a typo'd path reports the right problem.
func Validate(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotPDF, path)
	}
	return nil
}

// PageCount returns the number of pages in the PDF.
func PageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	count, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("%w: page count: %v", ErrRasterize, err)
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: document has no pages", ErrRasterize)
	}
	return count, nil
}

// Renderer rasterizes single PDF pages to JPEG using pdftoppm (poppler-utils).
type Renderer struct {
	dpi     int
	quality int
}

// NewRenderer creates a renderer with the given resolution and JPEG
// quality. Zero values fall back to the defaults.
func NewRenderer(dpi, quality int) *Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	return &Renderer{dpi: dpi, quality: quality}
}

// DPI returns the configured render resolution.
func (r *Renderer) DPI() int {
	return r.dpi
}

// Quality returns the configured JPEG quality.
func (r *Renderer) Quality() int {
	return r.quality
}

// PageCount returns the number of pages in the PDF.
func (r *Renderer) PageCount(pdfPath string) (int, error) {
	return PageCount(pdfPath)
}

// RenderPage renders one page into outDir and returns the image path.
func (r *Renderer) RenderPage(ctx context.Context, pdfPath string, pageNum int, outDir string) (string, error) {
	outputPrefix := filepath.Join(outDir, fmt.Sprintf("page_%04d", pageNum))

	// Run pdftoppm to render the page
	// -jpeg: output JPEG format
	// -f N: first page to render
	// -l N: last page to render
	// -r N: resolution in DPI
	// -singlefile: don't add page number suffix
	pageStr := fmt.Sprintf("%d", pageNum)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-jpeg",
		"-jpegopt", fmt.Sprintf("quality=%d", r.quality),
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", r.dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: pdftoppm: %v (output: %s)", ErrRasterize, err, string(output))
	}

	// pdftoppm with -singlefile and -jpeg creates: <prefix>.jpg
	imgPath := outputPrefix + ".jpg"
	if _, err := os.Stat(imgPath); err != nil {
		return "", fmt.Errorf("%w: pdftoppm did not create expected output: %v", ErrRasterize, err)
	}

	return imgPath, nil
}
