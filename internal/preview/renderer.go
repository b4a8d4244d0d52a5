// Package preview renders PDF pages to PNG so a crop can be checked by eye.
package preview

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/observability"
	"github.com/spherical/pdf-cropper/internal/pdf"
)

// DefaultDPI is the rendering resolution used when none is configured.
const DefaultDPI float64 = 150

// Image describes one rendered page.
type Image struct {
	Page   int     `json:"page"`
	Path   string  `json:"path,omitempty"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	DPI    float64 `json:"dpi"`
}

// Renderer rasterizes pages with MuPDF. The visible page area (CropBox) is
// what gets rendered, so a cropped output previews as cropped.
type Renderer struct {
	dpi       float64
	validator *pdf.Validator
	logger    *observability.Logger
}

// NewRenderer creates a renderer. A non-positive dpi selects DefaultDPI.
func NewRenderer(dpi float64, logger *observability.Logger) *Renderer {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{dpi: dpi, validator: pdf.NewValidator(logger), logger: logger}
}

// DPI returns the rendering resolution.
func (r *Renderer) DPI() float64 { return r.dpi }

// OutputPath names the preview of page next to srcPath: {base}_page{N}.png.
func OutputPath(srcPath string, page int) string {
	ext := filepath.Ext(srcPath)
	base := strings.TrimSuffix(filepath.Base(srcPath), ext)
	return filepath.Join(filepath.Dir(srcPath), fmt.Sprintf("%s_page%d.png", base, page))
}

// Render writes page (1-based) of pdfPath to w as PNG.
func (r *Renderer) Render(ctx context.Context, pdfPath string, page int, w io.Writer) (*Image, error) {
	if err := r.validator.ValidatePDFPath(pdfPath); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.OpenError(fmt.Sprintf("cannot open %s", filepath.Base(pdfPath)), err)
	}
	defer doc.Close()

	count := doc.NumPage()
	if page < 1 || page > count {
		return nil, domain.ValidationError(fmt.Sprintf("page %d out of range (document has %d pages)", page, count), nil)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img, err := doc.ImageDPI(page-1, r.dpi)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("failed to render page %d", page), err)
	}
	if err := png.Encode(w, img); err != nil {
		return nil, domain.IOError(fmt.Sprintf("failed to encode page %d as PNG", page), err)
	}

	bounds := img.Bounds()
	r.logger.Debug().
		Str("file", pdfPath).
		Int("page", page).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Float64("dpi", r.dpi).
		Msg("page rendered")

	return &Image{Page: page, Width: bounds.Dx(), Height: bounds.Dy(), DPI: r.dpi}, nil
}

// RenderFile renders page of pdfPath into outPath. An empty outPath selects
// OutputPath(pdfPath, page). Nothing is left behind on failure.
func (r *Renderer) RenderFile(ctx context.Context, pdfPath string, page int, outPath string) (*Image, error) {
	if outPath == "" {
		outPath = OutputPath(pdfPath, page)
	}

	f, err := os.CreateTemp(filepath.Dir(outPath), ".preview-*.png")
	if err != nil {
		return nil, domain.IOError("failed to create preview file", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	img, err := r.Render(ctx, pdfPath, page, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = domain.IOError("failed to write preview file", cerr)
	}
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, outPath); err != nil {
		return nil, domain.IOError(fmt.Sprintf("failed to write %s", outPath), err)
	}

	img.Path = outPath
	return img, nil
}
