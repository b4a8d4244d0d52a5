package crop

import (
	"fmt"
	"math"

	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/observability"
)

// skippedLeadingDrawings is the number of drawings ignored at the start of
// every page. Some producers emit a spurious full-bleed rectangle as the first
// path; the root cause is unknown, so this is a heuristic and will also drop a
// legitimate first drawing.
const skippedLeadingDrawings = 1

// Detector derives crop rectangles from page content.
type Detector struct {
	logger *observability.Logger
}

// NewDetector creates a detector.
func NewDetector(logger *observability.Logger) *Detector {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Detector{logger: logger}
}

// ContentBounds returns the minimal rectangle enclosing the page's text
// blocks, image placements and drawings. It reports false for a page without
// visible content. Extraction failures are returned unchanged in meaning.
func (d *Detector) ContentBounds(page domain.Page) (domain.Rect, bool, error) {
	acc := NewBoundsAccumulator()

	blocks, err := page.TextBlocks()
	if err != nil {
		return domain.Rect{}, false, fmt.Errorf("page %d text blocks: %w", page.Number(), err)
	}
	for _, r := range blocks {
		acc.Add(r)
	}

	images, err := page.Images()
	if err != nil {
		return domain.Rect{}, false, fmt.Errorf("page %d images: %w", page.Number(), err)
	}
	for _, img := range images {
		rects, err := page.ImageRects(img)
		if err != nil {
			return domain.Rect{}, false, fmt.Errorf("page %d image %s: %w", page.Number(), img.Name, err)
		}
		for _, r := range rects {
			acc.Add(r)
		}
	}

	drawings, err := page.Drawings()
	if err != nil {
		return domain.Rect{}, false, fmt.Errorf("page %d drawings: %w", page.Number(), err)
	}
	for i, dr := range drawings {
		if i < skippedLeadingDrawings || dr.Rect == nil {
			continue
		}
		acc.Add(*dr.Rect)
	}

	bounds, ok := acc.Result()
	return bounds, ok, nil
}

// Detect returns the crop rectangle for page: the content bounds padded by
// margin points and clamped to the page's own rectangle. It returns nil when
// the page has no content or the clamped rectangle is degenerate.
func (d *Detector) Detect(page domain.Page, margin int) (*domain.Rect, error) {
	bounds, ok, err := d.ContentBounds(page)
	if err != nil {
		return nil, err
	}
	if !ok {
		d.logger.Debug().Int("page", page.Number()).Msg("no content found")
		return nil, nil
	}

	crop := CropRect(bounds, page.Rect(), margin)
	if crop == nil {
		d.logger.Warn().
			Int("page", page.Number()).
			Stringer("bounds", bounds).
			Stringer("page_rect", page.Rect()).
			Msg("degenerate crop box, leaving page uncropped")
		return nil, nil
	}

	d.logger.Debug().
		Int("page", page.Number()).
		Stringer("bounds", bounds).
		Stringer("crop", *crop).
		Msg("crop box detected")
	return crop, nil
}

// CropRect pads bounds by margin and clamps the result to pageRect. It
// returns nil if the clamped rectangle has no area.
func CropRect(bounds, pageRect domain.Rect, margin int) *domain.Rect {
	m := float64(margin)
	r := domain.Rect{
		X0: math.Max(bounds.X0-m, pageRect.X0),
		Y0: math.Max(bounds.Y0-m, pageRect.Y0),
		X1: math.Min(bounds.X1+m, pageRect.X1),
		Y1: math.Min(bounds.Y1+m, pageRect.Y1),
	}
	if !r.Valid() {
		return nil
	}
	return &r
}
