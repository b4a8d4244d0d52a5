// Package crop detects the content extent of PDF pages and writes cropped copies.
package crop

import (
	"math"

	"github.com/spherical/pdf-cropper/internal/domain"
)

// BoundsAccumulator tracks the minimal rectangle enclosing every valid
// rectangle added to it. The result does not depend on insertion order.
type BoundsAccumulator struct {
	minX, minY, maxX, maxY float64
}

// NewBoundsAccumulator returns an empty accumulator.
func NewBoundsAccumulator() *BoundsAccumulator {
	return &BoundsAccumulator{
		minX: math.Inf(1),
		minY: math.Inf(1),
		maxX: math.Inf(-1),
		maxY: math.Inf(-1),
	}
}

// Add extends the bounds by r. Degenerate rectangles are ignored.
func (b *BoundsAccumulator) Add(r domain.Rect) {
	if !r.Valid() {
		return
	}
	b.minX = math.Min(b.minX, r.X0)
	b.minY = math.Min(b.minY, r.Y0)
	b.maxX = math.Max(b.maxX, r.X1)
	b.maxY = math.Max(b.maxY, r.Y1)
}

// Result returns the accumulated bounds, or false if nothing valid was added.
func (b *BoundsAccumulator) Result() (domain.Rect, bool) {
	if math.IsInf(b.minX, 1) {
		return domain.Rect{}, false
	}
	return domain.Rect{X0: b.minX, Y0: b.minY, X1: b.maxX, Y1: b.maxY}, true
}
