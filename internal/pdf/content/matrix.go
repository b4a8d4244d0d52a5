package content

import (
	"math"

	"github.com/spherical/pdf-cropper/internal/domain"
)

// Matrix is a PDF transformation matrix [a b c d e f] using row vectors:
// a point (x, y) maps to (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Multiply returns m×n, which applies m first and then n.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Transform maps the point (x, y).
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect returns the bounding box of r's four transformed corners.
func (m Matrix) TransformRect(r domain.Rect) domain.Rect {
	var b bbox
	b.add(m.Transform(r.X0, r.Y0))
	b.add(m.Transform(r.X1, r.Y0))
	b.add(m.Transform(r.X0, r.Y1))
	b.add(m.Transform(r.X1, r.Y1))
	return b.rect()
}

// Scale returns the geometric mean scale factor, used for line widths.
func (m Matrix) Scale() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

func matrixFrom(v []float64) Matrix {
	return Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
}

// bbox accumulates points into a bounding box.
type bbox struct {
	set                    bool
	minX, minY, maxX, maxY float64
}

func (b *bbox) add(x, y float64) {
	if !b.set {
		b.minX, b.maxX, b.minY, b.maxY = x, x, y, y
		b.set = true
		return
	}
	b.minX = math.Min(b.minX, x)
	b.minY = math.Min(b.minY, y)
	b.maxX = math.Max(b.maxX, x)
	b.maxY = math.Max(b.maxY, y)
}

func (b *bbox) union(r domain.Rect) {
	b.add(r.X0, r.Y0)
	b.add(r.X1, r.Y1)
}

func (b *bbox) rect() domain.Rect {
	return domain.Rect{X0: b.minX, Y0: b.minY, X1: b.maxX, Y1: b.maxY}
}
