package content

const (
	defaultAscent  = 0.8
	defaultDescent = -0.2
	// glyph width used when a font has no width table
	defaultGlyphWidth = 500.0
)

// Font holds the metrics needed to measure shown strings.
type Font struct {
	// TwoByte is set for Type0 fonts, whose codes are read as 2-byte big-endian values.
	TwoByte bool

	FirstChar    int
	Widths       []float64
	CIDWidths    map[int]float64
	DefaultWidth float64

	// WidthScale converts glyph-space widths to text space: 0.001 for most
	// fonts, FontMatrix[0] for Type3.
	WidthScale float64

	// Ascent and Descent are in text space units per unit of font size.
	Ascent  float64
	Descent float64
}

// NewSimpleFont returns a single-byte font with the given widths.
func NewSimpleFont(firstChar int, widths []float64, missingWidth float64) *Font {
	return &Font{
		FirstChar:    firstChar,
		Widths:       widths,
		DefaultWidth: missingWidth,
		WidthScale:   0.001,
		Ascent:       defaultAscent,
		Descent:      defaultDescent,
	}
}

// NewCompositeFont returns a Type0 font with CID widths.
func NewCompositeFont(widths map[int]float64, defaultWidth float64) *Font {
	return &Font{
		TwoByte:      true,
		CIDWidths:    widths,
		DefaultWidth: defaultWidth,
		WidthScale:   0.001,
		Ascent:       defaultAscent,
		Descent:      defaultDescent,
	}
}

// fallbackFont is used when the Tf font cannot be resolved.
var fallbackFont = &Font{
	DefaultWidth: defaultGlyphWidth,
	WidthScale:   0.001,
	Ascent:       defaultAscent,
	Descent:      defaultDescent,
}

// SetMetrics applies descriptor ascent and descent given in glyph units.
// Zero values keep the defaults.
func (f *Font) SetMetrics(ascent, descent float64) {
	if ascent != 0 {
		f.Ascent = ascent * f.WidthScale
	}
	if descent != 0 {
		f.Descent = descent * f.WidthScale
	}
}

// Codes splits a shown string into character codes.
func (f *Font) Codes(s []byte) []int {
	if !f.TwoByte {
		codes := make([]int, len(s))
		for i, b := range s {
			codes[i] = int(b)
		}
		return codes
	}
	codes := make([]int, 0, (len(s)+1)/2)
	for i := 0; i < len(s); i += 2 {
		if i+1 < len(s) {
			codes = append(codes, int(s[i])<<8|int(s[i+1]))
		} else {
			codes = append(codes, int(s[i])<<8)
		}
	}
	return codes
}

// Width returns the advance width of code in text space per unit of font size.
func (f *Font) Width(code int) float64 {
	w := f.DefaultWidth
	if f.TwoByte {
		if cw, ok := f.CIDWidths[code]; ok {
			w = cw
		}
	} else if idx := code - f.FirstChar; idx >= 0 && idx < len(f.Widths) {
		w = f.Widths[idx]
	}
	if w == 0 && f.DefaultWidth == 0 && len(f.Widths) == 0 && len(f.CIDWidths) == 0 {
		w = defaultGlyphWidth
	}
	return w * f.WidthScale
}
