package content

import (
	"fmt"
	"path"

	"github.com/spherical/pdf-cropper/internal/domain"
)

// DefaultMaxFormDepth bounds Form XObject nesting.
const DefaultMaxFormDepth = 8

// XObject is a resolved external object referenced by the Do operator.
type XObject struct {
	// Subtype is "Image" or "Form".
	Subtype string

	// Form fields.
	Matrix    Matrix
	Content   []byte
	Resources Resources
}

// Resources resolves the named resources used by a content stream.
// Lookups of unknown names return nil without error.
type Resources interface {
	Font(name string) (*Font, error)
	XObject(name string) (*XObject, error)
}

// ImagePlacement is one painting of an image on the page.
type ImagePlacement struct {
	Name string
	Rect domain.Rect
}

// Result holds the geometry of everything painted by a content stream.
type Result struct {
	TextBlocks []domain.Rect
	Images     []ImagePlacement
	Drawings   []domain.Drawing
}

// ImageNames returns the distinct image names in first-placement order.
func (r *Result) ImageNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, img := range r.Images {
		if !seen[img.Name] {
			seen[img.Name] = true
			names = append(names, img.Name)
		}
	}
	return names
}

// ImageRects returns every placement rectangle of the named image.
func (r *Result) ImageRects(name string) []domain.Rect {
	var rects []domain.Rect
	for _, img := range r.Images {
		if img.Name == name {
			rects = append(rects, img.Rect)
		}
	}
	return rects
}

type graphicsState struct {
	ctm       Matrix
	lineWidth float64

	font        *Font
	fontSize    float64
	charSpacing float64
	wordSpacing float64
	hScale      float64
	leading     float64
	rise        float64
}

// Interpreter walks content streams and records painted geometry.
type Interpreter struct {
	maxDepth int
}

// NewInterpreter creates an interpreter. A non-positive maxDepth uses DefaultMaxFormDepth.
func NewInterpreter(maxDepth int) *Interpreter {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxFormDepth
	}
	return &Interpreter{maxDepth: maxDepth}
}

// Run interprets a page's decoded content stream with the given resources.
func (in *Interpreter) Run(data []byte, res Resources) (*Result, error) {
	r := &run{
		maxDepth: in.maxDepth,
		result:   &Result{},
	}
	if res == nil {
		res = noResources{}
	}
	gs := graphicsState{ctm: Identity(), lineWidth: 1, hScale: 1, font: fallbackFont}
	if err := r.exec(data, res, gs, "", 0); err != nil {
		return nil, err
	}
	return r.result, nil
}

type noResources struct{}

func (noResources) Font(string) (*Font, error)       { return nil, nil }
func (noResources) XObject(string) (*XObject, error) { return nil, nil }

type run struct {
	maxDepth int
	result   *Result
	inline   int
}

type textObject struct {
	tm, tlm Matrix
	block   bbox
}

func (r *run) exec(data []byte, res Resources, gs graphicsState, scope string, depth int) error {
	ops, err := Parse(data)
	if err != nil {
		return err
	}

	var stack []graphicsState
	var text *textObject
	var pathBox bbox

	for _, op := range ops {
		args := op.Operands
		switch op.Operator {
		case "q":
			stack = append(stack, gs)
		case "Q":
			if n := len(stack); n > 0 {
				gs = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			if v, ok := numbers(args, 6); ok {
				gs.ctm = matrixFrom(v).Multiply(gs.ctm)
			}
		case "w":
			if v, ok := numbers(args, 1); ok {
				gs.lineWidth = v[0]
			}

		// path construction
		case "m", "l":
			if v, ok := numbers(args, 2); ok {
				pathBox.add(gs.ctm.Transform(v[0], v[1]))
			}
		case "c":
			if v, ok := numbers(args, 6); ok {
				for i := 0; i < 6; i += 2 {
					pathBox.add(gs.ctm.Transform(v[i], v[i+1]))
				}
			}
		case "v", "y":
			if v, ok := numbers(args, 4); ok {
				pathBox.add(gs.ctm.Transform(v[0], v[1]))
				pathBox.add(gs.ctm.Transform(v[2], v[3]))
			}
		case "re":
			if v, ok := numbers(args, 4); ok {
				rect := gs.ctm.TransformRect(domain.Rect{X0: v[0], Y0: v[1], X1: v[0] + v[2], Y1: v[1] + v[3]})
				pathBox.union(rect)
			}

		// path painting
		case "S", "s", "B", "B*", "b", "b*":
			r.paint(&pathBox, gs.lineWidth*gs.ctm.Scale()/2)
		case "f", "F", "f*":
			r.paint(&pathBox, 0)
		case "n":
			pathBox = bbox{}

		// text objects
		case "BT":
			text = &textObject{tm: Identity(), tlm: Identity()}
		case "ET":
			if text != nil && text.block.set {
				r.result.TextBlocks = append(r.result.TextBlocks, text.block.rect())
			}
			text = nil

		// text state
		case "Tf":
			if len(args) >= 2 {
				if name, ok := args[len(args)-2].(Name); ok {
					font, err := res.Font(string(name))
					if err != nil {
						return fmt.Errorf("font %s: %w", name, err)
					}
					if font == nil {
						font = fallbackFont
					}
					gs.font = font
				}
				if size, ok := number(args[len(args)-1]); ok {
					gs.fontSize = size
				}
			}
		case "Tc":
			if v, ok := numbers(args, 1); ok {
				gs.charSpacing = v[0]
			}
		case "Tw":
			if v, ok := numbers(args, 1); ok {
				gs.wordSpacing = v[0]
			}
		case "Tz":
			if v, ok := numbers(args, 1); ok {
				gs.hScale = v[0] / 100
			}
		case "TL":
			if v, ok := numbers(args, 1); ok {
				gs.leading = v[0]
			}
		case "Ts":
			if v, ok := numbers(args, 1); ok {
				gs.rise = v[0]
			}

		// text positioning
		case "Td":
			if v, ok := numbers(args, 2); ok && text != nil {
				text.nextLine(v[0], v[1])
			}
		case "TD":
			if v, ok := numbers(args, 2); ok && text != nil {
				gs.leading = -v[1]
				text.nextLine(v[0], v[1])
			}
		case "Tm":
			if v, ok := numbers(args, 6); ok && text != nil {
				text.tlm = matrixFrom(v)
				text.tm = text.tlm
			}
		case "T*":
			if text != nil {
				text.nextLine(0, -gs.leading)
			}

		// text showing
		case "Tj":
			if text != nil && len(args) >= 1 {
				if s, ok := args[len(args)-1].(String); ok {
					text.show(s, &gs)
				}
			}
		case "'":
			if text != nil && len(args) >= 1 {
				text.nextLine(0, -gs.leading)
				if s, ok := args[len(args)-1].(String); ok {
					text.show(s, &gs)
				}
			}
		case "\"":
			if text != nil && len(args) >= 3 {
				if aw, ok := number(args[len(args)-3]); ok {
					gs.wordSpacing = aw
				}
				if ac, ok := number(args[len(args)-2]); ok {
					gs.charSpacing = ac
				}
				text.nextLine(0, -gs.leading)
				if s, ok := args[len(args)-1].(String); ok {
					text.show(s, &gs)
				}
			}
		case "TJ":
			if text != nil && len(args) >= 1 {
				if arr, ok := args[len(args)-1].(Array); ok {
					for _, item := range arr {
						switch v := item.(type) {
						case String:
							text.show(v, &gs)
						case Number:
							text.advance(-float64(v) / 1000 * gs.fontSize * gs.hScale)
						}
					}
				}
			}

		// external and inline objects
		case "Do":
			if len(args) >= 1 {
				if name, ok := args[len(args)-1].(Name); ok {
					if err := r.doXObject(string(name), res, gs, scope, depth); err != nil {
						return err
					}
				}
			}
		case "BI":
			r.inline++
			r.result.Images = append(r.result.Images, ImagePlacement{
				Name: fmt.Sprintf("inline-%d", r.inline),
				Rect: gs.ctm.TransformRect(domain.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1}),
			})
		}
	}

	return nil
}

func (r *run) paint(pathBox *bbox, pad float64) {
	d := domain.Drawing{}
	if pathBox.set {
		rect := pathBox.rect()
		rect.X0 -= pad
		rect.Y0 -= pad
		rect.X1 += pad
		rect.Y1 += pad
		d.Rect = &rect
	}
	r.result.Drawings = append(r.result.Drawings, d)
	*pathBox = bbox{}
}

func (r *run) doXObject(name string, res Resources, gs graphicsState, scope string, depth int) error {
	xobj, err := res.XObject(name)
	if err != nil {
		return fmt.Errorf("xobject %s: %w", name, err)
	}
	if xobj == nil {
		return nil
	}

	switch xobj.Subtype {
	case "Image":
		r.result.Images = append(r.result.Images, ImagePlacement{
			Name: path.Join(scope, name),
			Rect: gs.ctm.TransformRect(domain.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1}),
		})
	case "Form":
		if depth+1 >= r.maxDepth {
			return nil
		}
		formRes := xobj.Resources
		if formRes == nil {
			formRes = res
		}
		gs.ctm = xobj.Matrix.Multiply(gs.ctm)
		if err := r.exec(xobj.Content, formRes, gs, path.Join(scope, name), depth+1); err != nil {
			return fmt.Errorf("form %s: %w", name, err)
		}
	}
	return nil
}

func (t *textObject) nextLine(tx, ty float64) {
	t.tlm = Translate(tx, ty).Multiply(t.tlm)
	t.tm = t.tlm
}

func (t *textObject) advance(tx float64) {
	t.tm = Translate(tx, 0).Multiply(t.tm)
}

// show measures s in text space, adds its box to the block and advances the text matrix.
func (t *textObject) show(s []byte, gs *graphicsState) {
	if len(s) == 0 {
		return
	}
	font := gs.font
	width := 0.0
	for _, code := range font.Codes(s) {
		w := font.Width(code)*gs.fontSize + gs.charSpacing
		if !font.TwoByte && code == ' ' {
			w += gs.wordSpacing
		}
		width += w * gs.hScale
	}

	box := domain.Rect{
		X0: 0,
		Y0: font.Descent*gs.fontSize + gs.rise,
		X1: width,
		Y1: font.Ascent*gs.fontSize + gs.rise,
	}
	t.block.union(t.tm.Multiply(gs.ctm).TransformRect(box))
	t.advance(width)
}
