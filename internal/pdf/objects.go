package pdf

import (
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/spherical/pdf-cropper/internal/domain"
)

// maxParentDepth bounds walks up the page tree for inherited attributes.
const maxParentDepth = 32

func deref(ctx *model.Context, o types.Object) (types.Object, error) {
	if o == nil {
		return nil, nil
	}
	if _, ok := o.(types.IndirectRef); !ok {
		return o, nil
	}
	return ctx.Dereference(o)
}

func derefDict(ctx *model.Context, o types.Object) (types.Dict, error) {
	obj, err := deref(ctx, o)
	if err != nil {
		return nil, err
	}
	switch d := obj.(type) {
	case types.Dict:
		return d, nil
	case types.StreamDict:
		return d.Dict, nil
	}
	return nil, nil
}

func derefArray(ctx *model.Context, o types.Object) (types.Array, error) {
	obj, err := deref(ctx, o)
	if err != nil {
		return nil, err
	}
	arr, _ := obj.(types.Array)
	return arr, nil
}

func toFloat(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

func numberEntry(ctx *model.Context, d types.Dict, key string) (float64, bool) {
	o, found := d.Find(key)
	if !found {
		return 0, false
	}
	obj, err := deref(ctx, o)
	if err != nil {
		return 0, false
	}
	return toFloat(obj)
}

func floatArray(ctx *model.Context, o types.Object) ([]float64, error) {
	arr, err := derefArray(ctx, o)
	if err != nil || arr == nil {
		return nil, err
	}
	out := make([]float64, len(arr))
	for i, item := range arr {
		v, err := deref(ctx, item)
		if err != nil {
			return nil, err
		}
		out[i], _ = toFloat(v)
	}
	return out, nil
}

// rectFrom reads a rectangle array and normalizes its corners.
func rectFrom(ctx *model.Context, o types.Object) (domain.Rect, bool) {
	v, err := floatArray(ctx, o)
	if err != nil || len(v) != 4 {
		return domain.Rect{}, false
	}
	return domain.Rect{
		X0: math.Min(v[0], v[2]),
		Y0: math.Min(v[1], v[3]),
		X1: math.Max(v[0], v[2]),
		Y1: math.Max(v[1], v[3]),
	}, true
}

// inherited looks up key on the page dict and then on its ancestors.
func inherited(ctx *model.Context, d types.Dict, key string) (types.Object, error) {
	for i := 0; d != nil && i < maxParentDepth; i++ {
		if o, found := d.Find(key); found && o != nil {
			return o, nil
		}
		parent, found := d.Find("Parent")
		if !found {
			return nil, nil
		}
		var err error
		if d, err = derefDict(ctx, parent); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func intersect(a, b domain.Rect) domain.Rect {
	return domain.Rect{
		X0: math.Max(a.X0, b.X0),
		Y0: math.Max(a.Y0, b.Y0),
		X1: math.Min(a.X1, b.X1),
		Y1: math.Min(a.Y1, b.Y1),
	}
}

// visibleRect resolves the page's effective crop box: CropBox clipped to
// MediaBox, or MediaBox when no usable CropBox is present.
func visibleRect(ctx *model.Context, pageDict types.Dict) (domain.Rect, error) {
	mediaObj, err := inherited(ctx, pageDict, "MediaBox")
	if err != nil {
		return domain.Rect{}, err
	}
	media, ok := rectFrom(ctx, mediaObj)
	if !ok {
		// US Letter, the conventional fallback for a missing MediaBox
		media = domain.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}
	}

	cropObj, err := inherited(ctx, pageDict, "CropBox")
	if err != nil {
		return domain.Rect{}, err
	}
	if crop, ok := rectFrom(ctx, cropObj); ok {
		if visible := intersect(crop, media); visible.Valid() {
			return visible, nil
		}
	}
	return media, nil
}

// streamContent returns the decoded bytes of one or more content streams.
func streamContent(ctx *model.Context, o types.Object) ([]byte, error) {
	obj, err := deref(ctx, o)
	if err != nil || obj == nil {
		return nil, err
	}

	switch v := obj.(type) {
	case types.Array:
		var out []byte
		for _, item := range v {
			data, err := streamContent(ctx, item)
			if err != nil {
				return nil, err
			}
			out = append(out, data...)
			out = append(out, '\n')
		}
		return out, nil
	case types.StreamDict:
		if err := v.Decode(); err != nil {
			return nil, err
		}
		return v.Content, nil
	}
	return nil, nil
}
