package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/spherical/pdf-cropper/internal/pdf/content"
)

// resources resolves fonts and XObjects of one resource dictionary for the interpreter.
type resources struct {
	ctx      *model.Context
	fonts    types.Dict
	xobjects types.Dict

	fontCache map[string]*content.Font
	xobjCache map[string]*content.XObject
}

func newResources(ctx *model.Context, o types.Object) (*resources, error) {
	r := &resources{
		ctx:       ctx,
		fontCache: make(map[string]*content.Font),
		xobjCache: make(map[string]*content.XObject),
	}
	dict, err := derefDict(ctx, o)
	if err != nil || dict == nil {
		return r, err
	}
	if r.fonts, err = subDict(ctx, dict, "Font"); err != nil {
		return nil, err
	}
	if r.xobjects, err = subDict(ctx, dict, "XObject"); err != nil {
		return nil, err
	}
	return r, nil
}

func subDict(ctx *model.Context, d types.Dict, key string) (types.Dict, error) {
	o, found := d.Find(key)
	if !found {
		return nil, nil
	}
	return derefDict(ctx, o)
}

// Font implements content.Resources.
func (r *resources) Font(name string) (*content.Font, error) {
	if f, ok := r.fontCache[name]; ok {
		return f, nil
	}
	o, found := r.fonts.Find(name)
	if !found {
		return nil, nil
	}
	fontDict, err := derefDict(r.ctx, o)
	if err != nil {
		return nil, err
	}
	var font *content.Font
	if fontDict != nil {
		if font, err = r.loadFont(fontDict); err != nil {
			return nil, err
		}
	}
	r.fontCache[name] = font
	return font, nil
}

func (r *resources) loadFont(d types.Dict) (*content.Font, error) {
	subtype := ""
	if s := d.Subtype(); s != nil {
		subtype = *s
	}

	if subtype == "Type0" {
		return r.loadCompositeFont(d)
	}

	firstChar, _ := numberEntry(r.ctx, d, "FirstChar")
	widthsObj, _ := d.Find("Widths")
	widths, err := floatArray(r.ctx, widthsObj)
	if err != nil {
		return nil, err
	}

	descriptor, err := subDict(r.ctx, d, "FontDescriptor")
	if err != nil {
		return nil, err
	}
	missing := 0.0
	if descriptor != nil {
		missing, _ = numberEntry(r.ctx, descriptor, "MissingWidth")
	}

	font := content.NewSimpleFont(int(firstChar), widths, missing)
	if subtype == "Type3" {
		matrixObj, _ := d.Find("FontMatrix")
		if m, err := floatArray(r.ctx, matrixObj); err == nil && len(m) == 6 && m[0] != 0 {
			font.WidthScale = m[0]
		}
	}
	if descriptor != nil {
		ascent, _ := numberEntry(r.ctx, descriptor, "Ascent")
		descent, _ := numberEntry(r.ctx, descriptor, "Descent")
		font.SetMetrics(ascent, descent)
	}
	return font, nil
}

func (r *resources) loadCompositeFont(d types.Dict) (*content.Font, error) {
	descendantsObj, _ := d.Find("DescendantFonts")
	descendants, err := derefArray(r.ctx, descendantsObj)
	if err != nil {
		return nil, err
	}
	if len(descendants) == 0 {
		return content.NewCompositeFont(nil, 1000), nil
	}
	cid, err := derefDict(r.ctx, descendants[0])
	if err != nil || cid == nil {
		return content.NewCompositeFont(nil, 1000), err
	}

	dw := 1000.0
	if v, ok := numberEntry(r.ctx, cid, "DW"); ok {
		dw = v
	}
	wObj, _ := cid.Find("W")
	widths, err := r.cidWidths(wObj)
	if err != nil {
		return nil, err
	}

	font := content.NewCompositeFont(widths, dw)
	descriptor, err := subDict(r.ctx, cid, "FontDescriptor")
	if err != nil {
		return nil, err
	}
	if descriptor != nil {
		ascent, _ := numberEntry(r.ctx, descriptor, "Ascent")
		descent, _ := numberEntry(r.ctx, descriptor, "Descent")
		font.SetMetrics(ascent, descent)
	}
	return font, nil
}

// cidWidths decodes a W array: "c [w1 w2 ...]" and "cFirst cLast w" groups.
func (r *resources) cidWidths(o types.Object) (map[int]float64, error) {
	arr, err := derefArray(r.ctx, o)
	if err != nil || arr == nil {
		return nil, err
	}
	widths := make(map[int]float64)
	for i := 0; i < len(arr); {
		first, ok := toFloat(arr[i])
		if !ok || i+1 >= len(arr) {
			break
		}
		next, err := deref(r.ctx, arr[i+1])
		if err != nil {
			return nil, err
		}
		if list, ok := next.(types.Array); ok {
			for j, item := range list {
				if w, ok := toFloat(item); ok {
					widths[int(first)+j] = w
				}
			}
			i += 2
			continue
		}
		if i+2 >= len(arr) {
			break
		}
		last, _ := toFloat(next)
		w, _ := toFloat(arr[i+2])
		for c := int(first); c <= int(last); c++ {
			widths[c] = w
		}
		i += 3
	}
	return widths, nil
}

// XObject implements content.Resources.
func (r *resources) XObject(name string) (*content.XObject, error) {
	if x, ok := r.xobjCache[name]; ok {
		return x, nil
	}
	o, found := r.xobjects.Find(name)
	if !found {
		return nil, nil
	}
	obj, err := deref(r.ctx, o)
	if err != nil {
		return nil, err
	}
	sd, ok := obj.(types.StreamDict)
	if !ok {
		r.xobjCache[name] = nil
		return nil, nil
	}

	x := &content.XObject{Matrix: content.Identity()}
	if s := sd.Subtype(); s != nil {
		x.Subtype = *s
	}

	if x.Subtype == "Form" {
		if err := sd.Decode(); err != nil {
			return nil, fmt.Errorf("decode form: %w", err)
		}
		x.Content = sd.Content

		matrixObj, _ := sd.Find("Matrix")
		if m, err := floatArray(r.ctx, matrixObj); err == nil && len(m) == 6 {
			x.Matrix = content.Matrix{m[0], m[1], m[2], m[3], m[4], m[5]}
		}

		if resObj, found := sd.Find("Resources"); found {
			formRes, err := newResources(r.ctx, resObj)
			if err != nil {
				return nil, err
			}
			x.Resources = formRes
		}
	}

	r.xobjCache[name] = x
	return x, nil
}
