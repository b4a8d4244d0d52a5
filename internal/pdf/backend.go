// Package pdf implements the document collaborator used by the cropper on top
// of pdfcpu: opening, page geometry, crop box updates, single-page copies and saving.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/observability"
	"github.com/spherical/pdf-cropper/internal/pdf/content"
)

var disableConfigDir sync.Once

// Backend opens PDF files with pdfcpu.
type Backend struct {
	interp *content.Interpreter
	logger *observability.Logger
}

// NewBackend creates a backend. maxFormDepth bounds Form XObject nesting
// during content analysis; non-positive values use the default.
func NewBackend(maxFormDepth int, logger *observability.Logger) *Backend {
	// pdfcpu would otherwise create a config directory under the user's home
	disableConfigDir.Do(func() { model.ConfigPath = "disable" })

	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Backend{
		interp: content.NewInterpreter(maxFormDepth),
		logger: logger,
	}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open reads and validates the document at path.
func (b *Backend) Open(path string) (domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.OpenError(fmt.Sprintf("cannot read %s", filepath.Base(path)), err)
	}

	doc, err := b.load(raw)
	if err != nil {
		return nil, domain.OpenError(fmt.Sprintf("cannot open %s", filepath.Base(path)), err)
	}
	doc.name = filepath.Base(path)

	b.logger.Debug().
		Str("file", path).
		Int("pages", doc.PageCount()).
		Msg("document opened")
	return doc, nil
}

func (b *Backend) load(raw []byte) (*Document, error) {
	ctx, err := api.ReadContext(bytes.NewReader(raw), newConfiguration())
	if err != nil {
		return nil, err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, err
	}
	return &Document{backend: b, raw: raw, ctx: ctx}, nil
}

// Document is a pdfcpu-backed document.
type Document struct {
	backend *Backend
	name    string
	raw     []byte
	ctx     *model.Context

	pristine *model.Context
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	if d.ctx == nil {
		return 0
	}
	return d.ctx.PageCount
}

// Page returns the 1-based page number.
func (d *Document) Page(number int) (domain.Page, error) {
	if d.ctx == nil {
		return nil, domain.ProcessingError("document is closed", nil)
	}
	if number < 1 || number > d.ctx.PageCount {
		return nil, domain.ProcessingError(fmt.Sprintf("page %d out of range 1..%d", number, d.ctx.PageCount), nil)
	}

	pageDict, _, _, err := d.ctx.PageDict(number, false)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot load page %d", number), err)
	}
	if pageDict == nil {
		return nil, domain.ProcessingError(fmt.Sprintf("page %d not found", number), nil)
	}

	rect, err := visibleRect(d.ctx, pageDict)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot read boxes of page %d", number), err)
	}

	return &Page{doc: d, number: number, dict: pageDict, rect: rect}, nil
}

// CopyPage returns a new single-page document holding page number of the
// document as it was read, without any crop changes made since.
func (d *Document) CopyPage(number int) (domain.Document, error) {
	if d.ctx == nil {
		return nil, domain.ProcessingError("document is closed", nil)
	}
	if number < 1 || number > d.ctx.PageCount {
		return nil, domain.ProcessingError(fmt.Sprintf("page %d out of range 1..%d", number, d.ctx.PageCount), nil)
	}

	src, err := d.source()
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot copy page %d", number), err)
	}

	r, err := api.ExtractPage(src, number)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot copy page %d", number), err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot copy page %d", number), err)
	}

	copied, err := d.backend.load(data)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot reopen copy of page %d", number), err)
	}
	copied.name = fmt.Sprintf("%s#%d", d.name, number)
	return copied, nil
}

// source returns an unmodified context of the raw bytes, read on first use
// and shared by every later copy.
func (d *Document) source() (*model.Context, error) {
	if d.pristine != nil {
		return d.pristine, nil
	}
	conf := newConfiguration()
	conf.Cmd = model.EXTRACTPAGES
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(d.raw), conf)
	if err != nil {
		return nil, err
	}
	d.pristine = ctx
	d.raw = nil
	return ctx, nil
}

// Save writes the document to path.
func (d *Document) Save(path string) error {
	if d.ctx == nil {
		return domain.SaveError("document is closed", nil)
	}
	if err := api.WriteContextFile(d.ctx, path); err != nil {
		return domain.SaveError(fmt.Sprintf("cannot write %s", path), err)
	}
	return nil
}

// Close releases the document. Safe to call more than once.
func (d *Document) Close() error {
	d.ctx = nil
	d.raw = nil
	d.pristine = nil
	return nil
}

// Page is one page of a Document.
type Page struct {
	doc    *Document
	number int
	dict   types.Dict
	rect   domain.Rect

	analysis *content.Result
}

// Number returns the 1-based page number.
func (p *Page) Number() int { return p.number }

// Rect returns the visible region of the page.
func (p *Page) Rect() domain.Rect { return p.rect }

// TextBlocks returns one rectangle per text object.
func (p *Page) TextBlocks() ([]domain.Rect, error) {
	result, err := p.analyze()
	if err != nil {
		return nil, err
	}
	return result.TextBlocks, nil
}

// Images returns a reference per distinct image drawn on the page.
func (p *Page) Images() ([]domain.ImageRef, error) {
	result, err := p.analyze()
	if err != nil {
		return nil, err
	}
	names := result.ImageNames()
	refs := make([]domain.ImageRef, len(names))
	for i, name := range names {
		refs[i] = domain.ImageRef{Name: name}
	}
	return refs, nil
}

// ImageRects returns every placement of ref on the page.
func (p *Page) ImageRects(ref domain.ImageRef) ([]domain.Rect, error) {
	result, err := p.analyze()
	if err != nil {
		return nil, err
	}
	return result.ImageRects(ref.Name), nil
}

// Drawings returns the painted paths in content-stream order.
func (p *Page) Drawings() ([]domain.Drawing, error) {
	result, err := p.analyze()
	if err != nil {
		return nil, err
	}
	return result.Drawings, nil
}

// SetCropRegion replaces the page's CropBox.
func (p *Page) SetCropRegion(r domain.Rect) error {
	if p.doc.ctx == nil {
		return domain.ProcessingError("document is closed", nil)
	}
	if !r.Valid() {
		return domain.ProcessingError(fmt.Sprintf("invalid crop region %s", r), nil)
	}
	p.dict.Update("CropBox", types.NewRectangle(r.X0, r.Y0, r.X1, r.Y1).Array())
	p.rect = r
	return nil
}

func (p *Page) analyze() (*content.Result, error) {
	if p.analysis != nil {
		return p.analysis, nil
	}
	ctx := p.doc.ctx
	if ctx == nil {
		return nil, domain.ProcessingError("document is closed", nil)
	}

	contents, _ := p.dict.Find("Contents")
	data, err := streamContent(ctx, contents)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot decode content of page %d", p.number), err)
	}

	resObj, err := inherited(ctx, p.dict, "Resources")
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot resolve resources of page %d", p.number), err)
	}
	res, err := newResources(ctx, resObj)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot resolve resources of page %d", p.number), err)
	}

	result, err := p.doc.backend.interp.Run(data, res)
	if err != nil {
		return nil, domain.ProcessingError(fmt.Sprintf("cannot interpret content of page %d", p.number), err)
	}

	p.doc.backend.logger.Debug().
		Str("document", p.doc.name).
		Int("page", p.number).
		Int("text_blocks", len(result.TextBlocks)).
		Int("images", len(result.Images)).
		Int("drawings", len(result.Drawings)).
		Msg("page content analysed")

	p.analysis = result
	return result, nil
}
