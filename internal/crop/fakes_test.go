package crop

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-cropper/internal/domain"
)

var letter = domain.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}

type fakePage struct {
	number   int
	rect     domain.Rect
	text     []domain.Rect
	images   []string
	placed   map[string][]domain.Rect
	drawings []domain.Drawing

	textErr  error
	panicMsg string
	setCalls int
}

func (p *fakePage) Number() int       { return p.number }
func (p *fakePage) Rect() domain.Rect { return p.rect }

func (p *fakePage) TextBlocks() ([]domain.Rect, error) {
	if p.panicMsg != "" {
		panic(p.panicMsg)
	}
	return p.text, p.textErr
}

func (p *fakePage) Images() ([]domain.ImageRef, error) {
	refs := make([]domain.ImageRef, len(p.images))
	for i, name := range p.images {
		refs[i] = domain.ImageRef{Name: name}
	}
	return refs, nil
}

func (p *fakePage) ImageRects(ref domain.ImageRef) ([]domain.Rect, error) {
	return p.placed[ref.Name], nil
}

func (p *fakePage) Drawings() ([]domain.Drawing, error) { return p.drawings, nil }

func (p *fakePage) SetCropRegion(r domain.Rect) error {
	p.setCalls++
	p.rect = r
	return nil
}

func (p *fakePage) clone(number int) *fakePage {
	c := *p
	c.number = number
	c.setCalls = 0
	return &c
}

// recorder is shared by a document and its page copies.
type recorder struct {
	mu     sync.Mutex
	saved  []string
	closed int
}

func (r *recorder) save(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, path)
}

type fakeDoc struct {
	pages []*fakePage
	rec   *recorder

	// failSaveOn makes the Nth save (1-based) across the document and its copies fail
	failSaveOn int
	saves      *int
	copyErr    error
}

func newFakeDoc(pages ...*fakePage) *fakeDoc {
	for i, p := range pages {
		p.number = i + 1
	}
	saves := 0
	return &fakeDoc{pages: pages, rec: &recorder{}, saves: &saves}
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) Page(number int) (domain.Page, error) {
	if number < 1 || number > len(d.pages) {
		return nil, domain.ProcessingError("page out of range", nil)
	}
	return d.pages[number-1], nil
}

func (d *fakeDoc) CopyPage(number int) (domain.Document, error) {
	if d.copyErr != nil {
		return nil, d.copyErr
	}
	return &fakeDoc{
		pages:      []*fakePage{d.pages[number-1].clone(1)},
		rec:        d.rec,
		failSaveOn: d.failSaveOn,
		saves:      d.saves,
	}, nil
}

func (d *fakeDoc) Save(path string) error {
	*d.saves++
	if d.failSaveOn > 0 && *d.saves == d.failSaveOn {
		return domain.SaveError("disk full", errors.New("ENOSPC"))
	}
	d.rec.save(path)
	return nil
}

func (d *fakeDoc) Close() error {
	d.rec.mu.Lock()
	defer d.rec.mu.Unlock()
	d.rec.closed++
	return nil
}

type fakeBackend struct {
	docs map[string]*fakeDoc
}

func (b *fakeBackend) Open(path string) (domain.Document, error) {
	doc, ok := b.docs[path]
	if !ok {
		return nil, domain.OpenError("cannot open "+filepath.Base(path), errors.New("corrupt xref"))
	}
	return doc, nil
}

// touchPDFs creates empty files so that path validation passes.
func touchPDFs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(paths[i], []byte("%PDF-1.4\n"), 0o644))
	}
	return paths
}

func rectPtr(r domain.Rect) *domain.Rect { return &r }

func textPage(text ...domain.Rect) *fakePage {
	return &fakePage{rect: letter, text: text}
}
