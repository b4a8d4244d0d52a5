package crop_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-cropper/internal/crop"
	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/pdf"
	"github.com/spherical/pdf-cropper/internal/pdf/pdftest"
)

// TestPipeline_CropAndReopen runs a batch against real files and checks the
// crop boxes written to disk.
func TestPipeline_CropAndReopen(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.WriteFileIn(t, dir, "report.pdf",
		pdftest.Letter("0 0 612 792 re f 100 100 200 150 re f"),
		pdftest.Letter(""),
		pdftest.Page{MediaBox: "0 0 300 400", Content: "0 0 300 400 re f q 1 0 0 1 50 50 cm 0 0 10 10 re f Q"},
	)

	backend := pdf.NewBackend(0, nil)
	svc := crop.NewService(backend, nil)

	events, err := svc.Start(context.Background(), crop.NewRequest(src))
	require.NoError(t, err)

	var result *domain.BatchResult
	pages := 0
	for ev := range events {
		switch ev.Type {
		case domain.EventPageComplete:
			pages++
		case domain.EventError:
			t.Errorf("error event: %v", ev.Payload)
		case domain.EventComplete:
			result = ev.Payload.(*domain.BatchResult)
		}
	}
	require.NotNil(t, result)
	assert.Equal(t, 3, pages)
	assert.Equal(t, 1, result.ProcessedFiles)

	out := filepath.Join(dir, "report_cropped.pdf")
	require.Equal(t, []string{out}, result.Files[0].Outputs)

	doc, err := backend.Open(out)
	require.NoError(t, err)
	defer doc.Close()
	require.Equal(t, 3, doc.PageCount())

	want := []domain.Rect{
		{X0: 95, Y0: 95, X1: 305, Y1: 255},
		{X0: 0, Y0: 0, X1: 612, Y1: 792},
		{X0: 45, Y0: 45, X1: 65, Y1: 65},
	}
	for i, w := range want {
		page, err := doc.Page(i + 1)
		require.NoError(t, err)
		assertRectNear(t, w, page.Rect(), "page %d", i+1)
	}
}

// TestPipeline_PerPageExport splits a four page file into one cropped file
// per page and reopens each of them.
func TestPipeline_PerPageExport(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.WriteFileIn(t, dir, "report.pdf",
		pdftest.Letter("0 0 612 792 re f 100 100 200 150 re f"),
		pdftest.Letter(""),
		pdftest.Page{MediaBox: "0 0 300 400", Content: "0 0 300 400 re f q 1 0 0 1 50 50 cm 0 0 10 10 re f Q"},
		pdftest.Page{MediaBox: "0 0 300 400", CropBox: "10 10 290 390", Content: "0 0 300 400 re f 20 20 50 50 re f"},
	)

	backend := pdf.NewBackend(0, nil)
	req := crop.NewRequest(src)
	req.Mode = domain.ExportPerPage

	result, err := crop.NewService(backend, nil).ProcessBatch(context.Background(), req, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.ProcessedFiles)
	assert.Equal(t, 4, result.Artifacts)

	want := []domain.Rect{
		{X0: 95, Y0: 95, X1: 305, Y1: 255},
		{X0: 0, Y0: 0, X1: 612, Y1: 792},
		{X0: 45, Y0: 45, X1: 65, Y1: 65},
		{X0: 15, Y0: 15, X1: 75, Y1: 75},
	}
	require.Len(t, result.Files[0].Outputs, len(want))
	for i, w := range want {
		out := filepath.Join(dir, fmt.Sprintf("report_page%d_cropped.pdf", i+1))
		assert.Equal(t, out, result.Files[0].Outputs[i])

		doc, err := backend.Open(out)
		require.NoError(t, err)
		assert.Equal(t, 1, doc.PageCount(), "page %d", i+1)
		page, err := doc.Page(1)
		require.NoError(t, err)
		assertRectNear(t, w, page.Rect(), "page %d", i+1)
		require.NoError(t, doc.Close())
	}

	original, err := backend.Open(src)
	require.NoError(t, err)
	defer original.Close()
	first, err := original.Page(1)
	require.NoError(t, err)
	assertRectNear(t, domain.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}, first.Rect(), "source is not modified")
}

// TestPipeline_RecropIsStable crops an already cropped file again.
func TestPipeline_RecropIsStable(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.WriteFileIn(t, dir, "a.pdf", pdftest.Letter("BT /F1 10 Tf 72 72 Td (Stable) Tj ET"))
	backend := pdf.NewBackend(0, nil)
	svc := crop.NewService(backend, nil)

	first, err := svc.ProcessBatch(context.Background(), crop.NewRequest(src), nil)
	require.NoError(t, err)
	require.Equal(t, 1, first.ProcessedFiles)

	second, err := svc.ProcessBatch(context.Background(), crop.NewRequest(first.Files[0].Outputs[0]), nil)
	require.NoError(t, err)
	require.Equal(t, 1, second.ProcessedFiles)

	a := pageRect(t, backend, first.Files[0].Outputs[0])
	b := pageRect(t, backend, second.Files[0].Outputs[0])
	assertRectNear(t, a, b, "re-cropping changes nothing")
	assert.Equal(t, filepath.Join(dir, "a_cropped_cropped.pdf"), second.Files[0].Outputs[0])
}

func pageRect(t *testing.T, backend domain.Backend, path string) domain.Rect {
	t.Helper()
	doc, err := backend.Open(path)
	require.NoError(t, err)
	defer doc.Close()
	page, err := doc.Page(1)
	require.NoError(t, err)
	return page.Rect()
}

func assertRectNear(t *testing.T, want, got domain.Rect, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X0, got.X0, 1e-3, msgAndArgs...)
	assert.InDelta(t, want.Y0, got.Y0, 1e-3, msgAndArgs...)
	assert.InDelta(t, want.X1, got.X1, 1e-3, msgAndArgs...)
	assert.InDelta(t, want.Y1, got.Y1, 1e-3, msgAndArgs...)
}
