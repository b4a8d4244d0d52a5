package crop

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-cropper/internal/domain"
)

func fourPageDoc() *fakeDoc {
	return newFakeDoc(
		textPage(domain.Rect{X0: 100, Y0: 100, X1: 200, Y1: 200}),
		textPage(domain.Rect{X0: 50, Y0: 60, X1: 500, Y1: 700}),
		&fakePage{rect: letter},
		textPage(domain.Rect{X0: 300, Y0: 300, X1: 310, Y1: 310}),
	)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		outputDir string
		suffix    string
		page      int
		want      string
	}{
		{"whole document", "/docs/report.pdf", "", "_cropped", 0, "/docs/report_cropped.pdf"},
		{"per page", "/docs/report.pdf", "", "_cropped", 3, "/docs/report_page3_cropped.pdf"},
		{"output dir", "/docs/report.pdf", "/out", "_trim", 0, "/out/report_trim.pdf"},
		{"upper-case extension", "/docs/SCAN.PDF", "", "_c", 12, "/docs/SCAN_page12_c.PDF"},
		{"dots in name", "/docs/v1.2.final.pdf", "", "_cropped", 0, "/docs/v1.2.final_cropped.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), OutputPath(filepath.FromSlash(tt.src), filepath.FromSlash(tt.outputDir), tt.suffix, tt.page))
		})
	}
}

func TestExport_PerPageWritesOneFilePerPage(t *testing.T) {
	doc := fourPageDoc()
	exporter := NewExporter(NewDetector(nil), nil)
	src := filepath.Join("/docs", "report.pdf")

	var outcomes []domain.PageOutcome
	outputs, err := exporter.Export(doc, src, domain.ExportPerPage, ExportOptions{Suffix: "_cropped", Margin: 5},
		func(o domain.PageOutcome) { outcomes = append(outcomes, o) })
	require.NoError(t, err)

	want := []string{
		filepath.Join("/docs", "report_page1_cropped.pdf"),
		filepath.Join("/docs", "report_page2_cropped.pdf"),
		filepath.Join("/docs", "report_page3_cropped.pdf"),
		filepath.Join("/docs", "report_page4_cropped.pdf"),
	}
	assert.Equal(t, want, outputs)
	assert.Equal(t, want, doc.rec.saved)

	require.Len(t, outcomes, 4)
	for i, o := range outcomes {
		assert.Equal(t, i+1, o.Number)
	}
	assert.Nil(t, outcomes[2].Crop, "empty page stays uncropped")
	assert.Equal(t, domain.Rect{X0: 95, Y0: 95, X1: 205, Y1: 205}, *outcomes[0].Crop)

	for _, p := range doc.pages {
		assert.Zero(t, p.setCalls, "per-page export never mutates the source pages")
	}
	assert.Equal(t, 4, doc.rec.closed, "every page copy is closed")
}

func TestExport_WholeDocumentWritesOneFile(t *testing.T) {
	doc := fourPageDoc()
	exporter := NewExporter(NewDetector(nil), nil)
	src := filepath.Join("/docs", "report.pdf")

	outputs, err := exporter.Export(doc, src, domain.ExportWholeDocument, ExportOptions{Suffix: "_cropped", Margin: 5}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join("/docs", "report_cropped.pdf")}, outputs)
	assert.Equal(t, 1, doc.pages[0].setCalls)
	assert.Equal(t, 1, doc.pages[1].setCalls)
	assert.Equal(t, 0, doc.pages[2].setCalls)
	assert.Equal(t, domain.Rect{X0: 45, Y0: 55, X1: 505, Y1: 705}, doc.pages[1].Rect())
}

func TestExport_WholeDocumentSaveFailureWritesNothing(t *testing.T) {
	doc := fourPageDoc()
	doc.failSaveOn = 1

	outputs, err := NewExporter(NewDetector(nil), nil).WholeDocument(doc, "/docs/report.pdf", ExportOptions{Suffix: "_cropped"}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeSave))
	assert.Empty(t, outputs)
}

func TestExport_PerPageFailureKeepsEarlierPages(t *testing.T) {
	doc := fourPageDoc()
	doc.failSaveOn = 3

	outputs, err := NewExporter(NewDetector(nil), nil).PerPage(doc, "/docs/report.pdf", ExportOptions{Suffix: "_cropped"}, nil)
	require.Error(t, err)
	assert.Len(t, outputs, 2)
	assert.Equal(t, 3, doc.rec.closed, "the failing copy is closed too")
}

func TestExport_CreatesOutputDir(t *testing.T) {
	doc := newFakeDoc(textPage(domain.Rect{X0: 1, Y0: 1, X1: 2, Y1: 2}))
	outDir := filepath.Join(t.TempDir(), "nested", "out")

	outputs, err := NewExporter(NewDetector(nil), nil).Export(doc, "/docs/a.pdf", "", ExportOptions{Suffix: "_x", OutputDir: outDir}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(outDir, "a_x.pdf")}, outputs)
	assert.DirExists(t, outDir)
}

func TestExport_UnknownMode(t *testing.T) {
	_, err := NewExporter(NewDetector(nil), nil).Export(newFakeDoc(), "/docs/a.pdf", "spread", ExportOptions{}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}
