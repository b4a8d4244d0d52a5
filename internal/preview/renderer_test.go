package preview

import (
	"bytes"
	"context"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/pdf/pdftest"
)

const square = "0 0 0 rg 20 20 50 50 re f"

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("docs", "report_page3.png"), OutputPath(filepath.Join("docs", "report.pdf"), 3))
}

func TestNewRenderer_DefaultDPI(t *testing.T) {
	assert.Equal(t, DefaultDPI, NewRenderer(0, nil).DPI())
	assert.Equal(t, 300.0, NewRenderer(300, nil).DPI())
}

func TestRender_PageSizeFollowsDPI(t *testing.T) {
	path := pdftest.WriteFile(t, "sample.pdf", pdftest.Page{MediaBox: "0 0 200 100", Content: square})

	var buf bytes.Buffer
	img, err := NewRenderer(72, nil).Render(context.Background(), path, 1, &buf)
	require.NoError(t, err)
	assert.InDelta(t, 200, img.Width, 1)
	assert.InDelta(t, 100, img.Height, 1)

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Width, decoded.Bounds().Dx())
}

func TestRenderFile(t *testing.T) {
	path := pdftest.WriteFile(t, "sample.pdf", pdftest.Page{MediaBox: "0 0 144 144", Content: square})

	img, err := NewRenderer(144, nil).RenderFile(context.Background(), path, 1, "")
	require.NoError(t, err)
	assert.Equal(t, OutputPath(path, 1), img.Path)
	assert.FileExists(t, img.Path)
	assert.InDelta(t, 288, img.Width, 1)
}

func TestRender_Errors(t *testing.T) {
	path := pdftest.WriteFile(t, "sample.pdf", pdftest.Page{MediaBox: "0 0 200 100", Content: square})
	renderer := NewRenderer(72, nil)

	_, err := renderer.Render(context.Background(), path, 2, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	_, err = renderer.Render(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), 1, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	out := filepath.Join(t.TempDir(), "out.png")
	_, err = renderer.RenderFile(context.Background(), path, 0, out)
	require.Error(t, err)
	assert.NoFileExists(t, out)
}
