// Package pdftest builds small uncompressed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Page is one page of a generated document. Boxes use PDF array syntax
// without brackets, e.g. "0 0 612 792".
type Page struct {
	MediaBox string
	CropBox  string
	Content  string
}

// Letter returns a US Letter page drawing content.
func Letter(content string) Page {
	return Page{MediaBox: "0 0 612 792", Content: content}
}

// Build assembles a PDF 1.4 file. Object layout: 1 catalog, 2 page tree,
// 3 Helvetica as /F1, then a page and content stream pair per page.
func Build(pages ...Page) []byte {
	var objects []string

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)

	for i, p := range pages {
		page := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [%s] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R", p.MediaBox, 5+2*i)
		if p.CropBox != "" {
			page += fmt.Sprintf(" /CropBox [%s]", p.CropBox)
		}
		page += " >>"
		stream := fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.Content), p.Content)
		objects = append(objects, page, stream)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// WriteFile writes Build(pages...) to name inside a fresh temp directory.
func WriteFile(t testing.TB, name string, pages ...Page) string {
	t.Helper()
	return WriteFileIn(t, t.TempDir(), name, pages...)
}

// WriteFileIn writes Build(pages...) to dir/name.
func WriteFileIn(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, Build(pages...), 0o644))
	return path
}
