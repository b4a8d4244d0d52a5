package crop

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/observability"
)

// ExportOptions control how one document is cropped and written.
type ExportOptions struct {
	Suffix    string
	Margin    int
	OutputDir string // empty means next to the source file
}

// PageObserver is notified after every page has been processed.
type PageObserver func(outcome domain.PageOutcome)

// Exporter crops documents and writes the results.
type Exporter struct {
	detector *Detector
	logger   *observability.Logger
}

// NewExporter creates an exporter using detector.
func NewExporter(detector *Detector, logger *observability.Logger) *Exporter {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Exporter{detector: detector, logger: logger}
}

// OutputPath derives the output file name for srcPath. A page of 0 names the
// whole-document output, {base}{suffix}{ext}; a positive page names the
// per-page output, {base}_page{N}{suffix}{ext}.
func OutputPath(srcPath, outputDir, suffix string, page int) string {
	dir := filepath.Dir(srcPath)
	if outputDir != "" {
		dir = outputDir
	}
	ext := filepath.Ext(srcPath)
	base := strings.TrimSuffix(filepath.Base(srcPath), ext)
	if page > 0 {
		base = fmt.Sprintf("%s_page%d", base, page)
	}
	return filepath.Join(dir, base+suffix+ext)
}

// Export runs the export strategy for mode and returns the files written.
func (e *Exporter) Export(doc domain.Document, srcPath string, mode domain.ExportMode, opts ExportOptions, observe PageObserver) ([]string, error) {
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, domain.IOError(fmt.Sprintf("cannot create output directory %s", opts.OutputDir), err)
		}
	}

	switch mode {
	case domain.ExportPerPage:
		return e.PerPage(doc, srcPath, opts, observe)
	case domain.ExportWholeDocument, "":
		return e.WholeDocument(doc, srcPath, opts, observe)
	default:
		return nil, domain.ValidationError(fmt.Sprintf("unknown export mode %q", mode), nil)
	}
}

// WholeDocument crops every page of doc in place and saves it once. Nothing
// is reported as written unless the save succeeds.
func (e *Exporter) WholeDocument(doc domain.Document, srcPath string, opts ExportOptions, observe PageObserver) ([]string, error) {
	for n := 1; n <= doc.PageCount(); n++ {
		page, err := doc.Page(n)
		if err != nil {
			return nil, err
		}
		if err := e.cropPage(page, opts.Margin, observe); err != nil {
			return nil, err
		}
	}

	out := OutputPath(srcPath, opts.OutputDir, opts.Suffix, 0)
	if err := doc.Save(out); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("file", srcPath).
		Str("output", out).
		Int("pages", doc.PageCount()).
		Msg("document cropped")
	return []string{out}, nil
}

// PerPage writes every page of doc as its own cropped single-page document.
// On failure the files already written are returned with the error.
func (e *Exporter) PerPage(doc domain.Document, srcPath string, opts ExportOptions, observe PageObserver) ([]string, error) {
	var outputs []string
	for n := 1; n <= doc.PageCount(); n++ {
		out, err := e.exportPage(doc, n, srcPath, opts, observe)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}

	e.logger.Info().
		Str("file", srcPath).
		Int("outputs", len(outputs)).
		Msg("pages exported")
	return outputs, nil
}

func (e *Exporter) exportPage(doc domain.Document, n int, srcPath string, opts ExportOptions, observe PageObserver) (string, error) {
	single, err := doc.CopyPage(n)
	if err != nil {
		return "", err
	}
	defer single.Close()

	page, err := single.Page(1)
	if err != nil {
		return "", err
	}
	outcome, err := e.crop(page, opts.Margin)
	if err != nil {
		return "", err
	}
	outcome.Number = n

	out := OutputPath(srcPath, opts.OutputDir, opts.Suffix, n)
	if err := single.Save(out); err != nil {
		return "", err
	}
	if observe != nil {
		observe(outcome)
	}
	return out, nil
}

func (e *Exporter) cropPage(page domain.Page, margin int, observe PageObserver) error {
	outcome, err := e.crop(page, margin)
	if err != nil {
		return err
	}
	if observe != nil {
		observe(outcome)
	}
	return nil
}

func (e *Exporter) crop(page domain.Page, margin int) (domain.PageOutcome, error) {
	outcome := domain.PageOutcome{Number: page.Number(), Native: page.Rect()}
	region, err := e.detector.Detect(page, margin)
	if err != nil {
		return outcome, err
	}
	if _, err := ApplyCrop(page, region); err != nil {
		return outcome, err
	}
	outcome.Crop = region
	return outcome, nil
}
