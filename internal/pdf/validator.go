package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/observability"
)

// largeFileSize is the size above which a warning is logged.
const largeFileSize = 100 * 1024 * 1024

// Validator provides input validation for PDF files and crop parameters
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a new validator instance
func NewValidator(logger *observability.Logger) *Validator {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Validator{logger: logger}
}

// ValidatePDFPath validates that a file path is valid and points to a PDF
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %q): %s", ext, path), nil)
	}

	// large files are allowed, just slow
	if info.Size() > largeFileSize {
		v.logger.Warn().
			Str("file", path).
			Int("size_mb", int(info.Size()/(1024*1024))).
			Msg("PDF file is very large, processing may take a while")
	}

	return nil
}

// ValidateFiles validates a non-empty batch of paths, failing on the first bad one
func (v *Validator) ValidateFiles(paths []string) error {
	if len(paths) == 0 {
		return domain.ValidationError("no input files given", nil)
	}
	for _, p := range paths {
		if err := v.ValidatePDFPath(p); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMargin validates the crop margin in points
func (v *Validator) ValidateMargin(margin int) error {
	if margin < 0 {
		return domain.ValidationError(fmt.Sprintf("margin must be non-negative, got %d", margin), nil)
	}
	return nil
}

// ValidateSuffix rejects suffixes that would place output outside the target directory
func (v *Validator) ValidateSuffix(suffix string) error {
	if strings.ContainsAny(suffix, `/\`) {
		return domain.ValidationError(fmt.Sprintf("suffix must not contain path separators: %q", suffix), nil)
	}
	return nil
}
