package commands

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spherical/pdf-cropper/cmd/pdf-cropper/ui"
	"github.com/spherical/pdf-cropper/internal/domain"
)

// Headline summarizes a batch in one line and reports whether every file
// was processed.
func Headline(result *domain.BatchResult) (string, bool) {
	switch {
	case result.Cancelled:
		return fmt.Sprintf("cancelled after %d of %d files, %d succeeded, %d failed",
			len(result.Files), result.TotalFiles, result.ProcessedFiles, result.FailedFiles()), false
	case len(result.Errors) == 0:
		return fmt.Sprintf("all %d files processed", result.TotalFiles), true
	default:
		return fmt.Sprintf("processed %d files, %d succeeded, %d failed",
			result.TotalFiles, result.ProcessedFiles, len(result.Errors)), false
	}
}

func printSummary(result *domain.BatchResult) {
	ui.Section("Summary")

	rows := make([][]string, 0, len(result.Files))
	for _, f := range result.Files {
		status := "ok"
		if !f.Succeeded() {
			status = "failed"
		}
		outputs := "-"
		if len(f.Outputs) == 1 {
			outputs = f.Outputs[0]
		} else if len(f.Outputs) > 1 {
			outputs = fmt.Sprintf("%d files in %s", len(f.Outputs), filepath.Dir(f.Outputs[0]))
		}
		rows = append(rows, []string{filepath.Base(f.Path), status, outputs})
	}
	ui.Table([]string{"File", "Status", "Output"}, rows)
	ui.Newline()

	ui.KeyValue("Artifacts", fmt.Sprintf("%d", result.Artifacts))
	ui.KeyValue("Duration", ui.FormatDuration(result.Duration))
	ui.Newline()

	headline, ok := Headline(result)
	if ok {
		ui.Success("%s", headline)
		return
	}
	if result.Cancelled {
		ui.Warning("%s", headline)
	} else {
		ui.Error("%s", headline)
	}
	if len(result.Errors) > 0 {
		fmt.Print(ui.FormatList(result.Errors))
	}
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, strings.TrimSuffix(word, "s"))
}

func formatSize(w, h int) string {
	return fmt.Sprintf("%d x %d px", w, h)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
