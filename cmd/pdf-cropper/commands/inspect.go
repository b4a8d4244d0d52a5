package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-cropper/cmd/pdf-cropper/ui"
	"github.com/spherical/pdf-cropper/internal/crop"
	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/pdf"
)

var (
	inspectMargin int
	inspectJSON   bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the detected crop box of every page without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectMargin, "margin", "m", crop.DefaultMargin, "padding around the content, in points")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(inspectCmd)
}

// PageReport is the inspect output for one page.
type PageReport struct {
	Page    int          `json:"page"`
	Native  domain.Rect  `json:"native"`
	Content *domain.Rect `json:"content,omitempty"`
	Crop    *domain.Rect `json:"crop,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	margin := cfg.Crop.Margin
	if cmd.Flags().Changed("margin") {
		margin = inspectMargin
	}

	validator := pdf.NewValidator(logger)
	if err := validator.ValidatePDFPath(path); err != nil {
		return err
	}
	if err := validator.ValidateMargin(margin); err != nil {
		return err
	}

	reports, err := inspectDocument(pdf.NewBackend(cfg.Content.MaxFormDepth, logger), path, margin)
	if err != nil {
		return err
	}

	if inspectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	ui.Section(fmt.Sprintf("Inspect %s (margin %d pt)", path, margin))
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		content, box := "empty", "no crop"
		if r.Content != nil {
			content = r.Content.String()
		}
		if r.Crop != nil {
			box = r.Crop.String()
		}
		rows = append(rows, []string{fmt.Sprintf("%d", r.Page), r.Native.String(), content, box})
	}
	ui.Table([]string{"Page", "Page box", "Content", "Crop box"}, rows)
	ui.Newline()
	ui.Info("%s inspected", pluralize(len(reports), "page"))
	return nil
}

func inspectDocument(backend domain.Backend, path string, margin int) ([]PageReport, error) {
	doc, err := backend.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	detector := crop.NewDetector(logger)
	reports := make([]PageReport, 0, doc.PageCount())
	for n := 1; n <= doc.PageCount(); n++ {
		page, err := doc.Page(n)
		if err != nil {
			return nil, err
		}
		report := PageReport{Page: n, Native: page.Rect()}

		bounds, ok, err := detector.ContentBounds(page)
		if err != nil {
			return nil, err
		}
		if ok {
			report.Content = &bounds
			report.Crop = crop.CropRect(bounds, page.Rect(), margin)
		}
		reports = append(reports, report)
	}
	return reports, nil
}
