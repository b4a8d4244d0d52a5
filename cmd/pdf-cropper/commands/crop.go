package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-cropper/cmd/pdf-cropper/ui"
	"github.com/spherical/pdf-cropper/internal/crop"
	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/pdf"
)

var (
	cropSuffix    string
	cropMargin    int
	cropPerPage   bool
	cropOutputDir string
)

var cropCmd = &cobra.Command{
	Use:   "crop <file|dir|glob>...",
	Short: "Crop the margins of one or more PDF files",
	Long: `Crop every page of the given PDF files to its content plus a margin.

Arguments may be files, directories (their *.pdf files) or glob patterns.
A file that cannot be opened or saved is reported and the batch continues.
The exit status is non-zero when any file failed.`,
	Example: `  pdf-cropper crop report.pdf
  pdf-cropper crop --margin 10 --suffix _trim scans/
  pdf-cropper crop --per-page --output-dir out "slides/*.pdf"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrop,
}

func init() {
	cropCmd.Flags().StringVarP(&cropSuffix, "suffix", "s", crop.DefaultSuffix, "suffix appended to output file names")
	cropCmd.Flags().IntVarP(&cropMargin, "margin", "m", crop.DefaultMargin, "padding around the content, in points")
	cropCmd.Flags().BoolVarP(&cropPerPage, "per-page", "p", false, "write every page as its own file")
	cropCmd.Flags().StringVarP(&cropOutputDir, "output-dir", "o", "", "directory for the results (default: next to each input)")
	rootCmd.AddCommand(cropCmd)
}

func runCrop(cmd *cobra.Command, args []string) error {
	files, err := ExpandInputs(args)
	if err != nil {
		return err
	}

	req := cropRequest(cmd, files)
	svc := crop.NewService(
		pdf.NewBackend(cfg.Content.MaxFormDepth, logger),
		logger,
		crop.WithEventBuffer(cfg.Jobs.EventQueue),
	)

	events, err := svc.Start(cmd.Context(), req)
	if err != nil {
		return err
	}

	ui.Section("PDF Crop")
	ui.Info("%s, margin %d pt, %s output", pluralize(len(req.Files), "file"), req.Margin, modeLabel(req.Mode))
	if req.OutputDir != "" {
		ui.Info("Output directory: %s", req.OutputDir)
	}
	ui.Newline()

	bar := ui.NewProgressBar(int64(len(req.Files)), "Cropping")
	var result *domain.BatchResult
	for ev := range events {
		switch ev.Type {
		case domain.EventFileProcessing:
			bar.Describe(fmt.Sprintf("[%d/%d] %s", ev.FileIndex, len(req.Files), ev.FileName))
		case domain.EventPageComplete:
			if outcome, ok := ev.Payload.(domain.PageOutcome); ok {
				logPage(ev.FileName, outcome)
			}
		case domain.EventFileComplete:
			bar.Set(int64(ev.FileIndex))
		case domain.EventComplete:
			result, _ = ev.Payload.(*domain.BatchResult)
		}
	}
	bar.Finish()

	if result == nil {
		return domain.ProcessingError("batch ended without a result", nil)
	}
	printSummary(result)

	if _, ok := Headline(result); !ok {
		return ErrFilesFailed
	}
	return nil
}

// cropRequest builds the batch from config, overridden by explicit flags.
func cropRequest(cmd *cobra.Command, files []string) crop.Request {
	req := crop.NewRequest(files...)
	req.Suffix = cfg.Crop.Suffix
	req.Margin = cfg.Crop.Margin
	req.OutputDir = cfg.Crop.OutputDir
	perPage := cfg.Crop.PerPage

	flags := cmd.Flags()
	if flags.Changed("suffix") {
		req.Suffix = cropSuffix
	}
	if flags.Changed("margin") {
		req.Margin = cropMargin
	}
	if flags.Changed("output-dir") {
		req.OutputDir = cropOutputDir
	}
	if flags.Changed("per-page") {
		perPage = cropPerPage
	}
	if perPage {
		req.Mode = domain.ExportPerPage
	}
	return req
}

func modeLabel(mode domain.ExportMode) string {
	if mode == domain.ExportPerPage {
		return "per-page"
	}
	return "whole-document"
}

func logPage(file string, outcome domain.PageOutcome) {
	ev := logger.Debug().Str("file", file).Int("page", outcome.Number).Stringer("native", outcome.Native)
	if outcome.Crop != nil {
		ev = ev.Stringer("crop", outcome.Crop)
	} else {
		ev = ev.Bool("uncropped", true)
	}
	ev.Msg("page done")
}
