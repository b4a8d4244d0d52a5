package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/pdf-cropper/cmd/pdf-cropper/ui"
	"github.com/spherical/pdf-cropper/internal/preview"
)

var (
	previewPage int
	previewDPI  float64
	previewOut  string
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Render a page to PNG to check a crop",
	Long: `Render one page of a PDF to PNG. Only the visible page area is drawn, so
previewing a cropped output shows exactly what a reader will see.`,
	Example: `  pdf-cropper preview report_cropped.pdf
  pdf-cropper preview --page 3 --dpi 300 --out page3.png report_cropped.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().IntVar(&previewPage, "page", 1, "page number, starting at 1")
	previewCmd.Flags().Float64Var(&previewDPI, "dpi", 0, "rendering resolution (default from config)")
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "output PNG path (default: {name}_page{N}.png next to the input)")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	dpi := cfg.Preview.DPI
	if cmd.Flags().Changed("dpi") {
		dpi = previewDPI
	}
	renderer := preview.NewRenderer(dpi, logger)

	spinner := ui.NewSpinner("Rendering page...")
	spinner.Start()
	img, err := renderer.RenderFile(cmd.Context(), args[0], previewPage, previewOut)
	spinner.Stop()
	if err != nil {
		return err
	}

	ui.Success("Page %d rendered to %s", img.Page, img.Path)
	ui.KeyValue("Size", formatSize(img.Width, img.Height))
	ui.KeyValue("DPI", formatFloat(img.DPI))
	return nil
}
