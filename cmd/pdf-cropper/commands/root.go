package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spherical/pdf-cropper/cmd/pdf-cropper/ui"
	"github.com/spherical/pdf-cropper/internal/config"
	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/observability"
)

// ErrFilesFailed is returned when a batch finished but not every file was
// cropped. The summary has already been printed.
var ErrFilesFailed = errors.New("not all files were processed")

var version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	logFormat string

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pdf-cropper",
	Short: "Trim the empty margins of PDF pages",
	Long: `pdf-cropper finds the area of each page that carries text, images or
vector drawings and sets the page's visible region to that area plus a margin.
Results are written next to the input as {name}{suffix}.pdf, or one file per
page with --per-page.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return domain.ConfigError("cannot load configuration", err)
		}
		if logFormat != "" {
			loaded.Observability.LogFormat = logFormat
			if err := loaded.Validate(); err != nil {
				return domain.ConfigError("invalid --log-format", err)
			}
		}
		cfg = loaded

		// Progress output owns the terminal, so logs stay quiet unless asked for.
		level := cfg.Observability.LogLevel
		if verbose {
			level = "debug"
		} else if observability.ParseLevel(level) < zerolog.WarnLevel {
			level = "warn"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      cfg.Observability.LogFormat,
			Output:      os.Stderr,
			ServiceName: cfg.Observability.ServiceName,
		})

		ui.InitUI(noColor, verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output and debug logs")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
}

// Execute runs the root command. Cancelling ctx stops a batch between files.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrFilesFailed):
		return 1
	case domain.IsType(err, domain.ErrorTypeValidation), domain.IsType(err, domain.ErrorTypeConfig):
		return 2
	default:
		return 1
	}
}

// Report prints err unless the command already reported it.
func Report(err error) {
	if err == nil || errors.Is(err, ErrFilesFailed) {
		return
	}
	ui.Error("%s", err)
	if ExitCode(err) == 2 {
		fmt.Fprintln(os.Stderr, "Run 'pdf-cropper --help' for usage.")
	}
}
