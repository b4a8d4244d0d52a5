package ui

import (
	"os"

	"github.com/fatih/color"
)

var verboseFlag bool

// InitUI applies the color and verbosity flags.
func InitUI(noColor, verbose bool) {
	verboseFlag = verbose
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// Verbose reports whether verbose output was requested.
func Verbose() bool {
	return verboseFlag
}
