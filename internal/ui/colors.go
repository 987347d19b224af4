// Package ui holds the terminal styling shared by the tsh front ends.
package ui

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	ErrorColor   = color.New(color.FgRed).SprintFunc()
	WarningColor = color.New(color.FgYellow).SprintFunc()
	SuccessColor = color.New(color.FgGreen).SprintFunc()
	PromptColor  = color.New(color.FgMagenta, color.Bold).SprintFunc()
	HeaderColor  = color.New(color.FgGreen, color.Bold).SprintFunc()
	DetailColor  = color.New(color.FgHiBlack).SprintFunc() // timestamps, paths
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetColorMode enables or disables styling. "auto" styles only when out is
// a terminal and NO_COLOR is unset.
func SetColorMode(mode string, out *os.File) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		_, noColor := os.LookupEnv("NO_COLOR")
		color.NoColor = noColor || os.Getenv("TERM") == "dumb" || !IsTerminal(out)
	}
}
