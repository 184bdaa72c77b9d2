// Package ui prints styled command-line output.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Banner is printed by commands that start a crawl
const Banner = `
 ██╗  ██╗██╗    ██╗ █████╗ ████████╗ ██████╗██╗  ██╗
 ╚██╗██╔╝██║    ██║██╔══██╗╚══██╔══╝██╔════╝██║  ██║
  ╚███╔╝ ██║ █╗ ██║███████║   ██║   ██║     ███████║
  ██╔██╗ ██║███╗██║██╔══██║   ██║   ██║     ██╔══██║
 ██╔╝ ██╗╚███╔███╔╝██║  ██║   ██║   ╚██████╗██║  ██║
 ╚═╝  ╚═╝ ╚══╝╚══╝ ╚═╝  ╚═╝   ╚═╝    ╚═════╝╚═╝  ╚═╝
`

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#39FF14"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF")).Bold(true)
	dim     = lipgloss.NewStyle().Faint(true)
)

// Output is where messages are written; tests replace it
var Output io.Writer = os.Stdout

var quiet bool

// SetQuietMode suppresses everything but errors
func SetQuietMode(q bool) {
	quiet = q
}

// Cyan styles inline text
func Cyan(s string) string { return cyan.Render(s) }

// Yellow styles inline text
func Yellow(s string) string { return yellow.Render(s) }

// Green styles inline text
func Green(s string) string { return green.Render(s) }

// Dim styles secondary text
func Dim(s string) string { return dim.Render(s) }

// PrintBanner prints the logo
func PrintBanner() {
	if quiet {
		return
	}
	fmt.Fprint(Output, cyan.Render(Banner)+"\n")
}

// PrintError prints an error message in red, with an optional detail
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Output, red.Render(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(Output, green.Render(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(Output, "%s: %s\n", cyan.Render(label), yellow.Render(value))
}

// PrintWarning prints a warning message in yellow, with an optional detail
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	fmt.Fprintln(Output, yellow.Render(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(Output, magenta.Render(msg))
}
