package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Terminal control sequences
const (
	ColorReset  = "\033[0m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorBold   = "\033[1m"
)

// GetDisplayWidth returns the number of terminal cells a string occupies.
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadRight pads text with spaces to width display cells.
func PadRight(text string, width int) string {
	return runewidth.FillRight(text, width)
}

// PadLeft right-aligns text within width display cells.
func PadLeft(text string, width int) string {
	return runewidth.FillLeft(text, width)
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Colorize wraps text in an ANSI color when enabled.
func Colorize(text, color string, enabled bool) string {
	if !enabled {
		return text
	}
	return fmt.Sprintf("%s%s%s", color, text, ColorReset)
}

// FormatSectionTitle renders a bold section heading.
func FormatSectionTitle(title string, enabled bool) string {
	return Colorize(title, ColorBold+ColorCyan, enabled)
}

// Separator returns a horizontal rule of width cells.
func Separator(width int) string {
	return strings.Repeat("=", width)
}
