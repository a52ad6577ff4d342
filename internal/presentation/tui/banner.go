package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the shindan banner with the version underneath.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _     _           _             ", "#34d399"},
		{"  ___| |__ (_)_ __   __| | __ _ _ __  ", "#2dd4bf"},
		{" / __| '_ \\| | '_ \\ / _` |/ _` | '_ \\ ", "#22d3ee"},
		{" \\__ \\ | | | | | | | (_| | (_| | | | |", "#38bdf8"},
		{" |___/_| |_|_|_| |_|\\__,_|\\__,_|_| |_|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  診断 v"+v).Faint())
	}
	fmt.Fprintln(w)
}

// Accent colors a short string (answer numbers, prompts) when the terminal supports it.
func Accent(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#22d3ee")).Bold().String()
}
