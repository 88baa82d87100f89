package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ussdpilot banner to w.
func PrintBanner(w io.Writer) {
	o := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`  _   _ ___ ___ ___        _ _     _   `, "#34d399"},
		{` | | | / __/ __|   \ _ __ (_) |___| |_ `, "#2dd4bf"},
		{` | |_| \__ \__ \ |) | '_ \| | / _ \  _|`, "#22d3ee"},
		{`  \___/|___/___/___/| .__/|_|_\___/\__|`, "#38bdf8"},
		{`                    |_|                `, "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, o.String(l.text).Foreground(o.Color(l.color)))
	}
	fmt.Fprintln(w)
}
