package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the GenUI banner with an indigo to rose gradient.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	lines := []struct{ text, color string }{
		{"   ____            _   _ ___ ", "#818cf8"},
		{"  / ___| ___ _ __ | | | |_ _|", "#a78bfa"},
		{" | |  _ / _ \\ '_ \\| | | || | ", "#c084fc"},
		{" | |_| |  __/ | | | |_| || | ", "#e879f9"},
		{"  \\____|\\___|_| |_|\\___/|___|", "#fb7185"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
