package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`     _ _     _          _           _    `, "#38bdf8"},
	{` ___| (_) __| | ___  __| | ___  ___| | __`, "#22d3ee"},
	{`/ __| | |/ _' |/ _ \/ _' |/ _ \/ __| |/ /`, "#2dd4bf"},
	{`\__ \ | | (_| |  __/ (_| |  __/ (__|   < `, "#34d399"},
	{`|___/_|_|\__,_|\___|\__,_|\___|\___|_|\_\`, "#4ade80"},
}

// PrintBanner writes the slidedeck banner, coloured when the terminal supports it,
// followed by one line per detail.
func PrintBanner(w io.Writer, version string, details ...string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	for _, d := range details {
		fmt.Fprintln(w, "  "+d)
	}
	fmt.Fprintln(w)
}
