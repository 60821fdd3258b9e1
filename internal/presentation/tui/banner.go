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
	{"  _ __ ___  ___| |", "#f59e0b"},
	{" | '__/ _ \\/ _ \\ |", "#f97316"},
	{" | | |  __/  __/ |", "#ef4444"},
	{" |_|  \\___|\\___|_|", "#e11d48"},
}

// PrintBanner writes the reel banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  movie recommendations, "+version).Faint())
	fmt.Fprintln(w)
}

// Speaker colours a transcript speaker tag.
func Speaker(w io.Writer, name string) string {
	out := termenv.NewOutput(w)
	color := "#38bdf8"
	if name == "USER" {
		color = "#a3e635"
	}
	return out.String(name).Foreground(out.Color(color)).Bold().String()
}
