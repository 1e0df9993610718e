package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown to ANSI renderer for deck outlines.
// A width of zero keeps glamour's default word wrap. With plain set the output carries no
// colour, for pipes and tests.
func NewRenderer(width int, plain bool) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{glamour.WithEmoji()}
	if plain {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
