package tui

import (
	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is the column at which rendered turns wrap.
const DefaultWordWrap = 80

// NewRenderer returns a function that renders markdown using glamour.
// Turn bodies are plain text with occasional lists (failed invitations, row
// errors), which glamour turns into styled terminal output.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(DefaultWordWrap),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
