package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintSidebar renders the stage list of a session with its progress, the
// terminal counterpart of the web sidebar.
func PrintSidebar(w io.Writer, view *domain.SessionView) {
	p := termenv.ColorProfile()
	fmt.Fprintf(w, "Progress: %d%%\n", int(view.Progress*100+0.5))
	for _, s := range view.Stages {
		marker := "  "
		switch {
		case s.Current:
			marker = "▶ "
		case s.HasData:
			marker = "✓ "
		}
		line := p.String(fmt.Sprintf("%s%s %s", marker, s.Icon, s.Label))
		switch {
		case s.Current:
			line = line.Bold().Foreground(p.Color("#38bdf8"))
		case s.HasData:
			line = line.Foreground(p.Color("#34d399"))
		default:
			line = line.Faint()
		}
		if s.Pending {
			line = p.String(line.String() + " (working…)")
		}
		fmt.Fprintln(w, line)
	}
}
