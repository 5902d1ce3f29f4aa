package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
)

// Overlay contains session progress to visualize on the graph.
type Overlay struct {
	Completed []domain.StageID
	Current   domain.StageID
}

// OverlayFromView builds an Overlay from a session view.
func OverlayFromView(view *domain.SessionView) *Overlay {
	o := &Overlay{Current: view.CurrentStage}
	for _, s := range view.Stages {
		if s.HasData {
			o.Completed = append(o.Completed, s.ID)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the stage sequence.
// Stages that take a file are drawn as input [/Parallelogram/], the review
// stage as a ((Circle)) and the rest as [Rectangle]. Every non-final stage
// also gets a dotted skip edge to the stage after next.
func GenerateMermaid(stages []domain.Stage, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for i, stage := range stages {
		opener, closer := "[", "]"
		switch {
		case stage.ID == domain.StageReview:
			opener, closer = "((", "))"
		case stage.Import != "":
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s %s\"%s\n", stage.ID, opener, stage.Icon, escape(stage.Label), closer)

		if i+1 < len(stages) {
			fmt.Fprintf(&sb, "    %s --> %s\n", stage.ID, stages[i+1].ID)
		}
		if i+2 < len(stages) {
			fmt.Fprintf(&sb, "    %s -. skip .-> %s\n", stage.ID, stages[i+2].ID)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		known := make(map[domain.StageID]bool, len(stages))
		for _, s := range stages {
			known[s.ID] = true
		}
		for _, id := range overlay.Completed {
			if known[id] && id != overlay.Current {
				fmt.Fprintf(&sb, "    class %s completed;\n", id)
			}
		}
		if known[overlay.Current] {
			fmt.Fprintf(&sb, "    class %s current;\n", overlay.Current)
		}
	}

	return sb.String()
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
