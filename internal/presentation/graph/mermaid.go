package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/weave/pkg/domain"
)

// GraphOverlay marks operators to highlight on the rendered graph.
type GraphOverlay struct {
	// Flagged operators are drawn with a warning style (cycles, disconnected parts).
	Flagged []string
	// Selected is drawn with the selection style.
	Selected string
}

// GenerateMermaid produces a Mermaid flowchart from a graph snapshot.
// It applies semantic shapes:
// - Source (no incoming link): ([Stadium])
// - Sink (no outgoing link): [[Subroutine]]
// - Default: [Rectangle]
// Links are labelled with the ports they join.
func GenerateMermaid(g domain.GraphSnapshot, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	incoming := make(map[string]int)
	outgoing := make(map[string]int)
	for _, l := range g.Links {
		outgoing[l.Source.OperatorID]++
		incoming[l.Target.OperatorID]++
	}

	for _, op := range g.Operators {
		safeID := sanitizeMermaidID(op.OperatorID)

		opener, closer := "[", "]"
		switch {
		case incoming[op.OperatorID] == 0 && outgoing[op.OperatorID] > 0:
			opener, closer = "([", "])"
		case outgoing[op.OperatorID] == 0 && incoming[op.OperatorID] > 0:
			opener, closer = "[[", "]]"
		}

		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", safeID, opener, op.OperatorID, escape(op.OperatorType), closer)
	}

	for _, l := range g.Links {
		fmt.Fprintf(&sb, "    %s -- \"%s → %s\" --> %s\n",
			sanitizeMermaidID(l.Source.OperatorID),
			escape(l.Source.PortID),
			escape(l.Target.PortID),
			sanitizeMermaidID(l.Target.OperatorID),
		)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef flagged fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Flagged {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s flagged;\n", safeID)
			}
		}
		if overlay.Selected != "" {
			fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(overlay.Selected))
		}
	}

	return sb.String()
}

// GenerateMarkdown wraps the flowchart in a fenced block, for terminal renderers.
func GenerateMarkdown(g domain.GraphSnapshot, overlay *GraphOverlay) string {
	return fmt.Sprintf("```mermaid\n%s```\n", GenerateMermaid(g, overlay))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
