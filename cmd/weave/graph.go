package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/internal/presentation/graph"
	"github.com/aretw0/weave/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the graph visualization",
	Long: `Loads the graph declared in the configuration file and outputs a Mermaid diagram
(graph LR). Operators involved in a cycle or disconnected from the rest are flagged.
On a terminal the diagram is rendered as markdown; use --raw to force plain Mermaid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		raw, _ := cmd.Flags().GetBool("raw")
		interactive := !raw && term.IsTerminal(int(os.Stdout.Fd()))
		return writeGraph(cmd.OutOrStdout(), a.workspace, interactive)
	},
}

func writeGraph(w io.Writer, ws *weave.Workspace, interactive bool) error {
	overlay := &graph.GraphOverlay{}
	issues := ws.Check()
	for _, issue := range issues {
		overlay.Flagged = append(overlay.Flagged, issue.Operators...)
	}

	if !interactive {
		_, err := io.WriteString(w, graph.GenerateMermaid(ws.Graph(), overlay))
		return err
	}

	var md strings.Builder
	md.WriteString("# Graph\n\n")
	md.WriteString(graph.GenerateMarkdown(ws.Graph(), overlay))
	if len(issues) > 0 {
		md.WriteString("\n## Issues\n\n")
		for _, issue := range issues {
			fmt.Fprintf(&md, "- **%s**: %s\n", issue.Kind, issue.Message)
		}
	}

	render, err := tui.NewRenderer()
	if err != nil {
		return err
	}
	out, err := render(md.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("raw", false, "Print plain Mermaid even on a terminal")
}
