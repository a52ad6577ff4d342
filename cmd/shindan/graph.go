package main

import (
	"fmt"

	"github.com/aretw0/shindan/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newGraphCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Export the tree as a Mermaid flowchart",
		Long:  `Outputs a Mermaid diagram (graph TD) with questions, results and the answer text on each edge.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.newEngine()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(eng.Tree(), nil))
			return nil
		},
	}
}
