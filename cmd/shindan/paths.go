package main

import (
	"github.com/aretw0/shindan/internal/cli"
	"github.com/spf13/cobra"
)

func newPathsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List every answer sequence from the entry question to a result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.newEngine()
			if err != nil {
				return err
			}
			cli.PrintPaths(cmd.OutOrStdout(), eng.Tree().Paths())
			return nil
		},
	}
}
