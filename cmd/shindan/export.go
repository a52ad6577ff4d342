package main

import (
	"fmt"

	"github.com/aretw0/shindan/internal/compiler"
	"github.com/spf13/cobra"
)

func newExportCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the active tree as a single YAML or JSON document",
		Long: `Converts the active tree (shipped, file or vault) into one document that
--file accepts, e.g. to turn a vault into a deployable file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.newEngine()
			if err != nil {
				return err
			}
			out, err := compiler.Marshal(compiler.FromTree(eng.Tree()), compiler.Format(format))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "yaml", "Output format (yaml or json)")
	return cmd
}
