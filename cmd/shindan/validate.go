package main

import (
	"github.com/aretw0/shindan/internal/cli"
	"github.com/spf13/cobra"
)

func newValidateCmd(g *globals) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the tree for dangling answers and empty results",
		Long: `Scans every node and reports answers pointing to missing nodes and results
without recommended services. Unreachable nodes, cycles and services missing
from the catalog are reported as warnings, or as errors with --strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.newEngine()
			if err != nil {
				return err
			}
			if cli.PrintReport(cmd.OutOrStdout(), eng.Audit(), strict) {
				cmd.SilenceErrors = true
				return errValidation
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on audit warnings too")
	return cmd
}
