package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/shindan"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of shindan",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shindan version %s\n", strings.TrimSpace(shindan.Version))
		},
	}
}
