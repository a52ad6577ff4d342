package main

import (
	"fmt"

	"github.com/aretw0/shindan/internal/cli"
	"github.com/aretw0/shindan/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(g *globals) *cobra.Command {
	var (
		transport string
		port      int
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose the tree to AI agents over the Model Context Protocol",
		Long:  `Serves the tools get_node, advance, validate_tree and get_graph and the shindan://tree resource.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			eng, err := g.newEngine()
			if err != nil {
				return err
			}
			if watch {
				go func() {
					if err := eng.AutoReload(ctx, nil); err != nil {
						g.logger.Error("hot reload disabled", "err", err)
					}
				}()
			}

			srv := mcp.NewServer(eng, mcp.WithLogger(g.logger))
			switch transport {
			case "stdio":
				return srv.ServeStdio()
			case "sse":
				return srv.ServeSSE(ctx, port)
			default:
				return fmt.Errorf("unknown transport %q (expected stdio or sse)", transport)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&transport, "transport", "t", "stdio", "Transport (stdio or sse)")
	flags.IntVarP(&port, "port", "p", 8081, "Port for the sse transport")
	flags.BoolVar(&watch, "watch", false, "Reload the tree when its file or vault changes")
	return cmd
}
