package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/internal/cli"
	"github.com/aretw0/shindan/internal/presentation/tui"
	"github.com/aretw0/shindan/pkg/runner"
	"github.com/spf13/cobra"
)

func newRunCmd(g *globals) *cobra.Command {
	var answers string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take the diagnostic in the terminal",
		Long: `Starts an interactive walk: pick answers by number, b to go back,
r to restart and q to quit. With --answers the walk is replayed without prompts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := g.newEngine()
			if err != nil {
				return err
			}
			if answers != "" {
				return replay(cmd, eng, answers)
			}

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			out := cmd.OutOrStdout()
			r := &runner.Runner{
				Input:  cmd.InOrStdin(),
				Output: out,
				Logger: g.logger,
			}
			if runner.IsInteractive(out) {
				tui.PrintBanner(out, shindan.Version)
				r.Renderer = tui.NewRenderer()
			}

			_, err = r.Run(ctx, eng)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&answers, "answers", "", "Comma-separated one-based answer numbers to replay (e.g. 2,4)")
	return cmd
}

// replay walks the tree with fixed answers and prints the visited nodes and the result.
func replay(cmd *cobra.Command, eng *shindan.Engine, answers string) error {
	var indices []int
	for _, part := range strings.Split(answers, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return fmt.Errorf("invalid answer %q: expected a positive number", part)
		}
		indices = append(indices, n-1)
	}

	t := eng.Tree()
	visited, err := t.Walk(indices...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Join(visited, " -> "))

	last := visited[len(visited)-1]
	res, ok := t.Result(last)
	if !ok {
		fmt.Fprintf(out, "stopped at question %q\n", last)
		return nil
	}
	fmt.Fprint(out, tui.ResultMarkdown(res, eng.Catalog()))
	return nil
}
