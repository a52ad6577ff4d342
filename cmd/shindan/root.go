package main

import (
	"errors"
	"log/slog"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/internal/cli"
	"github.com/aretw0/shindan/internal/logging"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	engine   cli.EngineOptions
	logLevel string
	logger   *slog.Logger
}

func (g *globals) newEngine(extra ...shindan.Option) (*shindan.Engine, error) {
	return cli.NewEngine(g.engine, g.logger, extra...)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{logger: logging.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "shindan",
		Short: "Shindan is a service diagnostic decision tree engine",
		Long: `Shindan walks visitors through a short questionnaire and recommends services.
Without --file or --dir the diagnostic shipped with the binary is used.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}
			g.logger = logging.New(level)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.engine.File, "file", "f", "", "Tree document (.yaml, .yml, .json or .hcl)")
	flags.StringVar(&g.engine.Dir, "dir", "", "Loam vault with one Markdown/YAML/JSON document per node")
	flags.StringVar(&g.engine.Entry, "entry", "", "Entry question of a vault (default: the node marked entry: true)")
	flags.StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.MarkFlagsMutuallyExclusive("file", "dir")

	rootCmd.AddCommand(
		newValidateCmd(g),
		newStatsCmd(g),
		newGraphCmd(g),
		newPathsCmd(g),
		newExportCmd(g),
		newRunCmd(g),
		newServeCmd(g),
		newMCPCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

// errValidation is returned by validate so the process exits non-zero
// after the report has already been printed.
var errValidation = errors.New("validation failed")
