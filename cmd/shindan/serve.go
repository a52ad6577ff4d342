package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/internal/cli"
	"github.com/aretw0/shindan/internal/metrics"
	httpadapter "github.com/aretw0/shindan/pkg/adapters/http"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		port     int
		watch    bool
		sessions cli.SessionOptions
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves the tree over a JSON API with server-side sessions, a Mermaid graph,
server-sent events and Prometheus metrics. Sessions live in memory unless
--redis-addr is set, and are sealed at rest when --session-key is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			logger := g.logger

			collector := metrics.New()
			eng, err := g.newEngine(shindan.WithLifecycleHooks(collector.Hooks()))
			if err != nil {
				return err
			}

			mgr, closeSessions, err := cli.NewSessionManager(ctx, eng, sessions, logger)
			if err != nil {
				return err
			}
			defer closeSessions()

			srv := httpadapter.NewServer(eng,
				httpadapter.WithSessions(mgr),
				httpadapter.WithMetrics(collector.Handler()),
				httpadapter.WithLogger(logger),
				httpadapter.WithTreeName(eng.Name),
			)

			if watch {
				go func() {
					if err := eng.AutoReload(ctx, srv.NotifyReload); err != nil {
						logger.Error("hot reload disabled", "err", err)
					}
				}()
			}

			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Starting shindan server on %s\n", httpServer.Addr)
				fmt.Fprintf(cmd.OutOrStdout(), "Serving tree from: %s\n", eng.Name)
				serverErrors <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
				logger.Info("shutdown started", "signal", ctx.Signal())

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Error("graceful shutdown did not complete", "err", err)
					return httpServer.Close()
				}
				fmt.Fprintln(cmd.OutOrStdout(), "shindan server stopped gracefully")
				return nil
			}
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&port, "port", "p", 8080, "Port to listen on")
	flags.BoolVar(&watch, "watch", false, "Reload the tree when its file or vault changes")
	flags.StringVar(&sessions.RedisAddr, "redis-addr", "", "Redis address for sessions (default: in-memory)")
	flags.StringVar(&sessions.RedisPassword, "redis-password", "", "Redis password")
	flags.IntVar(&sessions.RedisDB, "redis-db", 0, "Redis database")
	flags.DurationVar(&sessions.TTL, "session-ttl", 24*time.Hour, "Idle session expiry in Redis (0 keeps sessions)")
	flags.StringVar(&sessions.EncryptionKey, "session-key", os.Getenv(cli.EnvSessionKey), "Hex AES-256 key sealing stored sessions (env "+cli.EnvSessionKey+")")
	flags.StringSliceVar(&sessions.FallbackKeys, "session-key-fallback", nil, "Previous session keys accepted while rotating")
	return cmd
}
