// -- cmd/serve.go --
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/deskpilot/deskpilot/internal/observability"
	"github.com/deskpilot/deskpilot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server.",
	Long: `Starts the HTTP API that accepts natural-language tasks, generates
instruction plans, and executes them against the desktop. The server runs
until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := observability.GetLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := buildRuntime(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Processes.Teardown()

		srv := server.New(server.Deps{
			Generator: rt.Generator,
			Executor:  rt.Executor,
			Store:     rt.Store,
			Probes:    server.NewProbes(rt.LLM, cfg.Speech),
			Logger:    logger,
			Config:    cfg.Server,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Start(gctx)
		})

		if err := g.Wait(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 5000, "listen port")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
