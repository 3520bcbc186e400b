package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markwatch/journal-cli/internal/schedule"
	"github.com/markwatch/journal-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Serves journal, trademark, statistics, and export endpoints, plus scraper controls. With schedule.enabled, also triggers a weekly pipeline run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg.Port = servePort
		}
		srv := server.New(serverCfg, env.Store, env.Pipeline)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Start(gctx)
		})

		if cfg.Schedule.Enabled {
			sched := schedule.New(cfg.Schedule, env.Pipeline)
			g.Go(func() error {
				return sched.Start(gctx)
			})
			zap.L().Info("weekly schedule enabled",
				zap.String("weekday", cfg.Schedule.Weekday),
				zap.Int("hour", cfg.Schedule.Hour),
				zap.Int("minute", cfg.Schedule.Minute),
			)
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
