package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vidsub/internal/api"
	"vidsub/internal/events"
	"vidsub/internal/logging"
	"vidsub/internal/pipeline"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve runs, history and live events over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			lock, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer releaseRunLock(lock)

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			serveCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := events.NewHub(cfg.Server.EventBuffer)
			p := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithLedger(store))
			manager := api.NewManager(serveCtx, p, hub, logger)
			server := api.New(serveCtx, cfg, manager, store, hub, nil, logger)

			logger.Info("vidsub server starting",
				logging.String("bind", cfg.Server.Bind),
				logging.Bool("auth", cfg.Server.Token != ""),
				logging.String("ledger", store.Path()),
			)
			cmd.Printf("Serving on http://%s (Ctrl+C to stop)\n", cfg.Server.Bind)
			return server.ListenAndServe(serveCtx)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config)")
	return cmd
}
