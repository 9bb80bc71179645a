package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reading_roundup/internal/httpserver"
	"reading_roundup/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long: `Serve the catalog and roundup editor over HTTP. With sync.enabled the
journal is also ingested at start and then every sync.interval.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&bindAddr, "bind", "", "listen address (overrides http.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := httpserver.New(cfg.HTTP, a.catalog, a.sync, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if cfg.Sync.Enabled {
		sched := scheduler.NewScheduler(a.sync, cfg.Sync.Interval, cfg.Sync.Timeout, logger)
		g.Go(func() error {
			if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	logger.Info("starting reading roundup",
		"journal", cfg.Journal.Dir,
		"addr", cfg.HTTP.Addr,
		"sync", cfg.Sync.Enabled,
		"publishing", cfg.RabbitMQ.Enabled,
	)

	return g.Wait()
}
