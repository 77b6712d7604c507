package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/api"
	"github.com/abhisek/sanlang/internal/decks"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/mediamigrate"
	"github.com/abhisek/sanlang/internal/storygen"
	"github.com/abhisek/sanlang/internal/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the drip scheduler and generation workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(ctx, s, true)
		if err != nil {
			return err
		}

		tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
		tree.AddWorker(decks.NewScheduler(svc.decks, cfg.Drip.At))

		var jobs *storygen.Jobs
		if svc.generator != nil {
			jobs = storygen.NewJobs(s, svc.generator, svc.catalog, cfg.Generation.Workers, cfg.Generation.QueueSize)
			tree.AddWorker(jobs)
		}

		var migrator *mediamigrate.Migrator
		objs, err := objectStore()
		if err != nil {
			return err
		}
		if objs != nil {
			if migrator, err = newMigrator(s, objs); err != nil {
				return err
			}
		}

		deps, err := svc.apiServices(jobs, migrator)
		if err != nil {
			return err
		}
		tree.AddAPI(api.NewServer(cfg.Server, cfg.Auth, deps, api.WithMigrationDefaults(cfg.Migration)))

		logging.Info().
			Str("addr", cfg.Server.Addr).
			Bool("generation", jobs != nil).
			Bool("migration", migrator != nil).
			Msg("starting sanlang")

		err = tree.Serve(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor: %w", err)
		}
		logging.Info().Msg("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
