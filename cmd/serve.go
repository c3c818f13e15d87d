package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"candidate-screening/internal/db"
	"candidate-screening/internal/jobs"
	"candidate-screening/internal/server"
	"candidate-screening/internal/uploads"
)

var strictKB bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&strictKB, "strict-kb", false, "refuse to start when a required document type has no chunks")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kb, err := openKnowledgeBase(ctx, cfg)
	if err != nil {
		return err
	}
	evaluator, err := newEvaluator(ctx, cfg, kb)
	if err != nil {
		return err
	}
	if err := evaluator.CheckKnowledgeBase(ctx); err != nil {
		if strictKB {
			return err
		}
		log.Warn().Err(err).Msg("Knowledge base is incomplete, affected prompts will get no reference context")
	}

	files, err := uploads.NewFileStore(cfg.Server.UploadDir)
	if err != nil {
		return err
	}
	store, err := db.NewStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := jobs.NewRunner(store, evaluator, files, cfg.Server.MaxConcurrentJobs)
	srv := server.New(&cfg.Server, runner, store, files, kb)

	if err := srv.Run(ctx); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := runner.Wait(waitCtx); err != nil {
		log.Warn().Err(err).Msg("Stopped before every running evaluation finished")
	}
	return nil
}
