package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pennywise/internal/amqp"
	"pennywise/internal/buildinfo"
	"pennywise/internal/cli"
	"pennywise/internal/config"
	"pennywise/internal/log"
	"pennywise/internal/pkg/grpcserver"
	gsheet "pennywise/internal/sheets/google"
	"pennywise/internal/storage"
	"pennywise/internal/worker"
)

const serviceName = "pennywise.worker"

type options struct {
	resyncUser string
	resyncYear int
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:     "pennywise-worker",
		Short:   "Mirror ledger events into Google Sheets",
		Version: buildinfo.String(),
		Args:    cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	rootCmd.Flags().StringVar(&opts.resyncUser, "resync-user", "", "mirror every transaction of this user before consuming")
	rootCmd.Flags().IntVar(&opts.resyncYear, "resync-year", time.Now().Year(), "year to mirror with --resync-user")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := cli.LoadConfig((*config.Config).ValidateWorker)
	if err != nil {
		return err
	}
	logger := cli.NewLogger(cfg, os.Stdout)
	logger.Info("Starting pennywise-worker", "version", buildinfo.Version)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, err := storage.Open(ctx, storage.Dialect(cfg.DataBackend), cfg.DSN(), logger)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err.Error(), log.FieldBackend, cfg.DataBackend)
		return err
	}
	defer repo.Close()

	mirror, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		return err
	}
	defer events.Close()

	syncWorker := worker.NewSyncWorker(repo, mirror, logger)

	if opts.resyncUser != "" {
		synced, failed, err := syncWorker.ResyncYear(ctx, opts.resyncUser, opts.resyncYear)
		if err != nil {
			return fmt.Errorf("resync %d: %w", opts.resyncYear, err)
		}
		logger.Info("Startup resync finished", "synced", synced, "errors", failed)
	}

	health := grpcserver.New(cfg.GRPCHealthAddr)
	addr, err := health.Listen()
	if err != nil {
		return fmt.Errorf("listen health: %w", err)
	}
	go func() {
		if err := health.Start(); err != nil {
			logger.Error("Health server stopped", log.FieldError, err.Error())
		}
	}()
	defer health.Stop()
	health.SetServing("", true)
	health.SetServing(serviceName, true)
	logger.Info("Health endpoint listening", "addr", addr.String())

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- events.ConsumeEvents(ctx, syncWorker.HandleEvent)
	}()

	select {
	case err := <-consumeErr:
		health.SetServing(serviceName, false)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", log.FieldError, err.Error())
			return err
		}
	case <-ctx.Done():
		health.SetServing(serviceName, false)
		// let an in-flight event finish before the connection closes
		select {
		case <-consumeErr:
		case <-time.After(10 * time.Second):
			logger.Warn("Shutdown timeout reached")
		}
	}

	logger.Info("pennywise-worker stopped", log.FieldOperation, log.OpShutdown)
	return nil
}
