package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"dicipfinance/internal/amqp"
	"dicipfinance/internal/backend"
	"dicipfinance/internal/cli"
	"dicipfinance/internal/core"
	"dicipfinance/internal/insights"
	applog "dicipfinance/internal/log"
	"dicipfinance/internal/sheets"
	gsheet "dicipfinance/internal/sheets/google"
	"dicipfinance/internal/sheets/memory"
	"dicipfinance/internal/worker"
)

const (
	reportTimeout = 5 * time.Minute
	resyncTimeout = 2 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker, os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting dicipfinance-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	sources, err := backend.NewFactory(logger.Logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data sources", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := sources.Cleanup(); err != nil {
			logger.Error("Failed to close data sources", "error", err)
		}
	}()

	var tabs sheets.TabWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.NewFromConfig(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		tabs = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		tabs = memory.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	mirror := worker.NewMirror(sources, tabs)
	syncAll := func(ctx context.Context) error {
		return errors.Join(
			mirror.SyncAll(ctx, core.Offline),
			mirror.SyncAll(ctx, core.Online),
		)
	}
	if err := syncAll(ctx); err != nil {
		// Keep running; the hourly resync retries.
		logger.Error("Startup sync failed", "error", err)
	}

	gen, err := insights.NewGenerator(cfg)
	if err != nil {
		logger.Warn("AI insights disabled", "error", err)
		gen = insights.Disabled{}
	}
	reportJob := worker.NewReportJob(sources, core.ModeOrDefault(cfg.DefaultDataMode),
		insights.NewService(gen, cfg.AITimeout), tabs, cfg.Currency)

	c := cron.New()
	if _, err := worker.Schedule(ctx, c, cfg.ReportSchedule, "monthly_report", reportTimeout, reportJob.Run); err != nil {
		logger.Error("Invalid report schedule", "error", err, "schedule", cfg.ReportSchedule)
		os.Exit(1)
	}
	if _, err := worker.Schedule(ctx, c, "@hourly", "sheets_resync", resyncTimeout, syncAll); err != nil {
		logger.Error("Failed to schedule resync", "error", err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("Scheduler started", "report_schedule", cfg.ReportSchedule)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeLedgerChanges(gctx, mirror.HandleLedgerChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
	}

	logger.Info("Shutting down worker...")
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
