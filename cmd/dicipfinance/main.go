package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dicipfinance/internal/amqp"
	"dicipfinance/internal/backend"
	"dicipfinance/internal/cli"
	"dicipfinance/internal/core"
	apphttp "dicipfinance/internal/http"
	"dicipfinance/internal/insights"
	applog "dicipfinance/internal/log"
	"dicipfinance/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp, os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	sources, err := backend.NewFactory(logger.Logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data sources", "error", err, "online_backend", cfg.OnlineBackend)
		os.Exit(1)
	}
	defer func() {
		if err := sources.Cleanup(); err != nil {
			logger.Error("Failed to close data sources", "error", err)
		}
	}()

	opts := []services.LedgerOption{services.WithDefaultMode(core.ModeOrDefault(cfg.DefaultDataMode))}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Changes are still saved; only the mirror misses them.
			logger.Warn("AMQP unavailable, ledger changes will not be published", "error", err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, services.WithPublisher(amqpClient))
			logger.Info("Publishing ledger changes", "exchange", cfg.AMQPExchange)
		}
	}

	ledger := services.NewLedger(sources.Store, sources, opts...)
	if err := ledger.Reload(ctx); err != nil {
		logger.Error("Failed to load ledger data", "error", err)
		os.Exit(1)
	}

	gen, err := insights.NewGenerator(cfg)
	if err != nil {
		logger.Warn("AI insights disabled", "error", err)
		gen = insights.Disabled{}
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, insights.NewService(gen, cfg.AITimeout), apphttp.Options{
		Currency:     cfg.Currency,
		CacheTTL:     cfg.CacheTTL,
		RateLimitRPM: cfg.RateLimitRPM,
		Logger:       logger.WithComponent(applog.ComponentHTTP),
		Ready:        sources.Ping,
	})

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting dicipfinance server",
		"port", cfg.Port,
		"mode", ledger.Mode(),
		"online_backend", cfg.OnlineBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
