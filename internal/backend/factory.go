package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dicipfinance/internal/config"
	"dicipfinance/internal/core"
	"dicipfinance/internal/localstore"
	"dicipfinance/internal/postgres"
	"dicipfinance/internal/storage"
	"dicipfinance/internal/supabase"
)

// Config holds configuration for building the data sources
type Config struct {
	LocalStore    string
	SQLiteDBPath  string
	OnlineBackend Kind
	DatabaseURL   string
	SupabaseURL   string
	SupabaseKey   string
}

// Result holds the sources for both data modes and the local store shared by them.
type Result struct {
	Store   localstore.Store
	Offline Source
	Online  Source
	Cleanup CleanupFunc
}

// For returns the source serving mode.
func (r *Result) For(mode core.DataMode) Source {
	if mode == core.Online {
		return r.Online
	}
	return r.Offline
}

// Pinger is implemented by stores backed by a database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the connections behind the local store and the online source.
// Stores without a connection are skipped.
func (r *Result) Ping(ctx context.Context) error {
	var errs []error
	if p, ok := r.Store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("local store: %w", err))
		}
	}
	if remote, ok := r.Online.(*RemoteSource); ok {
		if p, ok := remote.ListStore.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s backend: %w", remote.Kind(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	online := Kind(appConfig.OnlineBackend)
	if !online.IsValid() || online == LocalKind {
		return Config{}, fmt.Errorf("invalid online backend in config: %s", appConfig.OnlineBackend)
	}
	return Config{
		LocalStore:    appConfig.LocalStore,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		OnlineBackend: online,
		DatabaseURL:   appConfig.DatabaseURL,
		SupabaseURL:   appConfig.SupabaseURL,
		SupabaseKey:   appConfig.SupabaseKey,
	}, nil
}

// Factory builds data sources from configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	store, err := f.createLocalStore(cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}

	online, closeOnline, err := f.createOnlineSource(ctx, cfg, store)
	if err != nil {
		cleanup()
		return nil, err
	}
	if closeOnline != nil {
		closers = append(closers, closeOnline)
	}

	return &Result{
		Store:   store,
		Offline: NewLocalSource(store),
		Online:  online,
		Cleanup: cleanup,
	}, nil
}

func (f *Factory) createLocalStore(cfg Config) (localstore.Store, error) {
	switch cfg.LocalStore {
	case "memory":
		f.logger.Warn("Using in-memory local store, offline data will not survive a restart")
		return localstore.NewMemory(), nil
	case "sqlite", "":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite local store", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported local store: %s", cfg.LocalStore)
	}
}

func (f *Factory) createOnlineSource(ctx context.Context, cfg Config, store localstore.Store) (Source, CleanupFunc, error) {
	switch cfg.OnlineBackend {
	case SimulatedKind, "":
		f.logger.Info("Online mode is simulated, transactions and goals will not be saved")
		return NewSimulatedSource(store), nil, nil
	case PostgresKind:
		repo, err := postgres.NewRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres backend: %w", err)
		}
		f.logger.Info("Initialized postgres online backend")
		return NewRemoteSource(PostgresKind, repo), repo.Close, nil
	case SupabaseKind:
		repo, err := supabase.NewRepository(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize supabase backend: %w", err)
		}
		f.logger.Info("Initialized supabase online backend", "url", cfg.SupabaseURL)
		return NewRemoteSource(SupabaseKind, repo), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported online backend: %s", cfg.OnlineBackend)
	}
}
