package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"oltmap/adapters/excel"
	"oltmap/adapters/memory"
	"oltmap/adapters/postgres"
	"oltmap/internal/catalog"
	"oltmap/internal/config"
	"oltmap/internal/ingestion"
	"oltmap/internal/migration"
	"oltmap/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	Store ports.Store
	DB    *sqlx.DB // nil with the memory backend

	// Services
	Reader    *excel.Reader
	Ingestion *ingestion.Service
	Catalog   *catalog.Service
	Migrator  migration.Migrator
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Migrator: migration.NewRunner(logger),
	}, nil
}

// Init opens the configured storage backend and wires the services on top of it
func (c *Container) Init(ctx context.Context) error {
	if err := c.initStore(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	c.initServices()

	c.Logger.Info("container initialized", "storage", c.Config.Storage, "env", c.Config.Env)
	return nil
}

// InitWithStore wires the services on an already opened store
func (c *Container) InitWithStore(store ports.Store) {
	c.Store = store
	c.initServices()
}

func (c *Container) initStore(ctx context.Context) error {
	if c.Config.Storage == config.StorageMemory {
		c.Store = memory.NewStore()
		return nil
	}

	store, err := postgres.Open(ctx, postgres.Options{
		Driver:          c.Config.Database.Driver,
		URL:             c.Config.Database.URL,
		MaxOpenConns:    c.Config.Database.MaxOpenConns,
		MaxIdleConns:    c.Config.Database.MaxIdleConns,
		ConnMaxLifetime: c.Config.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.Store = store
	c.DB = store.DB()
	return nil
}

func (c *Container) initServices() {
	imp := c.Config.Import
	c.Reader = excel.NewReader(excel.ReaderConfig{MaxRows: imp.MaxRows}, c.Logger)
	c.Ingestion = ingestion.NewService(c.Store, ingestion.Options{
		BatchSize:    imp.BatchSize,
		TxRetries:    imp.TxRetries,
		StrictColors: imp.StrictColors,
	}, c.Logger)
	c.Catalog = catalog.NewService(c.Store, c.Logger)
}

// Migrate applies the schema migrations. It is a no-op for the memory backend.
func (c *Container) Migrate(ctx context.Context) error {
	if c.DB == nil {
		c.Logger.Info("migrations skipped", "storage", c.Config.Storage)
		return nil
	}
	return c.Migrator.Run(ctx, c.DB)
}

// Shutdown releases the storage backend
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
