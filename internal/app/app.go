// Package app initializes and holds long-lived application services, acting as
// a dependency injection container for the CLI and the HTTP server.
package app

import (
	"context"
	"fmt"

	pubsubapi "cloud.google.com/go/pubsub/v2"
	gcsstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/querydesk/internal/clock/system"
	"github.com/JakeFAU/querydesk/internal/config"
	"github.com/JakeFAU/querydesk/internal/id/uuid"
	"github.com/JakeFAU/querydesk/internal/identity"
	memorypublisher "github.com/JakeFAU/querydesk/internal/publisher/memory"
	"github.com/JakeFAU/querydesk/internal/publisher/pubsub"
	"github.com/JakeFAU/querydesk/internal/queries"
	"github.com/JakeFAU/querydesk/internal/rowstore"
	"github.com/JakeFAU/querydesk/internal/rowstore/csvblob"
	memorystore "github.com/JakeFAU/querydesk/internal/rowstore/memory"
	"github.com/JakeFAU/querydesk/internal/rowstore/postgres"
	"github.com/JakeFAU/querydesk/internal/rowstore/sheets"
	"github.com/JakeFAU/querydesk/internal/storage"
	"github.com/JakeFAU/querydesk/internal/storage/gcs"
	"github.com/JakeFAU/querydesk/internal/storage/local"
	memoryblobs "github.com/JakeFAU/querydesk/internal/storage/memory"
)

// App holds the shared, long-lived services built from one Config.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    rowstore.Store
	service  *queries.Service
	identity identity.Provider
	closers  []func()
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store returns the row store.
func (a *App) Store() rowstore.Store { return a.store }

// Service returns the query service.
func (a *App) Service() *queries.Service { return a.service }

// Identity returns the request identity provider.
func (a *App) Identity() identity.Provider { return a.identity }

// New builds every service named by cfg. It fails fast if any cannot be
// initialized, releasing whatever was already opened.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.store, err = a.buildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize row store: %w", err)
	}

	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize publisher: %w", err)
	}

	a.identity, err = identity.New(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}

	qcfg, err := cfg.Queries()
	if err != nil {
		return nil, err
	}
	opts := []queries.Option{
		queries.WithLogger(logger),
		queries.WithClock(system.New(qcfg.Location)),
		queries.WithIDGenerator(uuid.New()),
	}
	if publisher != nil {
		opts = append(opts, queries.WithPublisher(publisher))
	}
	a.service, err = queries.New(a.store, qcfg, opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("application services initialized",
		zap.String("store", cfg.Store.Provider),
		zap.String("publisher", cfg.PubSub.Provider),
		zap.String("identity", cfg.Identity.Provider),
		zap.String("matching_policy", string(qcfg.Matching.Policy)),
	)
	return a, nil
}

func (a *App) buildStore(ctx context.Context) (rowstore.Store, error) {
	cfg := a.cfg.Store
	tables := []string{a.cfg.Tables.Queries, a.cfg.Tables.Ratings}

	switch cfg.Provider {
	case config.StoreMemory:
		a.logger.Info("using in-memory row store; data is lost on exit")
		return memorystore.NewStore(tables...), nil
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.StoreSheets:
		return sheets.NewStore(ctx, cfg.Sheets)
	case config.StoreCSV:
		blobs, err := a.buildBlobStore(ctx)
		if err != nil {
			return nil, err
		}
		store, err := csvblob.NewStore(blobs, csvblob.Config{Prefix: cfg.CSV.Prefix})
		if err != nil {
			return nil, err
		}
		if cfg.CreateTables {
			for _, table := range tables {
				if table == "" {
					continue
				}
				if err := store.EnsureTable(ctx, table); err != nil {
					return nil, fmt.Errorf("create table %q: %w", table, err)
				}
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Provider)
	}
}

func (a *App) buildBlobStore(ctx context.Context) (storage.BlobStore, error) {
	cfg := a.cfg.Store.CSV
	switch cfg.Backend {
	case "local":
		return local.New(local.Config{BaseDir: cfg.Dir})
	case "gcs":
		client, err := gcsstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("error closing storage client", zap.Error(err))
			}
		})
		return gcs.New(client, gcs.Config{Bucket: cfg.Bucket})
	case "memory":
		return memoryblobs.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unknown csv backend: %s", cfg.Backend)
	}
}

func (a *App) buildPublisher(ctx context.Context) (queries.Publisher, error) {
	cfg := a.cfg.PubSub
	switch cfg.Provider {
	case "", config.PublisherNone:
		return nil, nil
	case config.PublisherMemory:
		return memorypublisher.New(), nil
	case config.PublisherPubSub:
		client, err := pubsubapi.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("create pubsub client: %w", err)
		}
		pub, err := pubsub.NewForTopic(client, cfg.TopicName)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		a.closers = append(a.closers, pub.Stop, func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("error closing pubsub client", zap.Error(err))
			}
		})
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown publisher provider: %s", cfg.Provider)
	}
}

// Close releases every service in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
