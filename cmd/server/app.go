package main

import (
	"alcyxob/trainerscribe/internal/config"
	"alcyxob/trainerscribe/internal/export"
	"alcyxob/trainerscribe/internal/repository"
	"alcyxob/trainerscribe/internal/repository/file"
	"alcyxob/trainerscribe/internal/repository/mongo"
	"alcyxob/trainerscribe/internal/repository/sqlite"
	"alcyxob/trainerscribe/internal/service"
	"alcyxob/trainerscribe/internal/storage"
	"alcyxob/trainerscribe/internal/store"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// app is the wired object graph shared by every command.
type app struct {
	customers   *store.CustomerStore
	protocols   *store.ProtocolStore
	authSvc     service.AuthService
	customerSvc service.CustomerService
	protocolSvc service.ProtocolService

	closers []func() error
}

// Close releases the snapshot backend.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newApp connects the configured backends and restores both collections.
// A non-nil documents overrides the configured document storage.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, documents storage.DocumentStorage) (*app, error) {
	a := &app{}

	repo, err := a.openSnapshots(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if documents == nil {
		documents, err = openDocuments(ctx, cfg, logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.customers = store.NewCustomerStore(repo, store.WithLogger(logger))
	a.protocols = store.NewProtocolStore(repo, store.WithLogger(logger))
	if err := a.customers.Load(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load customers: %w", err)
	}
	if err := a.protocols.Load(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load protocols: %w", err)
	}

	a.authSvc = service.NewAuthService(cfg.Admin.Email, cfg.Admin.PasswordHash, cfg.JWT.Secret, cfg.JWT.Expiration)
	a.customerSvc = service.NewCustomerService(a.customers, logger)
	a.protocolSvc = service.NewProtocolService(
		a.protocols,
		a.customers,
		export.NewExporter(logger, nil),
		documents,
		cfg.Documents.URLExpiry,
		logger,
	)
	return a, nil
}

func (a *app) openSnapshots(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.SnapshotRepository, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		repo, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		a.closers = append(a.closers, repo.Close)
		logger.Info("snapshot backend ready", zap.String("backend", "sqlite"), zap.String("path", cfg.SQLite.Path))
		return repo, nil

	case "mongo":
		client, err := mongo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		a.closers = append(a.closers, func() error { return mongo.DisconnectDB(client) })
		logger.Info("snapshot backend ready", zap.String("backend", "mongo"), zap.String("database", cfg.Database.Name))
		return mongo.NewMongoSnapshotRepository(client.Database(cfg.Database.Name)), nil

	default:
		repo, err := file.NewFileSnapshotRepository(afero.NewOsFs(), cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("open snapshot dir %s: %w", cfg.Storage.Dir, err)
		}
		logger.Info("snapshot backend ready", zap.String("backend", "file"), zap.String("dir", cfg.Storage.Dir))
		return repo, nil
	}
}

func openDocuments(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.DocumentStorage, error) {
	if cfg.Documents.Backend == "s3" {
		return storage.NewS3Storage(ctx, cfg.S3, logger)
	}
	return storage.NewLocalStorage(afero.NewOsFs(), cfg.Documents.Dir, logger)
}
