package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/repositories"
	"github.com/desertthunder/plmove/internal/shared"
)

// Store bundles the persistence the CLI needs, whichever driver backs it.
type Store struct {
	Driver      string
	Credentials models.CredentialStore
	Logs        models.TransferLogSink

	migrate  func(ctx context.Context) error
	rollback func() error
	status   func(ctx context.Context) ([]shared.MigrationStatus, error)
	close    func() error
}

// OpenStore opens the database selected by config and prepares its schema.
func OpenStore(ctx context.Context, config *shared.Config) (*Store, error) {
	switch config.Database.Driver {
	case shared.DriverPostgres:
		db, err := shared.NewPostgresDatabase(config.Database.DSN, config.Database.Debug)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db.DB, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

		pg := repositories.NewPostgresStore(db)
		s := &Store{
			Driver:      shared.DriverPostgres,
			Credentials: pg,
			Logs:        pg,
			migrate:     pg.CreateSchema,
			close:       db.Close,
		}
		return s.ready(ctx)
	case shared.DriverSQLite, "":
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return nil, err
		}
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

		s := &Store{
			Driver:      shared.DriverSQLite,
			Credentials: repositories.NewCredentialRepository(db),
			Logs:        repositories.NewTransferLogRepository(db),
			migrate:     func(ctx context.Context) error { return shared.RunMigrationsContext(ctx, db) },
			rollback:    func() error { return shared.RollbackMigration(db) },
			status:      func(ctx context.Context) ([]shared.MigrationStatus, error) { return shared.Migrations(ctx, db) },
			close:       db.Close,
		}
		return s.ready(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", shared.ErrInvalidConfig, config.Database.Driver)
	}
}

func (s *Store) ready(ctx context.Context) (*Store, error) {
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate brings the schema up to date. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.migrate == nil {
		return nil
	}
	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Rollback reverts the latest migration. Only SQLite tracks versions.
func (s *Store) Rollback() error {
	if s == nil || s.rollback == nil {
		return fmt.Errorf("%w: rollback is not supported for this database", shared.ErrInvalidArgument)
	}
	if err := s.rollback(); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// Status lists migrations for drivers that track them.
func (s *Store) Status(ctx context.Context) ([]shared.MigrationStatus, error) {
	if s == nil || s.status == nil {
		return nil, nil
	}
	return s.status(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}
