package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plmove/internal/shared"
)

// SetupDatabase runs migrations against the configured database and reports their state.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	r.logger.Info("running database migrations", "driver", r.store.Driver)
	if err := r.store.Migrate(ctx); err != nil {
		return err
	}

	statuses, err := r.store.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	for _, s := range statuses {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("%s %04d %s\n", mark, s.Version, s.Name)
	}

	target := r.config.Database.Path
	if r.store.Driver == shared.DriverPostgres {
		target = "postgres"
	}
	r.logger.Infof("setup complete for database: %v", target)
	return r.writePlain("✓ Database ready (%s)\n", r.store.Driver)
}

// SetupRollback reverts the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}
	if err := r.store.Rollback(); err != nil {
		return err
	}
	r.logger.Warn("rolled back latest migration", "driver", r.store.Driver)
	return r.writePlain("✓ Rolled back latest migration\n")
}

// SetupConfig writes the embedded example configuration to --output.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		return fmt.Errorf("%w: --output", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'plmove auth login --user <you>' to connect Spotify\n")
	return nil
}
