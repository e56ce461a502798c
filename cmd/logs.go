package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plmove/internal/formatter"
	"github.com/desertthunder/plmove/internal/shared"
)

// LogsList renders the user's transfer history.
func (r *Runner) LogsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}
	userID := cmd.String("user")

	limit := cmd.Int("limit")
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	entries, err := r.store.Logs.List(ctx, userID, int(limit))
	if err != nil {
		return fmt.Errorf("failed to list transfer logs: %w", err)
	}

	if out := cmd.String("output"); out != "" {
		path, err := formatter.WriteReport(format, userID, entries, out)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d entries to %s\n", len(entries), path)
	}

	data, err := formatter.Render(format, userID, entries)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
