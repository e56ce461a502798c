package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plmove/internal/shared"
)

// YTMusicSearch runs the same song-scoped search the resolver uses.
func (r *Runner) YTMusicSearch(ctx context.Context, cmd *cli.Command) error {
	if r.searcher == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	r.logger.Info("searching youtube music", "query", query)
	candidates, err := r.searcher.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, true)
	}

	if len(candidates) == 0 {
		return r.writePlain("No songs found for %q\n", query)
	}
	for i, c := range candidates {
		r.writePlain("%2d. %s - %s  (%s)\n", i+1, strings.Join(c.Artists, ", "), c.Title, c.VideoID)
	}
	return nil
}

// YTMusicHeaders converts a browser request into the auth file the proxy reads.
func (r *Runner) YTMusicHeaders(ctx context.Context, cmd *cli.Command) error {
	headers, err := shared.ParseCurlFile(cmd.String("curl"))
	if err != nil {
		return err
	}

	if cmd.Bool("raw") {
		return r.writePlain("%s\n", headers.Raw())
	}

	path := cmd.String("output")
	if path == "" {
		path = r.config.Credentials.YouTube.AuthFile
	}
	if err := headers.WriteAuthFile(path); err != nil {
		return err
	}

	r.logger.Info("saved youtube music headers", "path", path, "headers", len(headers))
	return r.writePlain("✓ Saved %d headers to %s\n", len(headers), path)
}
