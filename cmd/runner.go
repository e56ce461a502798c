package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/server"
	"github.com/desertthunder/plmove/internal/services"
	"github.com/desertthunder/plmove/internal/shared"
	"github.com/desertthunder/plmove/internal/tasks"
)

// SpotifyClient is what the CLI needs from the source service.
type SpotifyClient interface {
	server.TokenExchanger
	services.PlaylistSource
	AuthorizeURL(state string) string
	Credential(ctx context.Context, userID string) (*models.CredentialRecord, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	spotify     SpotifyClient
	searcher    services.TrackSearcher
	store       *Store
	engine      *tasks.TransferEngine
	logger      *log.Logger
	output      io.Writer
	openBrowser func(string) error
	now         func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Nil Spotify, Searcher, Publisher or Store leave the commands that need them failing with
// [shared.ErrServiceUnavailable].
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Spotify     SpotifyClient
	Searcher    services.TrackSearcher
	Publisher   services.PlaylistPublisher
	Store       *Store
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(string) error
	Now         func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var (
		source   services.PlaylistSource
		resolver services.Resolver
		logs     models.TransferLogSink
	)
	if opts.Spotify != nil {
		source = opts.Spotify
	}
	if opts.Searcher != nil {
		resolver = services.NewTrackResolver(opts.Searcher, opts.Config.Transfer.MatchThreshold)
	}
	if opts.Store != nil {
		logs = opts.Store.Logs
	}

	engine := tasks.NewTransferEngine(source, resolver, opts.Publisher, logs).
		WithLogger(opts.Logger).
		WithClock(opts.Now)

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		spotify:     opts.Spotify,
		searcher:    opts.Searcher,
		store:       opts.Store,
		engine:      engine,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
		now:         opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, transferCommand, logsCommand, ytmusicCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// App builds the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:     "plmove",
		Usage:    "Copy Spotify playlists to YouTube Music",
		Version:  "0.1.0",
		Writer:   r.output,
		Commands: r.register(),
	}
}

func (r *Runner) requireSpotify() error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client not configured (set credentials.spotify in %s)", shared.ErrServiceUnavailable, r.configName())
	}
	return nil
}

func (r *Runner) requireStore() error {
	if r.store == nil {
		return fmt.Errorf("%w: database not available", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) configName() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
