package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/plmove/internal/services"
	"github.com/desertthunder/plmove/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	shared.LoadEnvFile()

	configPath := os.Getenv("PLMOVE_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	config.ApplyEnv()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "err", err)
		}
	}
	shared.SetLogLevel(logger, config.Log.Level)

	ctx := context.Background()
	runner := NewRunner(wire(ctx, config, configPath, logger))
	defer runner.store.Close()

	if err := runner.App().Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotConnected):
			logger.Error("spotify is not connected for this user; run 'plmove auth login --user <id>' first")
			runner.store.Close()
			os.Exit(1)
		default:
			runner.store.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}

// wire constructs every client from config. Components that cannot be built are
// left nil and the commands that need them report it.
func wire(ctx context.Context, config *shared.Config, configPath string, logger *log.Logger) RunnerOpts {
	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	}

	if err := config.Validate(); err != nil {
		logger.Debug("config incomplete", "err", err)
	}

	store, err := OpenStore(ctx, config)
	if err != nil {
		logger.Warn("database unavailable", "driver", config.Database.Driver, "err", err)
	} else {
		opts.Store = store
	}

	httpClient := &http.Client{Timeout: config.HTTPTimeout()}

	if opts.Store != nil {
		spotify, err := services.NewSpotifyService(services.SpotifyOptions{
			ClientID:     config.Credentials.Spotify.ClientID,
			ClientSecret: config.Credentials.Spotify.ClientSecret,
			RedirectURI:  config.Credentials.Spotify.RedirectURI,
			HTTPClient:   httpClient,
			Logger:       logger,
		}, opts.Store.Credentials)
		if err != nil {
			logger.Debug("spotify client unavailable", "err", err)
		} else {
			opts.Spotify = spotify
		}
	}

	youtube := services.NewYouTubeService(
		config.Credentials.YouTube.ProxyURL,
		services.WithAuthFile(config.Credentials.YouTube.AuthFile),
		services.WithPrivacy(config.Transfer.Privacy),
		services.WithHTTPClient(httpClient),
		services.WithRateLimit(config.Transfer.RequestsPerSecond),
	)
	opts.Searcher = youtube
	opts.Publisher = youtube

	return opts
}
