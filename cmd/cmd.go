// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User the credential and transfer history belong to",
		Sources:  cli.EnvVars("PLMOVE_USER"),
		Required: true,
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent migration (sqlite only)",
				Action: r.SetupRollback,
			},
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the configuration file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles Spotify authorization for a user
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Connect a user's Spotify account",
		Commands: []*cli.Command{
			{
				Name:   "url",
				Usage:  "Print the Spotify authorization URL",
				Flags:  []cli.Flag{userFlag()},
				Action: r.AuthURL,
			},
			{
				Name:  "login",
				Usage: "Authorize in the browser and save the credential",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the URL instead of opening a browser",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the callback",
						Value: 5 * time.Minute,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "exchange",
				Usage: "Exchange an authorization code manually and save the credential",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:     "code",
						Usage:    "Authorization code from the redirect URL",
						Required: true,
					},
				},
				Action: r.AuthExchange,
			},
			{
				Name:   "status",
				Usage:  "Show whether the user is connected and when the token expires",
				Flags:  []cli.Flag{userFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistsCommand lists source playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the user's Spotify playlists",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks a transfer would search for",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Spotify playlist ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsTracks,
			},
		},
	}
}

// transferCommand handles playlist transfer operations
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer playlists to YouTube Music",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Copy a Spotify playlist to a new YouTube Music playlist",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Spotify playlist ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the result as JSON",
					},
				},
				Action: r.TransferRun,
			},
		},
	}
}

// logsCommand reads transfer history
func logsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Transfer history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the user's transfers, newest first",
				Flags: []cli.Flag{
					userFlag(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of entries (0 for all)",
						Value:   20,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "text, markdown, csv or json",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the report to a file instead of stdout",
					},
				},
				Action: r.LogsList,
			},
		},
	}
}

// ytmusicCommand handles YouTube Music operations
func ytmusicCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ytmusic",
		Aliases: []string{"ytm", "yt"},
		Usage:   "YouTube Music operations",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search YouTube Music songs through the proxy",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.YTMusicSearch,
			},
			{
				Name:  "headers",
				Usage: "Save browser headers from a copied cURL request as the proxy auth file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "curl",
						Usage:    "File containing the request copied with \"Copy as cURL\"",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Auth file to write (defaults to credentials.youtube.auth_file)",
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the headers as raw \"key: value\" lines instead of writing a file",
					},
				},
				Action: r.YTMusicHeaders,
			},
		},
	}
}
