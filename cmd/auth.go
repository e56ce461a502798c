package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plmove/internal/server"
	"github.com/desertthunder/plmove/internal/services"
	"github.com/desertthunder/plmove/internal/shared"
)

// AuthURL prints the consent URL with a fresh state token.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	r.writePlain("%s\n", r.spotify.AuthorizeURL(state))
	r.writePlainln("After approving, run:")
	r.writePlain("plmove auth exchange --user %s --code <code from the redirect URL>\n", cmd.String("user"))
	return nil
}

// AuthLogin runs the browser flow: a local callback server receives the code and
// saves the credential for --user.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	userID := cmd.String("user")

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(r.spotify, state)
	srv, err := server.Start(r.callbackAddr(), server.NewCallbackRouter(userID, handler, r.logger))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("callback server shutdown", "err", err)
		}
	}()

	authURL := r.spotify.AuthorizeURL(state)
	r.logger.Info("waiting for spotify callback", "addr", srv.Addr(), "user", userID)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize:\n%s\n", authURL)
	} else if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "err", err)
		r.writePlain("Open this URL to authorize:\n%s\n", authURL)
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case res := <-handler.Result():
		if err := res.Error(); err != nil {
			return err
		}
		r.logger.Info("spotify connected", "user", userID)
		return r.writePlain("✓ Spotify connected for %s (token expires %s)\n", userID, res.Record.ExpiresAt.Local().Format(time.RFC1123))
	case err := <-srv.Errors():
		if err == nil {
			err = errors.New("callback server stopped")
		}
		return err
	case <-waitCtx.Done():
		return fmt.Errorf("timed out waiting for authorization: %w", waitCtx.Err())
	}
}

// callbackAddr listens where the configured redirect URI points, falling back to [server].
func (r *Runner) callbackAddr() string {
	if u, err := url.Parse(r.config.Credentials.Spotify.RedirectURI); err == nil && u.Port() != "" {
		return u.Host
	}
	host := r.config.Server.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := r.config.Server.Port
	if port == 0 {
		port = 3000
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// AuthExchange exchanges a code copied from the redirect URL and saves the credential.
func (r *Runner) AuthExchange(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	userID := cmd.String("user")

	data, err := r.spotify.ExchangeCode(ctx, cmd.String("code"))
	if err != nil {
		return err
	}
	record, err := r.spotify.SaveToken(ctx, userID, data)
	if err != nil {
		return err
	}

	r.logger.Info("spotify connected", "user", userID)
	return r.writePlain("✓ Spotify connected for %s (token expires %s)\n", userID, record.ExpiresAt.Local().Format(time.RFC1123))
}

// AuthStatus reports whether --user has a stored credential and whether it needs a refresh.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	userID := cmd.String("user")

	record, err := r.spotify.Credential(ctx, userID)
	if errors.Is(err, shared.ErrNotConnected) {
		return r.writePlain("✗ %s is not connected to Spotify\n", userID)
	}
	if err != nil {
		return err
	}

	r.writePlainHeader("Spotify connection")
	r.writePlain("User: %s\n", record.UserID)
	r.writePlain("Scope: %s\n", record.Scope)
	r.writePlain("Expires: %s\n", record.ExpiresAt.Local().Format(time.RFC1123))

	switch {
	case record.Stale(r.now(), services.StalenessMargin) && record.RefreshToken == "":
		r.writePlain("Status: ✗ expired, reconnect with 'plmove auth login'\n")
	case record.Stale(r.now(), services.StalenessMargin):
		r.writePlain("Status: ✓ connected (token refreshes on next use)\n")
	default:
		r.writePlain("Status: ✓ connected\n")
	}
	return nil
}
