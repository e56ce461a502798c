package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthExchange       = fmt.Errorf("authorization code exchange failed")
	ErrRefreshFailed      = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken     = fmt.Errorf("no refresh token available")
	ErrNotConnected       = fmt.Errorf("spotify account not connected")
	ErrCredentialNotFound = fmt.Errorf("credential not found")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrInvalidState       = fmt.Errorf("invalid state parameter")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTargetCreate       = fmt.Errorf("target playlist creation failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// AuthExchangeError is returned when the source token endpoint rejects an authorization code.
type AuthExchangeError struct {
	StatusCode int
	Err        error
}

func (e *AuthExchangeError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v: status %d: %v", ErrAuthExchange, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrAuthExchange, e.Err)
}

// Is reports [ErrAuthExchange] so callers can match with [errors.Is].
func (e *AuthExchangeError) Is(target error) bool { return target == ErrAuthExchange }

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// AuthRefreshError is returned when the source token endpoint rejects a refresh token.
type AuthRefreshError struct {
	StatusCode int
	Err        error
}

func (e *AuthRefreshError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v: status %d: %v", ErrRefreshFailed, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrRefreshFailed, e.Err)
}

func (e *AuthRefreshError) Is(target error) bool { return target == ErrRefreshFailed }

func (e *AuthRefreshError) Unwrap() error { return e.Err }

// PlaylistNotFoundError means the requested source playlist is not in the user's listing.
type PlaylistNotFoundError struct {
	PlaylistID string
}

func (e *PlaylistNotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrPlaylistNotFound, e.PlaylistID)
}

func (e *PlaylistNotFoundError) Is(target error) bool { return target == ErrPlaylistNotFound }

// TargetCreateError wraps a failure to create the destination playlist.
type TargetCreateError struct {
	Title string
	Err   error
}

func (e *TargetCreateError) Error() string {
	return fmt.Sprintf("%v: %q: %v", ErrTargetCreate, e.Title, e.Err)
}

func (e *TargetCreateError) Is(target error) bool { return target == ErrTargetCreate }

func (e *TargetCreateError) Unwrap() error { return e.Err }
