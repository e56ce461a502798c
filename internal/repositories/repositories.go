// package repositories provides persistence for credentials and transfer history.
package repositories

import (
	"fmt"
	"time"

	"github.com/desertthunder/plmove/internal/models"
)

// timeLayout keeps a fixed fractional width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	_ models.CredentialStore = (*CredentialRepository)(nil)
	_ models.TransferLogSink = (*TransferLogRepository)(nil)
	_ models.CredentialStore = (*PostgresStore)(nil)
	_ models.TransferLogSink = (*PostgresStore)(nil)
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
