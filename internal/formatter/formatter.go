// package formatter renders transfer history and transfer results as reports (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/plmove/internal/models"
	"github.com/desertthunder/plmove/internal/shared"
)

// Format names a report rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

const dateLayout = "2006-01-02 15:04:05 MST"

// ParseFormat maps a user-supplied name to a [Format]. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension used when a report is written to disk.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// ExportToCSV converts log entries to CSV with one row per transfer.
func ExportToCSV(entries []models.TransferLogEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"ID", "Created At", "Source", "Target",
		"Source Playlist ID", "Source Playlist", "Target Playlist ID", "Target Playlist",
		"Total", "Success", "Failed", "Status", "Message",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.ID,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.SourceService,
			e.TargetService,
			e.SourcePlaylistID,
			e.SourcePlaylistName,
			e.TargetPlaylistID,
			e.TargetPlaylistName,
			strconv.Itoa(e.TotalTracks),
			strconv.Itoa(e.SuccessCount),
			strconv.Itoa(e.FailCount),
			e.Status,
			e.Message,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts log entries to a Markdown report with a summary table.
func ExportToMarkdown(userID string, entries []models.TransferLogEntry) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Transfer history for %s\n\n", userID)
	if len(entries) == 0 {
		buf.WriteString("_No transfers recorded._\n")
		return buf.Bytes(), nil
	}

	total, success, failed := totals(entries)
	fmt.Fprintf(&buf, "**Transfers**: %d\n", len(entries))
	fmt.Fprintf(&buf, "**Tracks**: %d (%d added, %d failed)\n\n", total, success, failed)

	buf.WriteString("| Date | Source | Target | Tracks | Added | Failed | Status |\n")
	buf.WriteString("|---|---|---|---|---|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&buf, "| %s | %s (`%s`) | %s (`%s`) | %d | %d | %d | %s |\n",
			e.CreatedAt.UTC().Format(dateLayout),
			escapeCell(e.SourcePlaylistName), e.SourcePlaylistID,
			escapeCell(e.TargetPlaylistName), e.TargetPlaylistID,
			e.TotalTracks, e.SuccessCount, e.FailCount, e.Status)
	}

	return buf.Bytes(), nil
}

// ExportToText converts log entries to plain text format
func ExportToText(entries []models.TransferLogEntry) ([]byte, error) {
	var buf bytes.Buffer

	if len(entries) == 0 {
		buf.WriteString("No transfers recorded.\n")
		return buf.Bytes(), nil
	}

	for i, e := range entries {
		fmt.Fprintf(&buf, "%d. [%s] %s -> %s: %d/%d added (%s)\n",
			i+1, e.CreatedAt.UTC().Format(dateLayout),
			e.SourcePlaylistName, e.TargetPlaylistID,
			e.SuccessCount, e.TotalTracks, e.Status)
		if e.Message != "" {
			fmt.Fprintf(&buf, "   %s\n", e.Message)
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders entries as an indented JSON array. A nil slice renders as [].
func ExportToJSON(entries []models.TransferLogEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.TransferLogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Render dispatches to the exporter for f.
func Render(f Format, userID string, entries []models.TransferLogEntry) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return ExportToMarkdown(userID, entries)
	case FormatCSV:
		return ExportToCSV(entries)
	case FormatJSON:
		return ExportToJSON(entries)
	case FormatText, "":
		return ExportToText(entries)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteReport renders entries and writes them to path.
//
// Defaults to transfers_{userID}.{ext} as the filename.
func WriteReport(f Format, userID string, entries []models.TransferLogEntry, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("transfers_%s.%s", userID, f.Extension())
	}

	data, err := Render(f, userID, entries)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// SummarizeTransfer renders a finished transfer for the terminal, listing every failed track.
func SummarizeTransfer(playlistName string, result *models.TransferResult) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Transferred %q to YouTube Music playlist %s\n", playlistName, result.TargetPlaylistID)
	fmt.Fprintf(&buf, "Tracks: %d  Added: %d  Failed: %d\n", result.TotalTracks, result.SuccessCount, result.FailCount)

	if failed := result.Failed(); len(failed) > 0 {
		buf.WriteString("\nNot transferred:\n")
		for _, o := range failed {
			fmt.Fprintf(&buf, "  - %s\n", o)
		}
	}

	return buf.Bytes()
}

func totals(entries []models.TransferLogEntry) (total, success, failed int) {
	for _, e := range entries {
		total += e.TotalTracks
		success += e.SuccessCount
		failed += e.FailCount
	}
	return total, success, failed
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
