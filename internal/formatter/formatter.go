// package formatter exports the result of a playlist build to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/tasks"
)

// Format identifies an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// FormatFromPath picks the export format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: report %q must end in .csv, .md or .txt", shared.ErrInvalidArgument, path)
	}
}

// ExportToCSV converts the requested tracks to CSV with columns: Position, TrackID, URI, User, Status, RedeemedAt, Searched, Message
func ExportToCSV(r *tasks.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "TrackID", "URI", "User", "Status", "RedeemedAt", "Searched", "Message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, req := range r.Requests {
		redeemed := ""
		if !req.RedeemedAt.IsZero() {
			redeemed = req.RedeemedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.Itoa(i + 1),
			req.TrackID,
			req.URI(),
			req.User,
			req.Status,
			redeemed,
			strconv.FormatBool(req.Searched),
			req.Message,
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

func title(r *tasks.Report) string {
	if r.Playlist != nil {
		return r.Playlist.Name
	}
	return tasks.PlaylistName(r.Channel)
}

// ExportToMarkdown converts a report to Markdown with the request list and the skipped messages
func ExportToMarkdown(r *tasks.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title(r)))

	if r.Playlist != nil && r.Playlist.URL != "" {
		buf.WriteString(fmt.Sprintf("**Playlist**: [%s](%s)\n", r.Playlist.Name, r.Playlist.URL))
	}
	if r.DryRun {
		buf.WriteString("**Dry run**: playlist not created\n")
	}
	buf.WriteString(fmt.Sprintf("**Reward**: %s\n", r.Reward.Title))
	buf.WriteString(fmt.Sprintf("**Redemptions**: %d\n", r.Redemptions))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(r.Requests)))
	buf.WriteString(fmt.Sprintf("**Created**: %s\n\n", r.Created.Format("2006-01-02")))

	buf.WriteString("## Tracks\n\n")
	for i, req := range r.Requests {
		via := ""
		if req.Searched {
			via = " (search)"
		}
		buf.WriteString(fmt.Sprintf("%d. [%s](https://open.spotify.com/track/%s) requested by %s%s\n", i+1, req.TrackID, req.TrackID, req.User, via))
	}

	if len(r.Skips) > 0 {
		buf.WriteString("\n## Skipped\n\n")
		for _, s := range r.Skips {
			buf.WriteString(fmt.Sprintf("- #%d %s: `%s`\n", s.Position, s.User, shared.Truncate(s.Message, 80)))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a report to plain text format
func ExportToText(r *tasks.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", title(r)))
	if r.Playlist != nil && r.Playlist.URL != "" {
		buf.WriteString(fmt.Sprintf("URL: %s\n", r.Playlist.URL))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n", len(r.Requests)))
	buf.WriteString(fmt.Sprintf("Skipped: %d\n\n", len(r.Skips)))

	for i, req := range r.Requests {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, req.URI(), req.User))
	}

	return buf.Bytes(), nil
}

// Export renders the report in the given format.
func Export(r *tasks.Report, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(r)
	case FormatMarkdown:
		return ExportToMarkdown(r)
	case FormatText:
		return ExportToText(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport writes the report to path, choosing the format from its extension.
func WriteReport(r *tasks.Report, path string) (Format, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return "", err
	}

	data, err := Export(r, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return format, nil
}
