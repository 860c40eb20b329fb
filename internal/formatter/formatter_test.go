package formatter

import (
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/tasks"
	th "github.com/desertthunder/songreqs/internal/testing"
)

func testReport() *tasks.Report {
	return &tasks.Report{
		Channel:     "examplechannel",
		Reward:      models.Reward{ID: "r1", Title: "song request bot"},
		Redemptions: 3,
		Requests: []models.TrackRequest{
			{TrackID: "AAA", User: "alice", Message: "https://open.spotify.com/track/AAA", Status: "FULFILLED", RedeemedAt: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)},
			{TrackID: "BBB", User: "bob", Message: "play this, please", Status: "FULFILLED", Searched: true},
		},
		Skips: []tasks.Skip{
			{Position: 2, User: "carol", Message: "not a link", Reason: shared.ErrTrackParse},
		},
		Playlist: &models.Playlist{ID: "pl1", Name: "examplechannel - Community Song Requests", URL: "https://open.spotify.com/playlist/pl1"},
		Created:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testReport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("CSV did not parse: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Position,TrackID,URI,User,Status,RedeemedAt,Searched,Message" {
			t.Errorf("CSV missing headers, got: %v", records[0])
		}
		if records[1][2] != "spotify:track:AAA" || records[1][5] != "2024-05-01T20:00:00Z" {
			t.Errorf("unexpected first row %v", records[1])
		}
		if records[2][6] != "true" || records[2][7] != "play this, please" {
			t.Errorf("unexpected second row %v", records[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testReport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# examplechannel - Community Song Requests",
			"[examplechannel - Community Song Requests](https://open.spotify.com/playlist/pl1)",
			"1. [AAA](https://open.spotify.com/track/AAA) requested by alice",
			"2. [BBB](https://open.spotify.com/track/BBB) requested by bob (search)",
			"## Skipped",
			"- #2 carol: `not a link`",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown Dry Run", func(t *testing.T) {
		r := testReport()
		r.Playlist = nil
		r.DryRun = true
		r.Skips = nil

		data, _ := ExportToMarkdown(r)
		output := string(data)
		if !strings.Contains(output, "# examplechannel - Community Song Requests") || !strings.Contains(output, "**Dry run**") {
			t.Errorf("unexpected dry run output:\n%s", output)
		}
		if strings.Contains(output, "## Skipped") {
			t.Error("expected no skipped section")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testReport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: examplechannel - Community Song Requests") {
			t.Errorf("text missing playlist name, got %s", output)
		}
		if !strings.Contains(output, "1. spotify:track:AAA (alice)\n2. spotify:track:BBB (bob)") {
			t.Errorf("text missing tracks in order, got %s", output)
		}
	})
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		file   string
		format Format
		want   string
	}{
		{name: "CSV", file: "report.csv", format: FormatCSV, want: "Position,TrackID"},
		{name: "Markdown", file: "report.md", format: FormatMarkdown, want: "## Tracks"},
		{name: "Markdown Long Extension", file: "report.markdown", format: FormatMarkdown, want: "## Tracks"},
		{name: "Text", file: "REPORT.TXT", format: FormatText, want: "Tracks: 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)

			format, err := WriteReport(testReport(), path)
			if err != nil {
				t.Fatalf("WriteReport failed: %v", err)
			}
			if format != tt.format {
				t.Errorf("expected format %s, got %s", tt.format, format)
			}
			if content := th.MustReadFile(t, path); !strings.Contains(content, tt.want) {
				t.Errorf("expected %q in %s, got %s", tt.want, tt.file, content)
			}
		})
	}

	t.Run("Unknown Extension", func(t *testing.T) {
		_, err := WriteReport(testReport(), filepath.Join(dir, "report.json"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Unwritable Path", func(t *testing.T) {
		_, err := WriteReport(testReport(), filepath.Join(dir, "missing", "report.csv"))
		if err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		if _, err := Export(testReport(), Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
