package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/songreqs/internal/formatter"
	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/repositories"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/tasks"
	"github.com/desertthunder/songreqs/internal/ui"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// runSummary is the JSON shape of a finished run.
type runSummary struct {
	RunID       string   `json:"run_id,omitempty"`
	Channel     string   `json:"channel"`
	Reward      string   `json:"reward"`
	Redemptions int      `json:"redemptions"`
	Tracks      []string `json:"tracks"`
	Skipped     int      `json:"skipped"`
	Duplicates  int      `json:"duplicates"`
	PlaylistID  string   `json:"playlist_id,omitempty"`
	PlaylistURL string   `json:"playlist_url,omitempty"`
	Batches     int      `json:"batches"`
	DryRun      bool     `json:"dry_run"`
}

// Run builds one playlist for the channel given by --channel or the prompt.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	channel := strings.TrimSpace(cmd.String("channel"))
	if channel == "" {
		entered, err := r.prompt(ctx, r.input, r.output)
		if err != nil {
			return err
		}
		channel = entered
	}

	opts := tasks.RunOptions{
		Channel:    channel,
		RewardName: lo.CoalesceOrEmpty(cmd.String("reward"), r.config.Reward.Name),
		Statuses:   cmd.StringSlice("status"),
		Search:     cmd.Bool("search"),
		Dedupe:     !cmd.Bool("no-dedupe"),
		DryRun:     cmd.Bool("dry-run"),
	}
	if len(opts.Statuses) == 0 {
		opts.Statuses = r.config.Reward.Statuses
	}
	opts.Statuses = lo.Map(opts.Statuses, func(s string, _ int) string { return strings.ToUpper(s) })

	asJSON := cmd.Bool("json")

	// JSON output keeps stdout clean, handshake prompts go to stderr instead.
	var out io.Writer = r.output
	if asJSON {
		out = r.errOutput
	}

	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if !asJSON {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	report, runErr := r.pipeline(out).Run(ctx, opts, progress)
	close(progress)
	<-done

	if report == nil {
		return runErr
	}

	summary := newRunSummary(report)
	if cmd.Bool("history") {
		id, err := r.saveHistory(report)
		if err != nil {
			r.logger.Error("failed to record run history", "error", err)
		} else {
			summary.RunID = id
		}
	}

	if runErr != nil {
		return runErr
	}

	if path := cmd.String("report"); path != "" {
		format, err := formatter.WriteReport(report, path)
		if err != nil {
			return err
		}
		r.logger.Infof("wrote %s report to %s", format, path)
	}

	if asJSON {
		return r.writeJSON(summary, true)
	}

	r.printSummary(report, summary.RunID)
	return nil
}

func newRunSummary(report *tasks.Report) runSummary {
	s := runSummary{
		Channel:     report.Channel,
		Reward:      report.Reward.Title,
		Redemptions: report.Redemptions,
		Tracks:      lo.Map(report.Requests, func(req models.TrackRequest, _ int) string { return req.URI() }),
		Skipped:     len(report.Skips),
		Duplicates:  report.Duplicates,
		Batches:     report.Batches,
		DryRun:      report.DryRun,
	}
	if report.Playlist != nil {
		s.PlaylistID = report.Playlist.ID
		s.PlaylistURL = report.Playlist.URL
	}
	return s
}

func (r *Runner) saveHistory(report *tasks.Report) (string, error) {
	db, err := shared.OpenHistory(r.config.Database.Path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	run := report.Run()
	if err := repositories.NewRunRepository(db).Create(run); err != nil {
		return "", err
	}
	r.logger.Debug("recorded run", "id", run.RunID, "path", r.config.Database.Path)
	return run.RunID, nil
}

func (r *Runner) printSummary(report *tasks.Report, runID string) {
	styles := ui.Styles()

	r.writePlainln("")
	if report.DryRun {
		r.writePlainHeader(fmt.Sprintf("Dry run: %s", tasks.PlaylistName(report.Channel)))
	} else {
		r.writePlainHeader(report.Playlist.Name)
		r.writePlain("URL: %s\n", report.Playlist.URL)
	}

	r.writePlain("Reward: %s (%d redemptions)\n", report.Reward.Title, report.Redemptions)

	if report.DryRun {
		r.writePlain("%s\n", styles.OK(fmt.Sprintf("✓ %d tracks would be added", len(report.Requests))))
		for i, req := range report.Requests {
			r.writePlain("  %3d. %s  %s\n", i+1, req.URI(), styles.Help(req.User))
		}
	} else {
		r.writePlain("%s\n", styles.OK(fmt.Sprintf("✓ Added %d tracks in %d batch(es)", len(report.Requests), report.Batches)))
	}

	if report.Duplicates > 0 {
		r.writePlain("%s\n", styles.Help(fmt.Sprintf("%d duplicate requests dropped", report.Duplicates)))
	}

	if len(report.Skips) > 0 {
		r.writePlain("%s\n", styles.Warn(fmt.Sprintf("⚠ Skipped %d requests:", len(report.Skips))))
		for _, skip := range report.Skips {
			r.writePlain("  #%d %s: %q (%v)\n", skip.Position, skip.User, shared.Truncate(skip.Message, 60), skip.Reason)
		}
	}

	if runID != "" {
		r.writePlain("Run recorded as %s\n", runID)
	}
}
