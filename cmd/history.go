package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/repositories"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/ui"
	"github.com/urfave/cli/v3"
)

// openHistory opens the history database, reporting false when no run has been recorded yet.
func (r *Runner) openHistory() (*sql.DB, bool, error) {
	path := r.config.Database.Path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}

	db, err := shared.OpenHistory(path)
	if err != nil {
		return nil, false, err
	}
	return db, true, nil
}

// HistoryList prints the most recent runs.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, ok, err := r.openHistory()
	if err != nil {
		return err
	}
	if !ok {
		return r.writePlain("No runs recorded in %s\n", r.config.Database.Path)
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded in %s\n", r.config.Database.Path)
	}

	r.writePlainHeader(fmt.Sprintf("Run history (%d)", len(runs)))
	for _, run := range runs {
		r.writePlain("%s  %s  %-20s %3d tracks %3d skipped  %s\n",
			run.RunID,
			run.Created.Local().Format("2006-01-02 15:04"),
			run.Channel,
			run.TracksAdded,
			run.Skipped,
			runTarget(run),
		)
	}
	return nil
}

// HistoryShow prints one run with every redemption outcome.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, ok, err := r.openHistory()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", repositories.ErrRunNotFound, id)
	}
	defer db.Close()

	run, err := repositories.NewRunRepository(db).Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(run, true)
	}

	styles := ui.Styles()
	r.writePlainHeader(fmt.Sprintf("Run %s", run.RunID))
	r.writePlain("Channel: %s (%s)\n", run.Channel, run.BroadcasterID)
	r.writePlain("Reward: %s\n", run.RewardName)
	r.writePlain("Created: %s\n", run.Created.Local().Format("2006-01-02 15:04:05"))
	r.writePlain("Playlist: %s\n", runTarget(run))
	r.writePlain("Redemptions: %d, added: %d, skipped: %d\n\n", run.Redemptions, run.TracksAdded, run.Skipped)

	for _, item := range run.Items {
		outcome := string(item.Outcome)
		switch item.Outcome {
		case models.OutcomeSkipped:
			outcome = styles.Warn(outcome)
		case models.OutcomeDuplicate:
			outcome = styles.Help(outcome)
		default:
			outcome = styles.OK(outcome)
		}
		r.writePlain("  #%-3d %-10s %-22s %-20s %s\n", item.Position, outcome, item.TrackID, item.User, shared.Truncate(item.Message, 50))
	}
	return nil
}

func runTarget(run *models.Run) string {
	switch {
	case run.DryRun:
		return "(dry run)"
	case run.PlaylistURL != "":
		return run.PlaylistURL
	default:
		return "(no playlist)"
	}
}
