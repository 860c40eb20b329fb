package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/shared"
)

// ErrRunNotFound is returned when no run matches the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunRepository persists run summaries and their per-redemption outcomes.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run and all of its items in one transaction.
//
// A missing ID is generated and a zero creation time is set to now.
func (r *RunRepository) Create(run *models.Run) error {
	if run.RunID == "" {
		run.RunID = shared.GenerateID()
	}
	if run.Created.IsZero() {
		run.Created = time.Now().UTC()
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, channel, broadcaster_id, reward_name, playlist_id, playlist_url, redemptions, tracks_added, skipped, dry_run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.Channel,
		run.BroadcasterID,
		run.RewardName,
		run.PlaylistID,
		run.PlaylistURL,
		run.Redemptions,
		run.TracksAdded,
		run.Skipped,
		run.DryRun,
		run.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_items (run_id, position, user_name, message, track_id, outcome)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range run.Items {
		if _, err := stmt.Exec(run.RunID, item.Position, item.User, item.Message, item.TrackID, string(item.Outcome)); err != nil {
			return fmt.Errorf("failed to insert run item %d: %w", item.Position, err)
		}
	}

	return tx.Commit()
}

// Get retrieves a run with its items ordered by position.
func (r *RunRepository) Get(id string) (*models.Run, error) {
	row := r.db.QueryRow(`
		SELECT id, channel, broadcaster_id, reward_name, playlist_id, playlist_url, redemptions, tracks_added, skipped, dry_run, created_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`
		SELECT position, user_name, message, track_id, outcome
		FROM run_items WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.RunItem
		var outcome string
		if err := rows.Scan(&item.Position, &item.User, &item.Message, &item.TrackID, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan run item: %w", err)
		}
		item.Outcome = models.Outcome(outcome)
		run.Items = append(run.Items, item)
	}

	return run, rows.Err()
}

// List returns the most recent runs first, without items.
func (r *RunRepository) List(limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, channel, broadcaster_id, reward_name, playlist_id, playlist_url, redemptions, tracks_added, skipped, dry_run, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var run models.Run
	err := s.Scan(
		&run.RunID,
		&run.Channel,
		&run.BroadcasterID,
		&run.RewardName,
		&run.PlaylistID,
		&run.PlaylistURL,
		&run.Redemptions,
		&run.TracksAdded,
		&run.Skipped,
		&run.DryRun,
		&run.Created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &run, nil
}
