// package models defines the data model for the song request playlist builder
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Redemption statuses understood by the rewards API.
const (
	StatusFulfilled   = "FULFILLED"
	StatusUnfulfilled = "UNFULFILLED"
	StatusCanceled    = "CANCELED"
)

// Reward is a channel-points custom reward.
type Reward struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
	Cost   int    `json:"cost"`
}

// Redemption is one claim of a custom reward.
type Redemption struct {
	ID         string    `json:"id"`
	UserLogin  string    `json:"user_login"`
	UserName   string    `json:"user_name"`
	UserInput  string    `json:"user_input"`
	Status     string    `json:"status"`
	RedeemedAt time.Time `json:"redeemed_at"`
	Reward     Reward    `json:"reward"`
}

// Account is the Spotify user the playlist is created for.
type Account struct {
	ID          string
	DisplayName string
}

// Playlist is a playlist created on the playlist service.
type Playlist struct {
	ID          string
	Name        string
	Description string
	URL         string
	Public      bool
	TrackCount  int
}

// TrackRequest is a redemption that resolved to a track.
type TrackRequest struct {
	TrackID    string
	User       string
	Message    string
	Status     string
	RedeemedAt time.Time
	Searched   bool // resolved by text search rather than a link
}

// URI returns the spotify:track URI for the request.
func (t TrackRequest) URI() string {
	return "spotify:track:" + t.TrackID
}

// Outcome of processing a single redemption.
type Outcome string

const (
	OutcomeParsed    Outcome = "parsed"
	OutcomeSearched  Outcome = "searched"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeSkipped   Outcome = "skipped"
)

// Run summarizes one playlist build for the history store.
type Run struct {
	RunID         string    `json:"id"`
	Channel       string    `json:"channel"`
	BroadcasterID string    `json:"broadcaster_id"`
	RewardName    string    `json:"reward_name"`
	PlaylistID    string    `json:"playlist_id,omitempty"`
	PlaylistURL   string    `json:"playlist_url,omitempty"`
	Redemptions   int       `json:"redemptions"`
	TracksAdded   int       `json:"tracks_added"`
	Skipped       int       `json:"skipped"`
	DryRun        bool      `json:"dry_run"`
	Created       time.Time `json:"created_at"`
	Items         []RunItem `json:"items,omitempty"`
}

// RunItem records what happened to one redemption.
type RunItem struct {
	Position int     `json:"position"`
	User     string  `json:"user"`
	Message  string  `json:"message"`
	TrackID  string  `json:"track_id,omitempty"`
	Outcome  Outcome `json:"outcome"`
}

func (r *Run) ID() string           { return r.RunID }
func (r *Run) CreatedAt() time.Time { return r.Created }

// Validate checks required fields before the run is persisted.
func (r *Run) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if r.Channel == "" {
		return fmt.Errorf("run channel is required")
	}
	if r.RewardName == "" {
		return fmt.Errorf("run reward name is required")
	}
	for _, item := range r.Items {
		switch item.Outcome {
		case OutcomeParsed, OutcomeSearched, OutcomeDuplicate, OutcomeSkipped:
		default:
			return fmt.Errorf("run item %d has unknown outcome %q", item.Position, item.Outcome)
		}
	}
	return nil
}

var _ Model = (*Run)(nil)
