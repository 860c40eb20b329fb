package tasks

import (
	"fmt"

	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/shared"
)

// ProgressUpdate represents a progress event during a playlist build.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Authorize Phase = iota
	ResolveChannel
	FindRewardPhase
	FetchRedemptions
	ParseRequests
	SearchTracks
	CreatePlaylist
	AddTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case Authorize:
		return "authorize"
	case ResolveChannel:
		return "resolve_channel"
	case FindRewardPhase:
		return "find_reward"
	case FetchRedemptions:
		return "fetch_redemptions"
	case ParseRequests:
		return "parse_requests"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func authorizeUpdate(provider string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authorize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Authorizing with %s...", provider),
	}
}

func resolveChannelUpdate(channel string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveChannel,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking up channel %s...", channel),
	}
}

func foundRewardUpdate(reward models.Reward) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FindRewardPhase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found reward: %s (ID: %s)", reward.Title, reward.ID),
		Data:    reward,
	}
}

func fetchRedemptionsUpdate(step, total int, status string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRedemptions,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s redemptions...", status),
	}
}

func parseRequestUpdate(step, total int, rd models.Redemption, trackID string) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, rd.UserName, shared.Truncate(rd.UserInput, 40))
	if trackID != "" {
		msg = fmt.Sprintf("[%d/%d] ✓ %s: %s", step, total, rd.UserName, trackID)
	}
	return ProgressUpdate{
		Phase:   ParseRequests,
		Step:    step,
		Total:   total,
		Message: msg,
	}
}

func searchTrackUpdate(step, total int, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, shared.Truncate(query, 40)),
	}
}

func createPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}

func completeUpdate(r *Report) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Done: %d tracks, %d skipped", len(r.Requests), len(r.Skips)),
		Data:    r,
	}
}
