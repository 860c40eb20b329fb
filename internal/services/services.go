// package services defines the rewards and playlist API clients
//
// Twitch Helix, Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/songreqs/internal/models"
)

// RewardsAPI reads channel-points data for one channel.
type RewardsAPI interface {
	// BroadcasterID resolves a channel login to its id. Returns [shared.ErrChannelNotFound] for unknown channels.
	BroadcasterID(ctx context.Context, login string) (string, error)

	// CustomRewards lists the channel's custom rewards.
	CustomRewards(ctx context.Context, broadcasterID string) ([]models.Reward, error)

	// Redemptions returns all redemptions of a reward in the given status, across every page.
	Redemptions(ctx context.Context, broadcasterID, rewardID, status string) ([]models.Redemption, error)
}

// PlaylistAPI creates and fills playlists for the authorized account.
type PlaylistAPI interface {
	CurrentUser(ctx context.Context) (*models.Account, error)
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks returns the number of insertion calls issued.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error)

	// SearchTrack resolves a free-text query to a track id.
	SearchTrack(ctx context.Context, query string) (string, bool, error)
}

var (
	_ RewardsAPI  = (*TwitchService)(nil)
	_ PlaylistAPI = (*SpotifyService)(nil)
)
