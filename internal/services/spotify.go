// Spotify Web API implementation of the playlist API
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// MaxTracksPerRequest is the largest number of tracks the playlist insertion endpoint accepts per call.
const MaxTracksPerRequest = 100

// SpotifyOAuthConfig builds the authorization code config for the Spotify application in p.
func SpotifyOAuthConfig(p shared.ProviderConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURI,
		Scopes: []string{
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
}

// SpotifyService creates and fills playlists for the authorized user.
// Requests go through an [oauth2] client, which refreshes the token when the provider issued a refresh token.
type SpotifyService struct {
	client *spotify.Client
}

// NewSpotifyService creates a Spotify client for token. An empty baseURL targets the public API;
// a non-empty one must end with a slash.
func NewSpotifyService(ctx context.Context, config *oauth2.Config, token *oauth2.Token, baseURL string) *SpotifyService {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	if config != nil {
		httpClient = config.Client(ctx, token)
	}

	var opts []spotify.ClientOption
	if baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(baseURL))
	}

	return &SpotifyService{client: spotify.New(httpClient, opts...)}
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// CurrentUser returns the account the token was issued for.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.Account, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get current user: %v", shared.ErrAPIRequest, err)
	}

	return &models.Account{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// CreatePlaylist always creates a new playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	p, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create playlist %q: %v", shared.ErrAPIRequest, name, err)
	}

	return &models.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		URL:         p.ExternalURLs["spotify"],
		Public:      p.IsPublic,
	}, nil
}

// AddTracks appends trackIDs to the playlist in order, in batches of at most [MaxTracksPerRequest].
//
// Returns the number of insertion calls that succeeded. Batches added before a failure stay in the playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error) {
	calls := 0
	for _, batch := range lo.Chunk(trackIDs, MaxTracksPerRequest) {
		ids := lo.Map(batch, func(id string, _ int) spotify.ID { return spotify.ID(id) })

		if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
			return calls, fmt.Errorf("%w: failed to add batch %d (%d tracks): %v", shared.ErrAPIRequest, calls+1, len(batch), err)
		}
		calls++
	}
	return calls, nil
}

// SearchTrack returns the id of the best match for a free-text query. The bool is false when nothing matched.
func (s *SpotifyService) SearchTrack(ctx context.Context, query string) (string, bool, error) {
	result, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return "", false, fmt.Errorf("%w: search for %q failed: %v", shared.ErrAPIRequest, query, err)
	}

	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return "", false, nil
	}

	return string(result.Tracks.Tracks[0].ID), true, nil
}
