package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/services"
	"github.com/desertthunder/songreqs/internal/shared"
	"golang.org/x/oauth2"
)

// RewardsFactory builds a rewards API client for a Twitch user token.
type RewardsFactory func(ctx context.Context, token *oauth2.Token) services.RewardsAPI

// PlaylistFactory builds a playlist API client for a Spotify user token.
type PlaylistFactory func(ctx context.Context, token *oauth2.Token) services.PlaylistAPI

// RunOptions selects what a single run reads and how it treats the messages.
type RunOptions struct {
	Channel    string   // Channel login whose redemptions are read
	RewardName string   // Exact reward title, defaults to [DefaultRewardName]
	Statuses   []string // Redemption statuses fetched in order, defaults to FULFILLED
	Search     bool     // Search the playlist service for messages without a track link
	Dedupe     bool     // Drop repeated track ids, keeping the first request
	DryRun     bool     // Stop after parsing without contacting the playlist service
}

// Skip is a redemption that did not resolve to a track.
type Skip struct {
	Position int
	User     string
	Message  string
	Reason   error
}

// Report describes the outcome of a run.
type Report struct {
	Channel       string
	BroadcasterID string
	Reward        models.Reward
	Redemptions   int
	Requests      []models.TrackRequest // tracks in playlist order
	Skips         []Skip
	Duplicates    int
	Playlist      *models.Playlist
	Batches       int // insertion calls issued
	DryRun        bool
	Items         []models.RunItem // one per redemption, in fetch order
	Created       time.Time
}

// TrackIDs returns the ids of the requested tracks in playlist order.
func (r *Report) TrackIDs() []string {
	ids := make([]string, len(r.Requests))
	for i, req := range r.Requests {
		ids[i] = req.TrackID
	}
	return ids
}

// Run converts the report into a history record.
func (r *Report) Run() *models.Run {
	run := &models.Run{
		Channel:       r.Channel,
		BroadcasterID: r.BroadcasterID,
		RewardName:    r.Reward.Title,
		Redemptions:   r.Redemptions,
		TracksAdded:   len(r.Requests),
		Skipped:       len(r.Skips),
		DryRun:        r.DryRun,
		Created:       r.Created,
		Items:         r.Items,
	}
	if r.DryRun {
		run.TracksAdded = 0
	}
	if r.Playlist != nil {
		run.PlaylistID = r.Playlist.ID
		run.PlaylistURL = r.Playlist.URL
	}
	return run
}

// PlaylistName returns the name of the playlist created for channel.
func PlaylistName(channel string) string {
	return fmt.Sprintf("%s - Community Song Requests", channel)
}

// PlaylistDescription returns the playlist description for a build made on day.
func PlaylistDescription(day time.Time) string {
	return fmt.Sprintf("Community requested songs from Twitch channel points. Created on %s", day.Format("2006-01-02"))
}

// Pipeline runs playlist builds against the rewards and playlist APIs.
type Pipeline struct {
	session     *Session
	twitchAuth  Authorizer
	spotifyAuth Authorizer
	rewards     RewardsFactory
	playlists   PlaylistFactory
	logger      *log.Logger
	now         func() time.Time
}

// PipelineOpts contains the dependencies of a [Pipeline].
type PipelineOpts struct {
	Session     *Session // shared token cache, a new one is created when nil
	TwitchAuth  Authorizer
	SpotifyAuth Authorizer
	Rewards     RewardsFactory
	Playlists   PlaylistFactory
	Logger      *log.Logger
	Now         func() time.Time
}

// NewPipeline creates a new [Pipeline].
func NewPipeline(opts PipelineOpts) *Pipeline {
	p := &Pipeline{
		session:     opts.Session,
		twitchAuth:  opts.TwitchAuth,
		spotifyAuth: opts.SpotifyAuth,
		rewards:     opts.Rewards,
		playlists:   opts.Playlists,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if p.session == nil {
		p.session = NewSession()
	}
	if p.logger == nil {
		p.logger = shared.NewLogger(io.Discard)
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Session returns the token cache shared by runs of this pipeline.
func (p *Pipeline) Session() *Session {
	return p.session
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// resolution tracks what happened to a single redemption while the run progresses.
type resolution struct {
	redemption models.Redemption
	trackID    string
	outcome    models.Outcome
	reason     error
}

// Run performs one playlist build.
//
// Twitch is authorized first, then the channel, reward and redemptions are resolved. Spotify is only
// contacted once at least one track has been found, and never in a dry run. A playlist that was created
// before a later failure is left in place and named in the returned error.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*Report, error) {
	opts.Channel = strings.TrimSpace(opts.Channel)
	if opts.Channel == "" {
		return nil, fmt.Errorf("%w: channel name", shared.ErrMissingArgument)
	}
	if opts.RewardName == "" {
		opts.RewardName = DefaultRewardName
	}
	if len(opts.Statuses) == 0 {
		opts.Statuses = []string{models.StatusFulfilled}
	}
	if p.rewards == nil || p.playlists == nil {
		return nil, fmt.Errorf("%w: pipeline has no API clients", shared.ErrServiceUnavailable)
	}

	report := &Report{Channel: opts.Channel, DryRun: opts.DryRun, Created: p.now()}
	logger := shared.WithLogger(p.logger, "channel", opts.Channel)

	p.sendProgress(progress, authorizeUpdate(ProviderTwitch))
	twitchToken, err := p.session.Token(ctx, ProviderTwitch, p.twitchAuth)
	if err != nil {
		return nil, fmt.Errorf("twitch authorization failed: %w", err)
	}
	rewardsAPI := p.rewards(ctx, twitchToken)

	p.sendProgress(progress, resolveChannelUpdate(opts.Channel))
	broadcasterID, err := rewardsAPI.BroadcasterID(ctx, opts.Channel)
	if err != nil {
		return nil, err
	}
	report.BroadcasterID = broadcasterID
	logger.Debug("resolved broadcaster", "id", broadcasterID)

	rewards, err := rewardsAPI.CustomRewards(ctx, broadcasterID)
	if err != nil {
		return nil, err
	}

	reward, err := FindReward(rewards, opts.RewardName)
	if err != nil {
		return nil, err
	}
	report.Reward = reward
	p.sendProgress(progress, foundRewardUpdate(reward))

	var redemptions []models.Redemption
	for i, status := range opts.Statuses {
		p.sendProgress(progress, fetchRedemptionsUpdate(i+1, len(opts.Statuses), status))

		page, err := rewardsAPI.Redemptions(ctx, broadcasterID, reward.ID, status)
		if err != nil {
			return nil, err
		}
		logger.Debug("fetched redemptions", "status", status, "count", len(page))
		redemptions = append(redemptions, page...)
	}
	report.Redemptions = len(redemptions)
	logger.Infof("found %d redemptions for %q", len(redemptions), reward.Title)

	resolved := p.parse(redemptions, progress)

	var playlistAPI services.PlaylistAPI
	if opts.Search && !opts.DryRun && hasSearchable(resolved) {
		playlistAPI, err = p.playlistAPI(ctx, progress)
		if err != nil {
			return nil, err
		}
		if err := p.search(ctx, playlistAPI, resolved, progress); err != nil {
			return nil, err
		}
	}

	p.collect(report, resolved, opts.Dedupe, logger)

	if len(report.Requests) == 0 {
		return nil, fmt.Errorf("%w: none of the %d redemptions contained a track link", shared.ErrNoTracks, len(redemptions))
	}

	if opts.DryRun {
		p.sendProgress(progress, completeUpdate(report))
		return report, nil
	}

	if playlistAPI == nil {
		playlistAPI, err = p.playlistAPI(ctx, progress)
		if err != nil {
			return nil, err
		}
	}

	user, err := playlistAPI.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := playlistAPI.CreatePlaylist(ctx, user.ID, PlaylistName(opts.Channel), PlaylistDescription(report.Created), true)
	if err != nil {
		return nil, err
	}
	report.Playlist = playlist
	p.sendProgress(progress, createPlaylistUpdate(playlist))

	p.sendProgress(progress, addTracksUpdate(len(report.Requests)))
	batches, err := playlistAPI.AddTracks(ctx, playlist.ID, report.TrackIDs())
	report.Batches = batches
	if err != nil {
		return report, fmt.Errorf("playlist %s left partially filled: %w", playlist.URL, err)
	}
	playlist.TrackCount = len(report.Requests)

	p.sendProgress(progress, completeUpdate(report))
	return report, nil
}

func (p *Pipeline) playlistAPI(ctx context.Context, progress chan<- ProgressUpdate) (services.PlaylistAPI, error) {
	if !p.session.Has(ProviderSpotify) {
		p.sendProgress(progress, authorizeUpdate(ProviderSpotify))
	}
	token, err := p.session.Token(ctx, ProviderSpotify, p.spotifyAuth)
	if err != nil {
		return nil, fmt.Errorf("spotify authorization failed: %w", err)
	}
	return p.playlists(ctx, token), nil
}

// parse extracts a track id from every redemption message, in fetch order.
func (p *Pipeline) parse(redemptions []models.Redemption, progress chan<- ProgressUpdate) []resolution {
	resolved := make([]resolution, len(redemptions))
	for i, rd := range redemptions {
		res := resolution{redemption: rd}

		if id, ok := shared.ParseTrackID(rd.UserInput); ok {
			res.trackID = id
			res.outcome = models.OutcomeParsed
		} else {
			res.outcome = models.OutcomeSkipped
			res.reason = skipReason(rd.UserInput)
		}

		resolved[i] = res
		p.sendProgress(progress, parseRequestUpdate(i+1, len(redemptions), rd, res.trackID))
	}
	return resolved
}

func skipReason(message string) error {
	switch {
	case strings.TrimSpace(message) == "":
		return fmt.Errorf("%w: empty message", shared.ErrTrackParse)
	case shared.LooksLikeURL(message):
		return fmt.Errorf("%w: link is not a track link", shared.ErrTrackParse)
	default:
		return shared.ErrTrackParse
	}
}

func searchable(res resolution) bool {
	return res.outcome == models.OutcomeSkipped &&
		strings.TrimSpace(res.redemption.UserInput) != "" &&
		!shared.LooksLikeURL(res.redemption.UserInput)
}

func hasSearchable(resolved []resolution) bool {
	for _, res := range resolved {
		if searchable(res) {
			return true
		}
	}
	return false
}

// search resolves plain-text requests through the playlist service's search.
func (p *Pipeline) search(ctx context.Context, api services.PlaylistAPI, resolved []resolution, progress chan<- ProgressUpdate) error {
	total := 0
	for _, res := range resolved {
		if searchable(res) {
			total++
		}
	}

	step := 0
	for i := range resolved {
		if !searchable(resolved[i]) {
			continue
		}
		step++

		query := strings.TrimSpace(resolved[i].redemption.UserInput)
		p.sendProgress(progress, searchTrackUpdate(step, total, query))

		id, ok, err := api.SearchTrack(ctx, query)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Warn("search failed", "query", query, "error", err)
			continue
		}
		if !ok {
			resolved[i].reason = fmt.Errorf("%w: no search results", shared.ErrTrackParse)
			continue
		}

		resolved[i].trackID = id
		resolved[i].outcome = models.OutcomeSearched
		resolved[i].reason = nil
	}
	return nil
}

// collect fills the report's requests, skips and history items from the resolutions.
func (p *Pipeline) collect(report *Report, resolved []resolution, dedupe bool, logger *log.Logger) {
	seen := make(map[string]bool)

	for i, res := range resolved {
		rd := res.redemption
		outcome := res.outcome

		switch outcome {
		case models.OutcomeSkipped:
			logger.Warnf("skipping request %d from %s: %v (%q)", i+1, rd.UserName, res.reason, shared.Truncate(rd.UserInput, 60))
			report.Skips = append(report.Skips, Skip{Position: i + 1, User: rd.UserName, Message: rd.UserInput, Reason: res.reason})
		default:
			if dedupe && seen[res.trackID] {
				outcome = models.OutcomeDuplicate
				report.Duplicates++
				logger.Debug("dropping duplicate request", "user", rd.UserName, "track", res.trackID)
				break
			}
			seen[res.trackID] = true
			report.Requests = append(report.Requests, models.TrackRequest{
				TrackID:    res.trackID,
				User:       rd.UserName,
				Message:    rd.UserInput,
				Status:     rd.Status,
				RedeemedAt: rd.RedeemedAt,
				Searched:   outcome == models.OutcomeSearched,
			})
		}

		report.Items = append(report.Items, models.RunItem{
			Position: i + 1,
			User:     rd.UserName,
			Message:  rd.UserInput,
			TrackID:  res.trackID,
			Outcome:  outcome,
		})
	}
}
