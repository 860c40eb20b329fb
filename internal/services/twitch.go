// Twitch Helix implementation of the rewards API
//
// Response shapes follow https://dev.twitch.tv/docs/api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/twitch"
)

const (
	twitchBaseURL = "https://api.twitch.tv/helix"

	// RedemptionPageSize is the page size requested from the redemptions endpoint (the Helix maximum).
	RedemptionPageSize = 50

	// ScopeReadRedemptions grants read access to a channel's reward redemptions.
	ScopeReadRedemptions = "channel:read:redemptions"
)

// TwitchOAuthConfig builds the authorization code config for the Twitch application in p.
func TwitchOAuthConfig(p shared.ProviderConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURI,
		Scopes:       []string{ScopeReadRedemptions},
		Endpoint:     twitch.Endpoint,
	}
}

// TwitchService reads channel-points data from the Helix API on behalf of the authorized user.
type TwitchService struct {
	baseURL    string
	clientID   string
	token      *oauth2.Token
	httpClient *http.Client
}

// NewTwitchService creates a Helix client. An empty baseURL targets the public API and a nil client uses [http.DefaultClient].
func NewTwitchService(baseURL, clientID string, token *oauth2.Token, client *http.Client) *TwitchService {
	if baseURL == "" {
		baseURL = twitchBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &TwitchService{
		baseURL:    baseURL,
		clientID:   clientID,
		token:      token,
		httpClient: client,
	}
}

// Name returns the service name.
func (s *TwitchService) Name() string {
	return "Twitch"
}

// doRequest performs an authenticated GET and returns the raw body of a 2xx response.
func (s *TwitchService) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	apiURL := s.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Client-Id", s.clientID)
	if s.token != nil {
		req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := gjson.GetBytes(body, "message").String()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s returned status %d: %s", shared.ErrAPIRequest, endpoint, resp.StatusCode, message)
	}

	return body, nil
}

// decodeData unmarshals the "data" array of a Helix response into v.
func decodeData(body []byte, v any) error {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return fmt.Errorf("%w: response has no data field", shared.ErrAPIRequest)
	}
	if err := json.Unmarshal([]byte(data.Raw), v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// BroadcasterID resolves a channel login to its broadcaster id.
func (s *TwitchService) BroadcasterID(ctx context.Context, login string) (string, error) {
	body, err := s.doRequest(ctx, "/users", url.Values{"login": {login}})
	if err != nil {
		return "", err
	}

	var users []struct {
		ID    string `json:"id"`
		Login string `json:"login"`
	}
	if err := decodeData(body, &users); err != nil {
		return "", err
	}

	if len(users) == 0 {
		return "", fmt.Errorf("%w: %s", shared.ErrChannelNotFound, login)
	}

	return users[0].ID, nil
}

// CustomRewards lists the channel's custom rewards.
func (s *TwitchService) CustomRewards(ctx context.Context, broadcasterID string) ([]models.Reward, error) {
	body, err := s.doRequest(ctx, "/channel_points/custom_rewards", url.Values{"broadcaster_id": {broadcasterID}})
	if err != nil {
		return nil, err
	}

	var rewards []models.Reward
	if err := decodeData(body, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

// Redemptions fetches every redemption of a reward in the given status, following the pagination cursor
// until it is exhausted. Empty pages that still carry a cursor are followed. A cursor that repeats ends the loop.
// Pages are concatenated in the order they were returned.
func (s *TwitchService) Redemptions(ctx context.Context, broadcasterID, rewardID, status string) ([]models.Redemption, error) {
	var all []models.Redemption
	cursor := ""

	for {
		params := url.Values{
			"broadcaster_id": {broadcasterID},
			"reward_id":      {rewardID},
			"status":         {status},
			"first":          {strconv.Itoa(RedemptionPageSize)},
		}
		if cursor != "" {
			params.Set("after", cursor)
		}

		body, err := s.doRequest(ctx, "/channel_points/custom_rewards/redemptions", params)
		if err != nil {
			return nil, err
		}

		var page []models.Redemption
		if err := decodeData(body, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)

		next := gjson.GetBytes(body, "pagination.cursor").String()
		if next == "" || next == cursor {
			break
		}
		cursor = next
	}

	return all, nil
}
