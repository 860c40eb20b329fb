package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/songreqs/internal/shared"
	tu "github.com/desertthunder/songreqs/internal/testing"
	"golang.org/x/oauth2"
)

func newTestTwitch(h *tu.HelixFake) *TwitchService {
	return NewTwitchService(h.URL, "client-id", &oauth2.Token{AccessToken: "user-token"}, nil)
}

func TestTwitchService(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		s := NewTwitchService("", "client-id", nil, nil)
		if s.baseURL != twitchBaseURL {
			t.Errorf("expected default base url, got %s", s.baseURL)
		}
		if s.httpClient != http.DefaultClient {
			t.Error("expected default http client")
		}
		if s.Name() != "Twitch" {
			t.Errorf("expected name Twitch, got %s", s.Name())
		}
	})

	t.Run("BroadcasterID", func(t *testing.T) {
		t.Run("Found", func(t *testing.T) {
			h := tu.NewHelixFake(t, "client-id", "user-token")
			h.Users["examplechannel"] = "1234"

			id, err := newTestTwitch(h).BroadcasterID(ctx, "examplechannel")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "1234" {
				t.Errorf("expected 1234, got %s", id)
			}
		})

		t.Run("Unknown Channel", func(t *testing.T) {
			h := tu.NewHelixFake(t, "client-id", "user-token")

			_, err := newTestTwitch(h).BroadcasterID(ctx, "nobody")
			if !errors.Is(err, shared.ErrChannelNotFound) {
				t.Errorf("expected ErrChannelNotFound, got %v", err)
			}
		})
	})

	t.Run("Sends Credentials", func(t *testing.T) {
		h := tu.NewHelixFake(t, "client-id", "user-token")
		h.Users["examplechannel"] = "1234"
		h.Rewards = []tu.HelixReward{{ID: "r1", Title: "song request bot"}}
		s := newTestTwitch(h)

		s.BroadcasterID(ctx, "examplechannel")
		s.CustomRewards(ctx, "1234")
		s.Redemptions(ctx, "1234", "r1", "FULFILLED")

		reqs := h.Requests()
		if len(reqs) != 3 {
			t.Fatalf("expected 3 requests, got %d", len(reqs))
		}
		for _, r := range reqs {
			if r.Header.Get("Client-Id") != "client-id" {
				t.Errorf("%s: expected Client-Id header, got %q", r.URL.Path, r.Header.Get("Client-Id"))
			}
			if r.Header.Get("Authorization") != "Bearer user-token" {
				t.Errorf("%s: expected bearer token, got %q", r.URL.Path, r.Header.Get("Authorization"))
			}
		}
	})

	t.Run("API Error Message", func(t *testing.T) {
		h := tu.NewHelixFake(t, "client-id", "other-token")

		_, err := newTestTwitch(h).BroadcasterID(ctx, "examplechannel")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Invalid OAuth token") {
			t.Errorf("expected status and helix message, got %v", err)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset"))}
		s := NewTwitchService("http://helix.invalid", "client-id", nil, client)

		_, err := s.CustomRewards(ctx, "1234")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("CustomRewards", func(t *testing.T) {
		h := tu.NewHelixFake(t, "client-id", "user-token")
		h.Rewards = []tu.HelixReward{{ID: "r1", Title: "Hydrate"}, {ID: "r2", Title: "song request bot"}}

		rewards, err := newTestTwitch(h).CustomRewards(ctx, "1234")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(rewards) != 2 || rewards[1].ID != "r2" || rewards[1].Title != "song request bot" {
			t.Errorf("unexpected rewards %+v", rewards)
		}
	})

	t.Run("Redemptions", func(t *testing.T) {
		t.Run("Follows Cursor", func(t *testing.T) {
			h := tu.NewHelixFake(t, "client-id", "user-token")
			h.PageSize = 20
			for i := range 45 {
				h.Redemptions = append(h.Redemptions, tu.HelixRedemption{
					ID:        fmt.Sprintf("red-%02d", i),
					UserName:  fmt.Sprintf("viewer%d", i),
					UserInput: fmt.Sprintf("https://open.spotify.com/track/id%02d", i),
					Status:    "FULFILLED",
				})
			}

			got, err := newTestTwitch(h).Redemptions(ctx, "1234", "r1", "FULFILLED")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 45 {
				t.Fatalf("expected 45 redemptions, got %d", len(got))
			}
			for i, rd := range got {
				if want := fmt.Sprintf("red-%02d", i); rd.ID != want {
					t.Fatalf("position %d: expected %s, got %s", i, want, rd.ID)
				}
			}

			reqs := h.Requests()
			if len(reqs) != 3 {
				t.Fatalf("expected 3 page requests, got %d", len(reqs))
			}
			for i, want := range []string{"", "20", "40"} {
				q := reqs[i].URL.Query()
				if q.Get("after") != want {
					t.Errorf("page %d: expected after=%q, got %q", i, want, q.Get("after"))
				}
				if q.Get("first") != "50" {
					t.Errorf("page %d: expected first=50, got %q", i, q.Get("first"))
				}
				if q.Get("reward_id") != "r1" || q.Get("broadcaster_id") != "1234" || q.Get("status") != "FULFILLED" {
					t.Errorf("page %d: unexpected query %s", i, reqs[i].URL.RawQuery)
				}
			}
		})

		t.Run("Filters Status", func(t *testing.T) {
			h := tu.NewHelixFake(t, "client-id", "user-token")
			h.Redemptions = []tu.HelixRedemption{
				{ID: "a", Status: "FULFILLED"},
				{ID: "b", Status: "CANCELED"},
			}

			got, err := newTestTwitch(h).Redemptions(ctx, "1234", "r1", "CANCELED")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 1 || got[0].ID != "b" {
				t.Errorf("expected only b, got %+v", got)
			}
		})

		t.Run("Empty", func(t *testing.T) {
			h := tu.NewHelixFake(t, "client-id", "user-token")

			got, err := newTestTwitch(h).Redemptions(ctx, "1234", "r1", "FULFILLED")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 0 {
				t.Errorf("expected no redemptions, got %d", len(got))
			}
		})

		t.Run("Empty Page With Cursor", func(t *testing.T) {
			var afters []string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				after := r.URL.Query().Get("after")
				afters = append(afters, after)
				w.Header().Set("Content-Type", "application/json")
				if after == "" {
					io.WriteString(w, `{"data":[],"pagination":{"cursor":"c1"}}`)
					return
				}
				io.WriteString(w, `{"data":[{"id":"late","user_name":"viewer","user_input":"spotify:track:AAA","status":"FULFILLED"}],"pagination":{}}`)
			}))
			defer srv.Close()

			svc := NewTwitchService(srv.URL, "client-id", &oauth2.Token{AccessToken: "user-token"}, nil)
			got, err := svc.Redemptions(ctx, "1234", "r1", "FULFILLED")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 1 || got[0].ID != "late" {
				t.Errorf("expected the redemption from the second page, got %+v", got)
			}
			if strings.Join(afters, ",") != ",c1" {
				t.Errorf("expected requests after \"\" then c1, got %q", afters)
			}
		})

		t.Run("Repeated Cursor", func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"data":[{"id":"x","status":"FULFILLED"}],"pagination":{"cursor":"stuck"}}`)
			}))
			defer srv.Close()

			svc := NewTwitchService(srv.URL, "client-id", &oauth2.Token{AccessToken: "user-token"}, nil)
			got, err := svc.Redemptions(ctx, "1234", "r1", "FULFILLED")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if calls != 2 || len(got) != 2 {
				t.Errorf("expected to stop after the cursor repeated, got %d calls and %d redemptions", calls, len(got))
			}
		})

		t.Run("Bad Request", func(t *testing.T) {
			h := tu.NewHelixFake(t, "client-id", "user-token")

			_, err := newTestTwitch(h).Redemptions(ctx, "1234", "", "FULFILLED")
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "reward_id") {
				t.Errorf("expected ErrAPIRequest with helix message, got %v", err)
			}
		})
	})

	t.Run("OAuth Config", func(t *testing.T) {
		cfg := TwitchOAuthConfig(shared.ProviderConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://localhost:5000/twitch/callback"})

		if cfg.Endpoint.AuthURL != "https://id.twitch.tv/oauth2/authorize" {
			t.Errorf("unexpected auth url %s", cfg.Endpoint.AuthURL)
		}
		if len(cfg.Scopes) != 1 || cfg.Scopes[0] != ScopeReadRedemptions {
			t.Errorf("unexpected scopes %v", cfg.Scopes)
		}
		if cfg.RedirectURL != "http://localhost:5000/twitch/callback" {
			t.Errorf("unexpected redirect %s", cfg.RedirectURL)
		}
	})
}
