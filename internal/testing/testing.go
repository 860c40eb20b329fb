// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// BrowserStub stands in for the user's browser during a handshake.
//
// Open reads redirect_uri and state from the consent URL and requests the redirect URI once per query, in order.
// The real state is filled in unless a query sets its own.
type BrowserStub struct {
	queries  []url.Values
	mu       sync.Mutex
	opened   []string
	statuses []int
	done     chan struct{}
}

func NewBrowserStub(queries ...url.Values) *BrowserStub {
	return &BrowserStub{queries: queries, done: make(chan struct{})}
}

func (b *BrowserStub) Open(authURL string) error {
	u, err := url.Parse(authURL)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.opened = append(b.opened, authURL)
	b.mu.Unlock()

	redirect := u.Query().Get("redirect_uri")
	state := u.Query().Get("state")

	go func() {
		defer close(b.done)
		for _, query := range b.queries {
			params := url.Values{"state": {state}}
			for k, v := range query {
				params[k] = v
			}

			status := 0
			resp, err := http.Get(redirect + "?" + params.Encode())
			if err == nil {
				status = resp.StatusCode
				resp.Body.Close()
			}

			b.mu.Lock()
			b.statuses = append(b.statuses, status)
			b.mu.Unlock()
		}
	}()
	return nil
}

// Opened returns the consent URLs passed to Open.
func (b *BrowserStub) Opened() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

// Statuses waits for all callback requests to finish and returns their status codes (0 on transport error).
func (b *BrowserStub) Statuses(t *testing.T) []int {
	t.Helper()
	select {
	case <-b.done:
	case <-time.After(5 * time.Second):
		t.Fatal("browser stub did not finish")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.statuses...)
}

// TokenServer is a fake OAuth token endpoint that counts exchanges.
type TokenServer struct {
	*httptest.Server
	AccessToken string

	mu       sync.Mutex
	hits     int
	lastForm url.Values
}

func NewTokenServer(t *testing.T, accessToken string) *TokenServer {
	t.Helper()
	ts := &TokenServer{AccessToken: accessToken}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ts.mu.Lock()
		ts.hits++
		ts.lastForm = r.PostForm
		ts.mu.Unlock()

		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  ts.AccessToken,
			"refresh_token": "refresh-" + ts.AccessToken,
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

// Hits returns the number of exchanges received.
func (ts *TokenServer) Hits() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.hits
}

// LastForm returns the form body of the most recent exchange.
func (ts *TokenServer) LastForm() url.Values {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastForm
}

// HelixReward is a custom reward served by [HelixFake].
type HelixReward struct {
	ID    string
	Title string
}

// HelixRedemption is a redemption served by [HelixFake].
type HelixRedemption struct {
	ID        string
	UserName  string
	UserInput string
	Status    string
}

// HelixFake serves the subset of the Twitch Helix API read by the redemption fetcher.
//
// Redemption pages are PageSize long regardless of the requested size so pagination can be exercised.
type HelixFake struct {
	*httptest.Server
	ClientID    string
	Token       string
	Users       map[string]string
	Rewards     []HelixReward
	Redemptions []HelixRedemption
	PageSize    int

	mu       sync.Mutex
	requests []*http.Request
}

func NewHelixFake(t *testing.T, clientID, token string) *HelixFake {
	t.Helper()
	h := &HelixFake{ClientID: clientID, Token: token, Users: map[string]string{}, PageSize: 50}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", h.users)
	mux.HandleFunc("GET /channel_points/custom_rewards", h.rewards)
	mux.HandleFunc("GET /channel_points/custom_rewards/redemptions", h.redemptions)

	h.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.requests = append(h.requests, r.Clone(r.Context()))
		h.mu.Unlock()

		if r.Header.Get("Client-Id") != h.ClientID || r.Header.Get("Authorization") != "Bearer "+h.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": "Unauthorized", "status": 401, "message": "Invalid OAuth token",
			})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(h.Close)
	return h
}

// Requests returns every request received, in order.
func (h *HelixFake) Requests() []*http.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*http.Request(nil), h.requests...)
}

func (h *HelixFake) users(w http.ResponseWriter, r *http.Request) {
	data := []map[string]any{}
	login := r.URL.Query().Get("login")
	if id, ok := h.Users[login]; ok {
		data = append(data, map[string]any{"id": id, "login": login, "display_name": login})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (h *HelixFake) rewards(w http.ResponseWriter, r *http.Request) {
	data := []map[string]any{}
	for _, rw := range h.Rewards {
		data = append(data, map[string]any{"id": rw.ID, "title": rw.Title, "prompt": "", "cost": 100})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (h *HelixFake) redemptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("reward_id") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Bad Request", "status": 400, "message": "Missing required parameter \"reward_id\"",
		})
		return
	}

	var matching []HelixRedemption
	for _, rd := range h.Redemptions {
		if status := q.Get("status"); status == "" || rd.Status == status {
			matching = append(matching, rd)
		}
	}

	start, _ := strconv.Atoi(q.Get("after"))
	end := min(start+h.PageSize, len(matching))
	if start > end {
		start = end
	}

	data := []map[string]any{}
	for _, rd := range matching[start:end] {
		data = append(data, map[string]any{
			"id":          rd.ID,
			"user_login":  rd.UserName,
			"user_name":   rd.UserName,
			"user_input":  rd.UserInput,
			"status":      rd.Status,
			"redeemed_at": "2024-05-01T20:00:00Z",
			"reward":      map[string]any{"id": q.Get("reward_id"), "title": "", "prompt": "", "cost": 100},
		})
	}

	pagination := map[string]any{}
	if end < len(matching) {
		pagination["cursor"] = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "pagination": pagination})
}

// SpotifyFake serves the subset of the Spotify Web API used by the playlist builder.
type SpotifyFake struct {
	*httptest.Server
	UserID  string
	Results map[string]string // search query → track id

	mu        sync.Mutex
	playlists []map[string]any
	batches   [][]string
	searches  []string
}

func NewSpotifyFake(t *testing.T, userID string) *SpotifyFake {
	t.Helper()
	s := &SpotifyFake{UserID: userID, Results: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": s.UserID, "display_name": "Test User"})
	})
	mux.HandleFunc("POST /users/{id}/playlists", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"status": 400, "message": err.Error()}})
			return
		}

		s.mu.Lock()
		s.playlists = append(s.playlists, body)
		id := "playlist" + strconv.Itoa(len(s.playlists))
		s.mu.Unlock()

		body["id"] = id
		body["external_urls"] = map[string]string{"spotify": "https://open.spotify.com/playlist/" + id}
		body["owner"] = map[string]any{"id": r.PathValue("id")}
		writeJSON(w, http.StatusCreated, body)
	})
	mux.HandleFunc("POST /playlists/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs []string `json:"uris"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"status": 400, "message": err.Error()}})
			return
		}

		s.mu.Lock()
		s.batches = append(s.batches, body.URIs)
		s.mu.Unlock()

		writeJSON(w, http.StatusCreated, map[string]any{"snapshot_id": "snapshot"})
	})
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")

		s.mu.Lock()
		s.searches = append(s.searches, q)
		s.mu.Unlock()

		items := []map[string]any{}
		if id, ok := s.Results[q]; ok {
			items = append(items, map[string]any{"id": id, "name": q, "uri": "spotify:track:" + id})
		}
		writeJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": items, "total": len(items)}})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API root in the form expected by the Spotify client.
func (s *SpotifyFake) BaseURL() string {
	return s.URL + "/"
}

// Playlists returns the bodies of every playlist creation request.
func (s *SpotifyFake) Playlists() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.playlists...)
}

// Batches returns the track URIs of every insertion request, in order.
func (s *SpotifyFake) Batches() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.batches...)
}

// Searches returns every search query received.
func (s *SpotifyFake) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
