package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/songreqs/internal/shared"
	tu "github.com/desertthunder/songreqs/internal/testing"
	"golang.org/x/oauth2"
)

func testOAuthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:0/callback",
		Scopes:       []string{"channel:read:redemptions"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://auth.example.com/authorize",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		h := NewOAuthHandler("Twitch", testOAuthConfig(""), "/twitch/callback", "state")
		routes := h.Routes()
		if len(routes) != 1 || routes[0] != "/twitch/callback" {
			t.Errorf("expected [/twitch/callback], got %v", routes)
		}
	})

	t.Run("Exchanges Code", func(t *testing.T) {
		tokens := tu.NewTokenServer(t, "access")
		h := NewOAuthHandler("Twitch", testOAuthConfig(tokens.URL), "/callback", "state")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=state", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Errorf("expected success page, got %s", rec.Body.String())
		}

		result := <-h.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token.AccessToken != "access" {
			t.Errorf("expected access token 'access', got %q", result.Token.AccessToken)
		}

		form := tokens.LastForm()
		for key, want := range map[string]string{
			"code":          "abc",
			"grant_type":    "authorization_code",
			"client_id":     "client",
			"client_secret": "secret",
			"redirect_uri":  "http://127.0.0.1:0/callback",
		} {
			if got := form.Get(key); got != want {
				t.Errorf("expected %s=%q, got %q", key, want, got)
			}
		}
	})

	t.Run("Access Denied Skips Exchange", func(t *testing.T) {
		tokens := tu.NewTokenServer(t, "access")
		h := NewOAuthHandler("Twitch", testOAuthConfig(tokens.URL), "/callback", "state")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&error_description=The+user+denied&state=state", nil)
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-h.Result()
		if !errors.Is(result.Error(), shared.ErrAuthorizationDenied) {
			t.Errorf("expected ErrAuthorizationDenied, got %v", result.Error())
		}
		if !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected provider error in message, got %v", result.Error())
		}
		if tokens.Hits() != 0 {
			t.Errorf("expected no token exchange, got %d", tokens.Hits())
		}
	})

	t.Run("State Mismatch Is Not Consumed", func(t *testing.T) {
		tokens := tu.NewTokenServer(t, "access")
		h := NewOAuthHandler("Twitch", testOAuthConfig(tokens.URL), "/callback", "state")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=other", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		select {
		case r := <-h.Result():
			t.Fatalf("expected no result, got %+v", r)
		default:
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=state", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 for matching state, got %d", rec.Code)
		}
	})

	t.Run("Missing Parameters", func(t *testing.T) {
		h := NewOAuthHandler("Twitch", testOAuthConfig(""), "/callback", "state")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		tokens := tu.NewTokenServer(t, "access")
		h := NewOAuthHandler("Twitch", testOAuthConfig(tokens.URL), "/callback", "state")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=state", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=def&state=state", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Callback already processed") {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
		if tokens.Hits() != 1 {
			t.Errorf("expected a single exchange, got %d", tokens.Hits())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		h := NewOAuthHandler("Twitch", testOAuthConfig(srv.URL), "/callback", "state")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=state", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})
}

func TestRouter(t *testing.T) {
	t.Run("Method Not Allowed", func(t *testing.T) {
		r := NewCallbackRouter()
		r.Handler(NewOAuthHandler("Twitch", testOAuthConfig(""), "/callback", "state"))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/callback", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Unknown Path", func(t *testing.T) {
		r := NewCallbackRouter()
		r.Handler(NewOAuthHandler("Twitch", testOAuthConfig(""), "/callback", "state"))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Root Path Is Exact", func(t *testing.T) {
		var hits []string
		r := NewCallbackRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				hits = append(hits, req.URL.Path)
				next.ServeHTTP(w, req)
			})
		})
		r.Handler(NewOAuthHandler("Twitch", testOAuthConfig(""), "/", "state"))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico?state=state&code=x", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for a stray path, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected the callback handler to answer /, got %d", rec.Code)
		}

		if strings.Join(hits, ",") != "/favicon.ico,/" {
			t.Errorf("expected middleware to see both requests, got %v", hits)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewCallbackRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		want := []string{"first", "second", "handler"}
		if strings.Join(order, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, order)
		}
	})
}
