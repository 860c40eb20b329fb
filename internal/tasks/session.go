package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// Provider names used as session keys.
const (
	ProviderTwitch  = "Twitch"
	ProviderSpotify = "Spotify"
)

// Authorizer obtains a user token for one provider, typically through a browser handshake.
type Authorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// AuthorizerFunc adapts a function to [Authorizer].
type AuthorizerFunc func(ctx context.Context) (*oauth2.Token, error)

func (f AuthorizerFunc) Authorize(ctx context.Context) (*oauth2.Token, error) {
	return f(ctx)
}

// Session holds the tokens obtained during one process lifetime. Nothing is written to disk.
type Session struct {
	mu     sync.Mutex
	tokens map[string]*oauth2.Token
}

func NewSession() *Session {
	return &Session{tokens: make(map[string]*oauth2.Token)}
}

// Token returns the cached token for provider, running auth only when there is none.
func (s *Session) Token(ctx context.Context, provider string, auth Authorizer) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok, ok := s.tokens[provider]; ok {
		return tok, nil
	}

	if auth == nil {
		return nil, fmt.Errorf("no authorizer configured for %s", provider)
	}

	tok, err := auth.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	s.tokens[provider] = tok
	return tok, nil
}

// Has reports whether a token for provider is cached.
func (s *Session) Has(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[provider]
	return ok
}
