package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songreqs/internal/shared"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout  = 2 * time.Minute
	shutdownTimeout = 5 * time.Second
)

// Flow runs one authorization code handshake against a provider through a short-lived local listener.
type Flow struct {
	provider string
	config   *oauth2.Config
	timeout  time.Duration
	opener   func(string) error
	output   io.Writer
	logger   *log.Logger
}

// FlowOpts configures a [Flow]. Zero values fall back to the defaults.
type FlowOpts struct {
	Provider string
	Config   *oauth2.Config
	Timeout  time.Duration      // defaults to two minutes
	Opener   func(string) error // defaults to [shared.OpenBrowser]
	Output   io.Writer          // user-facing status lines, defaults to [io.Discard]
	Logger   *log.Logger
}

// NewFlow creates a [Flow] from opts.
func NewFlow(opts FlowOpts) *Flow {
	f := &Flow{
		provider: opts.Provider,
		config:   opts.Config,
		timeout:  opts.Timeout,
		opener:   opts.Opener,
		output:   opts.Output,
		logger:   opts.Logger,
	}
	if f.timeout <= 0 {
		f.timeout = defaultTimeout
	}
	if f.opener == nil {
		f.opener = shared.OpenBrowser
	}
	if f.output == nil {
		f.output = io.Discard
	}
	if f.logger == nil {
		f.logger = shared.NewLogger(io.Discard)
	}
	return f
}

// Authorize binds the redirect URI's address, sends the user to the provider and waits for the callback.
//
// The listener is bound before the browser opens so the redirect can never race the server.
// A redirect URI with port 0 binds an ephemeral port which is then used as the redirect URI.
func (f *Flow) Authorize(ctx context.Context) (*oauth2.Token, error) {
	if f.config == nil {
		return nil, fmt.Errorf("%w: no oauth config for %s", shared.ErrInvalidConfig, f.provider)
	}

	redirect, err := url.Parse(f.config.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: bad redirect uri %q for %s", shared.ErrInvalidConfig, f.config.RedirectURL, f.provider)
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener on %s: %w", redirect.Host, err)
	}
	defer ln.Close()

	config := *f.config
	if redirect.Port() == "0" {
		port := ln.Addr().(*net.TCPAddr).Port
		redirect.Host = net.JoinHostPort(redirect.Hostname(), strconv.Itoa(port))
		config.RedirectURL = redirect.String()
	}

	path := redirect.Path
	if path == "" {
		path = "/"
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	handler := NewOAuthHandler(f.provider, &config, path, state)
	router := NewCallbackRouter()
	router.Use(Logging(f.logger))
	router.Handler(handler)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		f.logger.Infof("starting %s callback listener at %v", f.provider, ln.Addr())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer f.shutdown(httpServer)

	authURL := config.AuthCodeURL(state)

	fmt.Fprintf(f.output, "→ Opening browser for %s authorization...\n", f.provider)
	if err := f.opener(authURL); err != nil {
		f.logger.Warnf("failed to open browser automatically %v", err)
		fmt.Fprintln(f.output, "⚠ Could not open browser automatically.")
		fmt.Fprintf(f.output, "Please open this URL in your browser:\n%s\n\n", authURL)
	}

	fmt.Fprintf(f.output, "→ Waiting for %s authorization (%s timeout)...\n", f.provider, f.timeout)

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	var result OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s authorization timed out after %s", shared.ErrTimeout, f.provider, f.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, result.Error()
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received from %s", shared.ErrAuthFailed, f.provider)
	}

	fmt.Fprintf(f.output, "✓ %s authorization successful\n", f.provider)
	return result.Token, nil
}

func (f *Flow) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		f.logger.Warn("error shutting down callback listener", "error", err)
	}
}
