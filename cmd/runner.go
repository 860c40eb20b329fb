package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songreqs/internal/server"
	"github.com/desertthunder/songreqs/internal/services"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/tasks"
	"github.com/desertthunder/songreqs/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// PromptFunc asks the user for a channel name.
type PromptFunc func(ctx context.Context, in io.Reader, out io.Writer) (string, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config          *shared.Config
	logger          *log.Logger
	output          io.Writer
	errOutput       io.Writer
	input           io.Reader
	httpClient      *http.Client
	session         *tasks.Session
	opener          func(string) error
	prompt          PromptFunc
	now             func() time.Time
	twitchBaseURL   string
	spotifyBaseURL  string
	twitchEndpoint  oauth2.Endpoint
	spotifyEndpoint oauth2.Endpoint
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Base URLs and endpoints are only set in tests, empty values target the public APIs.
type RunnerOpts struct {
	Config          *shared.Config // loaded from --config and --env when nil
	Logger          *log.Logger
	Output          io.Writer
	ErrOutput       io.Writer
	Input           io.Reader
	HTTPClient      *http.Client
	Opener          func(string) error
	Prompt          PromptFunc
	Now             func() time.Time
	TwitchBaseURL   string
	SpotifyBaseURL  string
	TwitchEndpoint  oauth2.Endpoint
	SpotifyEndpoint oauth2.Endpoint
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Opener == nil {
		opts.Opener = shared.OpenBrowser
	}
	if opts.Prompt == nil {
		opts.Prompt = ui.PromptChannel
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:          opts.Config,
		logger:          opts.Logger,
		output:          &lockedWriter{w: opts.Output},
		errOutput:       &lockedWriter{w: opts.ErrOutput},
		input:           opts.Input,
		httpClient:      opts.HTTPClient,
		session:         tasks.NewSession(),
		opener:          opts.Opener,
		prompt:          opts.Prompt,
		now:             opts.Now,
		twitchBaseURL:   opts.TwitchBaseURL,
		spotifyBaseURL:  opts.SpotifyBaseURL,
		twitchEndpoint:  opts.TwitchEndpoint,
		spotifyEndpoint: opts.SpotifyEndpoint,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, tuiCommand, parseCommand, historyCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by the global flags, unless one was injected, and applies --verbose.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config != nil {
		return ctx, nil
	}

	// The default config.toml is optional, an explicitly named one is not.
	path := cmd.String("config")
	if cmd.IsSet("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
	}

	config, err := shared.Load(path, cmd.String("env"))
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("configuration loaded", "path", path)
	return ctx, nil
}

// SetLogger replaces the logger, used when the terminal is taken over by the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// oauthConfig builds the handshake config for provider, applying endpoint overrides.
func (r *Runner) oauthConfig(provider string) *oauth2.Config {
	switch provider {
	case tasks.ProviderTwitch:
		config := services.TwitchOAuthConfig(r.config.Credentials.Twitch)
		if r.twitchEndpoint.TokenURL != "" {
			config.Endpoint = r.twitchEndpoint
		}
		return config
	default:
		config := services.SpotifyOAuthConfig(r.config.Credentials.Spotify)
		if r.spotifyEndpoint.TokenURL != "" {
			config.Endpoint = r.spotifyEndpoint
		}
		return config
	}
}

func (r *Runner) flow(provider string, config *oauth2.Config, out io.Writer) *server.Flow {
	return server.NewFlow(server.FlowOpts{
		Provider: provider,
		Config:   config,
		Timeout:  r.config.Auth.TimeoutDuration(),
		Opener:   r.opener,
		Output:   out,
		Logger:   r.logger,
	})
}

// pipeline wires the handshakes and API clients into a [tasks.Pipeline]. Handshake status lines go to out.
//
// Every pipeline built by one Runner shares its session, so a process only authorizes each provider once.
func (r *Runner) pipeline(out io.Writer) *tasks.Pipeline {
	twitchConfig := r.oauthConfig(tasks.ProviderTwitch)
	spotifyConfig := r.oauthConfig(tasks.ProviderSpotify)

	return tasks.NewPipeline(tasks.PipelineOpts{
		Session:     r.session,
		TwitchAuth:  r.flow(tasks.ProviderTwitch, twitchConfig, out),
		SpotifyAuth: r.flow(tasks.ProviderSpotify, spotifyConfig, out),
		Rewards: func(ctx context.Context, token *oauth2.Token) services.RewardsAPI {
			return services.NewTwitchService(r.twitchBaseURL, twitchConfig.ClientID, token, r.httpClient)
		},
		Playlists: func(ctx context.Context, token *oauth2.Token) services.PlaylistAPI {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
			return services.NewSpotifyService(ctx, spotifyConfig, token, r.spotifyBaseURL)
		},
		Logger: r.logger,
		Now:    r.now,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// lockedWriter serializes writes from the progress printer and the handshake.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// logWriter turns each write into an info log line.
type logWriter struct {
	logger *log.Logger
}

func (l logWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		l.logger.Info(msg)
	}
	return len(p), nil
}
