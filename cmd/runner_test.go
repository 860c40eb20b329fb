package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/tasks"
	tu "github.com/desertthunder/songreqs/internal/testing"
	"golang.org/x/oauth2"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output.(*lockedWriter).w != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.session == nil {
				t.Error("expected a session")
			}
		})

		t.Run("with nil config defers loading", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config != nil {
				t.Error("expected config to be loaded in Before")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output.(*lockedWriter).w != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.errOutput.(*lockedWriter).w != os.Stderr {
				t.Error("expected error output to default to os.Stderr")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("Before", func(t *testing.T) {
		t.Run("loads config from flags", func(t *testing.T) {
			dir := t.TempDir()
			path := dir + "/config.toml"
			content := "[reward]\nname = \"Play a song\"\n"
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			err := newApp(runner).Run(context.Background(), []string{"songreqs", "--config", path, "--env", dir + "/missing.env", "parse", "spotify:track:abc"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.config == nil {
				t.Fatal("expected config to be loaded")
			}
			if runner.config.Reward.Name != "Play a song" {
				t.Errorf("expected reward from file, got %q", runner.config.Reward.Name)
			}
		})

		t.Run("rejects a missing explicit config", func(t *testing.T) {
			path := t.TempDir() + "/absent.toml"

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			err := newApp(runner).Run(context.Background(), []string{"songreqs", "--config", path, "parse", "x"})
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), path) {
				t.Errorf("expected path in error, got %v", err)
			}
		})

		t.Run("rejects malformed config", func(t *testing.T) {
			path := t.TempDir() + "/config.toml"
			if err := os.WriteFile(path, []byte("[reward\n"), 0600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			err := newApp(runner).Run(context.Background(), []string{"songreqs", "--config", path, "parse", "x"})
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("oauthConfig", func(t *testing.T) {
		t.Run("uses provider endpoints", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})

			twitch := runner.oauthConfig(tasks.ProviderTwitch)
			if !strings.HasPrefix(twitch.Endpoint.AuthURL, "https://id.twitch.tv/") {
				t.Errorf("unexpected twitch auth URL %q", twitch.Endpoint.AuthURL)
			}

			spotify := runner.oauthConfig(tasks.ProviderSpotify)
			if spotify.Endpoint.TokenURL != "https://accounts.spotify.com/api/token" {
				t.Errorf("unexpected spotify token URL %q", spotify.Endpoint.TokenURL)
			}
			if spotify.RedirectURL != "http://localhost:8888/callback" {
				t.Errorf("unexpected spotify redirect %q", spotify.RedirectURL)
			}
		})

		t.Run("applies overrides", func(t *testing.T) {
			endpoint := oauth2.Endpoint{AuthURL: "http://auth.test/authorize", TokenURL: "http://auth.test/token"}
			runner := NewRunner(RunnerOpts{
				Config:          shared.DefaultConfig(),
				TwitchEndpoint:  endpoint,
				SpotifyEndpoint: endpoint,
			})

			for _, provider := range []string{tasks.ProviderTwitch, tasks.ProviderSpotify} {
				if got := runner.oauthConfig(provider).Endpoint; got != endpoint {
					t.Errorf("%s: expected override, got %+v", provider, got)
				}
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("done"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "\ndone\n" {
				t.Errorf("expected %q, got %q", "\ndone\n", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"run", "tui", "parse", "history", "config"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})

	t.Run("noticeWriter", func(t *testing.T) {
		logs := &bytes.Buffer{}
		var sent []tea.Msg
		w := &noticeWriter{logs: logWriter{logger: shared.NewLogger(logs)}, send: func(msg tea.Msg) { sent = append(sent, msg) }}

		line := "Please open this URL in your browser:\nhttps://id.twitch.tv/oauth2/authorize\n"
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(sent) != 1 {
			t.Fatalf("expected one notice, got %d", len(sent))
		}
		if !strings.Contains(logs.String(), "oauth2/authorize") {
			t.Errorf("expected URL in log, got %q", logs.String())
		}
	})

	t.Run("logWriter", func(t *testing.T) {
		logs := &bytes.Buffer{}
		w := logWriter{logger: shared.NewLogger(logs)}

		n, err := w.Write([]byte("→ Opening browser\n"))
		if err != nil || n != len("→ Opening browser\n") {
			t.Fatalf("unexpected write result %d, %v", n, err)
		}
		if !strings.Contains(logs.String(), "Opening browser") {
			t.Errorf("expected message in log, got %q", logs.String())
		}
	})
}
