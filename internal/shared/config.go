package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

const defaultAuthTimeout = 2 * time.Minute

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Reward      RewardConfig      `toml:"reward"`
	Auth        AuthConfig        `toml:"auth"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains provider-specific OAuth application credentials.
type CredentialsConfig struct {
	Twitch  ProviderConfig `toml:"twitch"`
	Spotify ProviderConfig `toml:"spotify"`
}

// ProviderConfig contains one OAuth application's credentials and its fixed local redirect URI.
type ProviderConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// RewardConfig selects the channel-points reward whose redemptions are read.
type RewardConfig struct {
	Name     string   `toml:"name"`
	Statuses []string `toml:"statuses"`
}

// AuthConfig controls the browser handshake.
type AuthConfig struct {
	Timeout string `toml:"timeout"`
}

// DatabaseConfig contains the run history database settings.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// envOverrides lists the recognized environment variables.
type envOverrides struct {
	TwitchClientID      string `envconfig:"TWITCH_CLIENT_ID"`
	TwitchClientSecret  string `envconfig:"TWITCH_CLIENT_SECRET"`
	TwitchCallbackURL   string `envconfig:"TWITCH_CALLBACK_URL"`
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyCallbackURL  string `envconfig:"SPOTIFY_CALLBACK_URL"`
	RewardName          string `envconfig:"REWARD_NAME"`
	AuthTimeout         string `envconfig:"SONGREQS_AUTH_TIMEOUT"`
	DatabasePath        string `envconfig:"SONGREQS_DB"`
}

// TimeoutDuration parses the configured handshake timeout, falling back to two minutes.
func (a AuthConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return defaultAuthTimeout
	}
	return d
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// LoadConfig reads a TOML configuration file, layering it over [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// Load builds the effective configuration.
//
// Defaults come first, then the TOML file at path (skipped when missing), then the dotenv file
// at envPath (skipped when missing), then the process environment.
func Load(path, envPath string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, envPath, err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overrides config values with any recognized, non-empty environment variables.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&c.Credentials.Twitch.ClientID, env.TwitchClientID)
	set(&c.Credentials.Twitch.ClientSecret, env.TwitchClientSecret)
	set(&c.Credentials.Twitch.RedirectURI, env.TwitchCallbackURL)
	set(&c.Credentials.Spotify.ClientID, env.SpotifyClientID)
	set(&c.Credentials.Spotify.ClientSecret, env.SpotifyClientSecret)
	set(&c.Credentials.Spotify.RedirectURI, env.SpotifyCallbackURL)
	set(&c.Reward.Name, env.RewardName)
	set(&c.Auth.Timeout, env.AuthTimeout)
	set(&c.Database.Path, env.DatabasePath)
	return nil
}

// Validate checks that both providers have usable credentials.
func (c *Config) Validate() error {
	providers := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"twitch", c.Credentials.Twitch},
		{"spotify", c.Credentials.Spotify},
	}

	for _, p := range providers {
		name := p.name
		if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" {
			return fmt.Errorf("%w: %s client_id and client_secret must be set", ErrMissingCredentials, name)
		}
		if p.cfg.RedirectURI == "" {
			return fmt.Errorf("%w: %s redirect_uri must be set", ErrInvalidConfig, name)
		}
	}

	if c.Reward.Name == "" {
		return fmt.Errorf("%w: reward name must not be empty", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
