package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/ui"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to --path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("Created %s\n", path)
	r.writePlain("Fill in the Twitch and Spotify client credentials, or set them in the environment.\n")
	return nil
}

// ConfigCheck validates the effective configuration and prints it with secrets masked.
func (r *Runner) ConfigCheck(ctx context.Context, cmd *cli.Command) error {
	styles := ui.Styles()
	c := r.config

	r.writePlainHeader("Configuration")
	for _, p := range []struct {
		name string
		cfg  shared.ProviderConfig
	}{
		{"Twitch", c.Credentials.Twitch},
		{"Spotify", c.Credentials.Spotify},
	} {
		r.writePlain("%s client_id: %s\n", p.name, mask(p.cfg.ClientID))
		r.writePlain("%s client_secret: %s\n", p.name, mask(p.cfg.ClientSecret))
		r.writePlain("%s redirect_uri: %s\n", p.name, p.cfg.RedirectURI)
	}
	r.writePlain("Reward: %s %v\n", c.Reward.Name, c.Reward.Statuses)
	r.writePlain("Auth timeout: %s\n", c.Auth.TimeoutDuration())
	r.writePlain("History database: %s\n", c.Database.Path)

	if err := c.Validate(); err != nil {
		r.writePlainln("%s", styles.Err("✗ "+err.Error()))
		return err
	}

	r.writePlainln("%s", styles.OK("✓ Configuration is valid"))
	return nil
}

func mask(s string) string {
	switch {
	case s == "":
		return "(unset)"
	case len(s) <= 4:
		return "****"
	default:
		return fmt.Sprintf("%s****", s[:4])
	}
}
