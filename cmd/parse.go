package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/urfave/cli/v3"
)

// Parse prints the track id found in a message, or "no track found".
func (r *Runner) Parse(ctx context.Context, cmd *cli.Command) error {
	message := strings.TrimSpace(cmd.StringArg("message"))
	if message == "" {
		return fmt.Errorf("%w: message", shared.ErrMissingArgument)
	}

	id, ok := shared.ParseTrackID(message)
	if !ok {
		return r.writePlain("no track found\n")
	}
	return r.writePlain("%s\n", id)
}
