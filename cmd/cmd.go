// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// runCommand builds a playlist from a channel's song request redemptions
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Build a playlist from a channel's song request redemptions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "channel",
				Aliases: []string{"ch"},
				Usage:   "Twitch channel login (prompted for when omitted)",
			},
			&cli.StringFlag{
				Name:  "reward",
				Usage: "Exact title of the song request reward (defaults to the configured reward)",
			},
			&cli.StringSliceFlag{
				Name:  "status",
				Usage: "Redemption status to read, repeatable (FULFILLED, UNFULFILLED, CANCELED)",
			},
			&cli.BoolFlag{
				Name:  "search",
				Usage: "Search Spotify for requests without a track link",
			},
			&cli.BoolFlag{
				Name:  "no-dedupe",
				Usage: "Keep repeated requests for the same track",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Parse the requests without creating a playlist",
			},
			&cli.BoolFlag{
				Name:  "history",
				Usage: "Record the run in the history database",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the request list to a .csv, .md or .txt file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run summary as JSON",
			},
		},
		Action: r.Run,
	}
}

// tuiCommand returns the top-level TUI command for an interactive build.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive TUI for a playlist build",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "channel",
				Aliases: []string{"ch"},
				Usage:   "Twitch channel login (prompted for when omitted)",
			},
			&cli.BoolFlag{
				Name:  "search",
				Usage: "Search Spotify for requests without a track link",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File receiving logs while the TUI is running",
				Value: "./tmp/songreqs-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// parseCommand runs the track link parser on one message
func parseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Extract the track id from a redemption message",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "message",
			},
		},
		Action: r.Parse,
	}
}

// historyCommand lists and inspects recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.HistoryList,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show one run with its per-request outcomes",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// configCommand handles configuration files
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination of the new file",
						Value: "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "check",
				Usage:  "Validate the effective configuration",
				Action: r.ConfigCheck,
			},
		},
	}
}
