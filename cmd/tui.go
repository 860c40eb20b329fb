package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/tasks"
	"github.com/desertthunder/songreqs/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for one playlist build.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	notices := &noticeWriter{logs: logWriter{logger: fileLogger}}
	pipeline := r.pipeline(notices)
	search := cmd.Bool("search")

	run := func(ctx context.Context, channel string, progress chan<- tasks.ProgressUpdate) (*tasks.Report, error) {
		return pipeline.Run(ctx, tasks.RunOptions{
			Channel:    channel,
			RewardName: r.config.Reward.Name,
			Statuses:   r.config.Reward.Statuses,
			Search:     search,
			Dedupe:     true,
		}, progress)
	}

	model := ui.NewModel(ctx, cmd.String("channel"), run)
	model.SetLogFile(cmd.String("log-file"))
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	notices.send = p.Send

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// noticeWriter logs handshake status lines and shows them in the run view,
// so a consent URL the browser could not open stays visible.
type noticeWriter struct {
	logs logWriter
	send func(tea.Msg)
}

func (w *noticeWriter) Write(p []byte) (int, error) {
	w.logs.Write(p)
	if w.send != nil {
		w.send(ui.NoticeMsg(string(p)))
	}
	return len(p), nil
}
