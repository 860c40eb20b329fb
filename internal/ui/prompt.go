package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songreqs/internal/shared"
)

// ChannelPrompt asks for the channel whose song requests are read.
type ChannelPrompt struct {
	input     textinput.Model
	help      help.Model
	keys      keyMap
	submitted bool
	cancelled bool
}

// NewChannelPrompt creates a focused text input for the channel name.
func NewChannelPrompt() *ChannelPrompt {
	ti := textinput.New()
	ti.Placeholder = "channel name"
	ti.CharLimit = 25
	ti.Width = 30
	ti.Prompt = "› "
	ti.Focus()

	return &ChannelPrompt{input: ti, help: help.New(), keys: newKeyMap()}
}

// Init starts the cursor blinking.
func (p *ChannelPrompt) Init() tea.Cmd {
	return textinput.Blink
}

// Update submits on enter (ignoring blank input), cancels on esc and forwards everything else to the input.
func (p *ChannelPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, p.keys.cancel):
			p.cancelled = true
			return p, tea.Quit
		case key.Matches(msg, p.keys.submit):
			if p.Value() == "" {
				return p, nil
			}
			p.submitted = true
			return p, tea.Quit
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View renders the prompt.
func (p *ChannelPrompt) View() string {
	if p.submitted || p.cancelled {
		return ""
	}
	helpView := p.help.ShortHelpView([]key.Binding{p.keys.submit, p.keys.cancel})
	return fmt.Sprintf("%s\n%s\n\n%s\n", styles.Title("Which Twitch channel?"), p.input.View(), helpView)
}

// Value returns the trimmed input.
func (p *ChannelPrompt) Value() string {
	return strings.TrimSpace(p.input.Value())
}

// Submitted reports whether the user confirmed a channel.
func (p *ChannelPrompt) Submitted() bool {
	return p.submitted
}

// PromptChannel runs the prompt on in/out and returns the entered channel.
func PromptChannel(ctx context.Context, in io.Reader, out io.Writer) (string, error) {
	prompt := NewChannelPrompt()
	program := tea.NewProgram(prompt, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))

	if _, err := program.Run(); err != nil {
		return "", fmt.Errorf("error running channel prompt: %w", err)
	}

	if !prompt.Submitted() {
		return "", fmt.Errorf("%w: channel name", shared.ErrMissingArgument)
	}
	return prompt.Value(), nil
}
