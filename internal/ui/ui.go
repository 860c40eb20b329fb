package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songreqs/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PromptView ViewState = iota
	RunView
	ResultView
)

// RunFunc performs a playlist build for channel, reporting progress on the channel it is given.
type RunFunc func(ctx context.Context, channel string, progress chan<- tasks.ProgressUpdate) (*tasks.Report, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	run          RunFunc
	channel      string
	prompt       *ChannelPrompt
	spinner      spinner.Model
	width        int
	height       int
	results      list.Model
	progressChan chan tasks.ProgressUpdate
	doneChan     chan runResult
	progress     tasks.ProgressUpdate
	log          []string
	notices      []string
	logFile      string
	report       *tasks.Report
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. A non-empty channel skips the prompt.
func NewModel(ctx context.Context, channel string, run RunFunc) *Model {
	m := &Model{
		ctx:     ctx,
		view:    PromptView,
		run:     run,
		channel: strings.TrimSpace(channel),
		prompt:  NewChannelPrompt(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
	if m.channel != "" {
		m.view = RunView
	}
	return m
}

// SetLogFile names the file receiving logs so the views can point at it.
func (m *Model) SetLogFile(path string) {
	m.logFile = path
}

// Init starts the build right away when the channel is known, otherwise shows the prompt.
func (m *Model) Init() tea.Cmd {
	if m.view == RunView {
		return m.startRun()
	}
	return m.prompt.Init()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ResultView {
			m.results.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PromptView:
			return m.handlePromptKeys(msg)
		case RunView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			m.log = append(m.log, m.progress.Message)
			return m, m.waitForProgress()
		case MsgNotice:
			for _, line := range strings.Split(msg.data.(string), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					m.notices = append(m.notices, line)
				}
			}
			return m, nil
		case MsgRunComplete:
			res := msg.data.(runResult)
			m.report = res.report
			m.err = res.err
			m.view = ResultView
			if m.report != nil {
				m.results = list.New(reportItems(m.report), list.NewDefaultDelegate(), max(m.width-4, 0), max(m.height-8, 0))
				m.results.Title = tasks.PlaylistName(m.report.Channel)
			}
			return m, nil
		}
	}

	if m.view == PromptView {
		_, cmd := m.prompt.Update(msg)
		return m, cmd
	}
	if m.view == ResultView && m.report != nil {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PromptView:
		return m.prompt.View()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) {
		return m, tea.Quit
	}

	_, cmd := m.prompt.Update(msg)
	if m.prompt.Submitted() {
		m.channel = m.prompt.Value()
		m.view = RunView
		return m, m.startRun()
	}
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.report != nil && m.results.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	if m.report == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan runResult, 1)

	progress, done, channel := m.progressChan, m.doneChan, m.channel
	go func() {
		report, err := m.run(m.ctx, channel, progress)
		done <- runResult{report: report, err: err}
		close(progress)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return runCompleteMsg(nil, fmt.Errorf("no run in progress"))
		}

		update, ok := <-progress
		if !ok {
			res := <-done
			return runCompleteMsg(res.report, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRun() string {
	title := styles.Title(fmt.Sprintf("Building playlist for %s", m.channel))

	var phase string
	switch m.progress.Phase {
	case tasks.Authorize:
		phase = "Waiting for authorization in your browser..."
	case tasks.FetchRedemptions:
		phase = "Fetching redemptions..."
	case tasks.ParseRequests:
		phase = fmt.Sprintf("Reading requests (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist, tasks.AddTracks:
		phase = "Writing playlist..."
	default:
		phase = "Working..."
	}

	view := fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), phase, styles.Help(m.progress.Message))
	if len(m.notices) > 0 {
		view += "\n\n" + strings.Join(m.notices, "\n")
	}
	return view + m.logFooter()
}

func (m *Model) logFooter() string {
	if m.logFile == "" {
		return ""
	}
	return "\n\n" + styles.Help("Logs: "+m.logFile)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.Err(fmt.Sprintf("Build failed: %v\n\nPress q to quit", m.err)) + m.logFooter()
	}

	if m.report == nil {
		return styles.Err("No result available\n\nPress q to quit")
	}

	var title string
	if m.report.DryRun {
		title = styles.OK(fmt.Sprintf("✓ Dry run: %d tracks found", len(m.report.Requests)))
	} else {
		title = styles.OK(fmt.Sprintf("✓ Added %d tracks", len(m.report.Requests)))
	}

	info := fmt.Sprintf("\nRedemptions: %d\nSkipped: %d", m.report.Redemptions, len(m.report.Skips))
	if m.report.Playlist != nil {
		info += fmt.Sprintf("\nPlaylist: %s", m.report.Playlist.URL)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, info, m.results.View(), helpView)
}
