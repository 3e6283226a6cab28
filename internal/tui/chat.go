// Package tui hosts the Bubbletea models for interactive mode.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SubmitMsg is sent when the user submits a line of input.
type SubmitMsg struct {
	Text string
}

// TranscriptMsg appends lines to the chat transcript.
type TranscriptMsg struct {
	Lines []string
}

// BusyMsg toggles the waiting indicator while a reply is generated.
type BusyMsg struct {
	Busy bool
}

// WorkerChangedMsg updates the header when the conversation switches
// to another worker.
type WorkerChangedMsg struct {
	Worker string
}

// QuitMsg ends the chat program from outside the update loop.
type QuitMsg struct{}

const maxTranscript = 1000

// ChatApp is the model for the chat screen: a scrolling transcript
// above a single input field.
type ChatApp struct {
	input      textinput.Model
	transcript []string
	worker     string
	width      int
	height     int
	busy       bool
	quitting   bool

	scrollOffset int
	autoScroll   bool

	// Callback for submitted lines. The caller is expected to do the
	// slow work off the update loop and report back with program.Send.
	onSubmit func(text string)

	headerStyle lipgloss.Style
	youStyle    lipgloss.Style
	boxStyle    lipgloss.Style
	busyStyle   lipgloss.Style
}

// NewChatApp creates a ChatApp talking to the named worker.
func NewChatApp(worker string) *ChatApp {
	ti := textinput.New()
	ti.Placeholder = "Type a message, /help for commands..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	return &ChatApp{
		input:      ti,
		worker:     worker,
		width:      80,
		height:     24,
		autoScroll: true,

		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),

		youStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		boxStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),

		busyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
	}
}

// SetSubmitHandler sets the callback for submitted input lines.
func (a *ChatApp) SetSubmitHandler(handler func(text string)) {
	a.onSubmit = handler
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit

		case "enter":
			text := strings.TrimSpace(a.input.Value())
			if text == "" || a.busy {
				return a, nil
			}
			a.input.Reset()
			return a, func() tea.Msg {
				return SubmitMsg{Text: text}
			}

		case "pgup":
			a.scrollUp(a.pageSize())
			return a, nil

		case "pgdown":
			a.scrollDown(a.pageSize())
			return a, nil
		}

		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 6

	case SubmitMsg:
		a.appendLines([]string{a.youStyle.Render("you") + " > " + msg.Text})
		a.busy = true
		if a.onSubmit != nil {
			a.onSubmit(msg.Text)
		}
		return a, nil

	case TranscriptMsg:
		a.appendLines(msg.Lines)
		return a, nil

	case BusyMsg:
		a.busy = msg.Busy
		return a, nil

	case WorkerChangedMsg:
		a.worker = msg.Worker
		return a, nil

	case QuitMsg:
		a.quitting = true
		return a, tea.Quit
	}

	return a, nil
}

func (a *ChatApp) appendLines(lines []string) {
	a.transcript = append(a.transcript, lines...)
	if len(a.transcript) > maxTranscript {
		a.transcript = a.transcript[len(a.transcript)-maxTranscript:]
	}
	if a.autoScroll {
		a.scrollOffset = 0
	}
}

// pageSize is the number of transcript lines visible at once.
func (a *ChatApp) pageSize() int {
	// Header, busy line and the bordered input take 6 rows.
	n := a.height - 6
	if n < 1 {
		n = 1
	}
	return n
}

func (a *ChatApp) scrollUp(n int) {
	max := len(a.transcript) - a.pageSize()
	if max < 0 {
		max = 0
	}
	a.scrollOffset += n
	if a.scrollOffset > max {
		a.scrollOffset = max
	}
	a.autoScroll = false
}

func (a *ChatApp) scrollDown(n int) {
	a.scrollOffset -= n
	if a.scrollOffset <= 0 {
		a.scrollOffset = 0
		a.autoScroll = true
	}
}

// visibleLines returns the transcript window for the current scroll
// position, padded to exactly pageSize rows.
func (a *ChatApp) visibleLines() []string {
	page := a.pageSize()
	end := len(a.transcript) - a.scrollOffset
	if end > len(a.transcript) {
		end = len(a.transcript)
	}
	start := end - page
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, page)
	lines = append(lines, a.transcript[start:end]...)
	for len(lines) < page {
		lines = append(lines, "")
	}
	return lines
}

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}

	header := a.headerStyle.Render("talking to " + a.worker)

	busy := ""
	if a.busy {
		busy = a.busyStyle.Render(a.worker + " is thinking...")
	}

	body := strings.Join(a.visibleLines(), "\n")
	input := a.boxStyle.Width(a.width - 2).Render(a.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, body, busy, input)
}

// NewChatProgram creates a Bubbletea program for the chat screen.
func NewChatProgram(worker string) (*tea.Program, *ChatApp) {
	app := NewChatApp(worker)
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}
