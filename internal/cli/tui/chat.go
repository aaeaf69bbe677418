package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/nobita2041/ai-chatbot/internal/cli/attachment"
	"github.com/nobita2041/ai-chatbot/internal/cli/session"
	"github.com/nobita2041/ai-chatbot/internal/domain/entity"
)

// UI configuration constants
const (
	defaultInputWidth     = 100
	defaultViewportWidth  = 100
	defaultViewportHeight = 30
	defaultWindowWidth    = 100
	defaultWindowHeight   = 40
	inputCharLimit        = 10000
	inputHeightReserved   = 2
	statusHeightReserved  = 3
	minContentHeight      = 10
)

// Style definitions
var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

const helpText = "Enter send • /image <path> attach • /prompt [text] • /clear • Esc stop/quit"

// ChatProgram encapsulates the chat TUI program
type ChatProgram struct {
	controller *session.Controller
	loader     *attachment.Loader
}

// NewChatProgram creates a new chat program instance
func NewChatProgram(controller *session.Controller, loader *attachment.Loader) *ChatProgram {
	return &ChatProgram{controller: controller, loader: loader}
}

// Run starts the chat TUI program. The controller is disposed on exit.
func (p *ChatProgram) Run() error {
	defer p.controller.Dispose()

	program := tea.NewProgram(initialModel(p.controller, p.loader), tea.WithAltScreen())
	unsubscribe := p.controller.Subscribe(func(s session.Snapshot) {
		program.Send(snapshotMsg{snap: s})
	})
	defer unsubscribe()

	_, err := program.Run()
	return err
}

// snapshotMsg carries a controller state change into the Bubble Tea loop
type snapshotMsg struct {
	snap session.Snapshot
}

// chatModel is the Bubble Tea model containing all chat interface state
type chatModel struct {
	controller *session.Controller
	loader     *attachment.Loader

	input       textinput.Model
	contentView viewport.Model

	snap    session.Snapshot
	pending []*attachment.Attachment
	notice  string
	isError bool

	width  int
	height int
}

// initialModel creates the initial chat model
func initialModel(controller *session.Controller, loader *attachment.Loader) chatModel {
	input := textinput.New()
	input.Focus()
	input.CharLimit = inputCharLimit
	input.Width = defaultInputWidth
	input.Prompt = ""
	input.TextStyle = lipgloss.NewStyle()
	input.PromptStyle = lipgloss.NewStyle()

	contentViewport := viewport.New(defaultViewportWidth, defaultViewportHeight)
	contentViewport.SetContent("")

	return chatModel{
		controller:  controller,
		loader:      loader,
		input:       input,
		contentView: contentViewport,
		snap:        controller.Snapshot(),
		width:       defaultWindowWidth,
		height:      defaultWindowHeight,
	}
}

// Init initializes the model (Bubble Tea interface)
func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update processes messages and updates the model (Bubble Tea interface)
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKeyPress(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.handleWindowResize(msg)

	case snapshotMsg:
		m.snap = msg.snap
		m.refreshContent()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input. handled reports whether the key
// was consumed and must not reach the input box.
func (m *chatModel) handleKeyPress(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit, true

	case tea.KeyEsc:
		// Esc stops a running reply first, quits otherwise
		if m.snap.Loading {
			m.controller.Cancel()
			m.setNotice("Stopped.", false)
			return nil, true
		}
		return tea.Quit, true

	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line == "" && len(m.pending) == 0 {
			return nil, true
		}
		if strings.HasPrefix(line, "/") {
			return m.runCommand(line), true
		}
		m.send(line)
		return nil, true

	case tea.KeyUp:
		m.contentView.LineUp(1)
	case tea.KeyDown:
		m.contentView.LineDown(1)
	case tea.KeyPgUp:
		m.contentView.ViewUp()
	case tea.KeyPgDown:
		m.contentView.ViewDown()
	}

	return nil, false
}

// send hands the text and pending attachments to the controller
func (m *chatModel) send(text string) {
	images := make([]entity.ImageContent, len(m.pending))
	for i, a := range m.pending {
		images[i] = a.Image
	}

	if _, err := m.controller.Send(text, images); err != nil {
		m.setNotice(err.Error(), true)
		return
	}
	m.pending = nil
	m.setNotice("", false)
	m.snap = m.controller.Snapshot()
	m.refreshContent()
}

// runCommand executes a slash command
func (m *chatModel) runCommand(line string) tea.Cmd {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return tea.Quit

	case "/clear":
		m.controller.Clear()
		m.pending = nil
		m.setNotice("Conversation cleared.", false)

	case "/image":
		if arg == "" {
			m.setNotice("usage: /image <path>", true)
			break
		}
		att, err := m.loader.Load(arg)
		if err != nil {
			m.setNotice(err.Error(), true)
			break
		}
		m.pending = append(m.pending, att)
		m.setNotice(fmt.Sprintf("Attached %s (%d KB).", att.Name, (att.Size+1023)/1024), false)

	case "/drop":
		m.pending = nil
		m.setNotice("Attachments removed.", false)

	case "/prompt":
		if arg == "" {
			m.controller.ResetSystemPrompt()
			m.setNotice("System prompt reset to default.", false)
			break
		}
		m.controller.SetSystemPrompt(arg)
		m.setNotice("System prompt updated.", false)

	case "/help":
		m.setNotice(helpText, false)

	default:
		m.setNotice(fmt.Sprintf("unknown command %s", name), true)
	}

	m.snap = m.controller.Snapshot()
	m.refreshContent()
	return nil
}

func (m *chatModel) setNotice(text string, isError bool) {
	m.notice = text
	m.isError = isError
}

// handleWindowResize handles window size changes
func (m *chatModel) handleWindowResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	contentHeight := msg.Height - inputHeightReserved - statusHeightReserved
	if contentHeight < minContentHeight {
		contentHeight = minContentHeight
	}

	m.contentView.Width = msg.Width
	m.contentView.Height = contentHeight
	m.input.Width = msg.Width - 3

	m.refreshContent()
}

// refreshContent refreshes the display content
func (m *chatModel) refreshContent() {
	display := renderTranscript(m.snap)
	if m.width > 0 {
		display = wrapText(display, m.width)
	}

	m.contentView.SetContent(display)
	m.contentView.GotoBottom()
}

// renderTranscript renders the history plus the reply in progress
func renderTranscript(snap session.Snapshot) string {
	var b strings.Builder

	for _, msg := range snap.History {
		b.WriteString("\n")
		switch msg.Role {
		case entity.RoleUser:
			b.WriteString(boldStyle.Render("You"))
		default:
			b.WriteString(accentStyle.Render("Assistant"))
		}
		b.WriteString("\n")

		if text := msg.Content.PlainText(); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
		if n := len(msg.Images); n > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("[%d image(s) attached]", n)))
			b.WriteString("\n")
		}
	}

	if snap.Loading {
		b.WriteString("\n")
		b.WriteString(accentStyle.Render("Assistant"))
		b.WriteString("\n")
		if snap.Streaming == "" {
			b.WriteString(dimStyle.Render("..."))
		} else {
			b.WriteString(snap.Streaming)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// wrapText applies auto-wrapping to text, correctly handling CJK character widths
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 10 {
		return text
	}

	lines := strings.Split(text, "\n")
	var result strings.Builder

	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.WriteString(wrapLine(line, maxWidth))
	}

	return result.String()
}

// wrapLine wraps a single line of text by display width
func wrapLine(line string, maxWidth int) string {
	if runewidth.StringWidth(line) <= maxWidth {
		return line
	}

	var result strings.Builder
	var currentLine strings.Builder
	currentWidth := 0

	for _, r := range line {
		runeW := runewidth.RuneWidth(r)

		if currentWidth+runeW > maxWidth && currentWidth > 0 {
			result.WriteString(currentLine.String())
			result.WriteString("\n")
			currentLine.Reset()
			currentWidth = 0
		}

		currentLine.WriteRune(r)
		currentWidth += runeW
	}

	if currentLine.Len() > 0 {
		result.WriteString(currentLine.String())
	}

	return result.String()
}

// View renders the UI (Bubble Tea interface)
func (m chatModel) View() string {
	status := dimStyle.Render(fmt.Sprintf("%d messages", len(m.snap.History)))
	if m.snap.SystemPrompt != "" {
		status += dimStyle.Render(" • custom prompt")
	}
	if m.snap.Loading {
		status += dimStyle.Render(" • generating...")
	}
	if n := len(m.pending); n > 0 {
		status += accentStyle.Render(fmt.Sprintf(" • %d image(s) pending", n))
	}

	inputView := promptStyle.Render("> ") + m.input.View()

	var footer string
	switch {
	case m.notice != "" && m.isError:
		footer = errorStyle.Render(m.notice)
	case m.notice != "":
		footer = dimStyle.Render(m.notice)
	default:
		footer = dimStyle.Render(helpText)
	}

	return lipgloss.JoinVertical(lipgloss.Left, status, "", m.contentView.View(), "", inputView, footer)
}
