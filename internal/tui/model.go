// Package tui implements the full-screen terminal client: a sidebar with the
// session directory and attachment panel, the transcript viewport and a text
// input. All state-synchronization rules live in the core packages; the TUI
// only issues commands and routes their completions back by session id.
package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/docchat-ai/docchat/internal/api"
	"github.com/docchat-ai/docchat/internal/chat"
	"github.com/docchat-ai/docchat/internal/scope"
	"github.com/docchat-ai/docchat/internal/sidebar"
)

// ---------- completion messages, each tagged with its originating session ----------

type sessionsLoadedMsg struct {
	sessions []api.SessionInfo
	err      error
}

type historyLoadedMsg struct {
	sessionID string
	history   []api.Message
	err       error
}

type attachmentsLoadedMsg struct {
	sessionID string
	err       error
}

type answerMsg struct {
	sessionID string
	answer    string
	err       error
}

type uploadDoneMsg struct {
	sessionID string
	result    *api.UploadResult
	err       error
}

type removeDoneMsg struct {
	sessionID string
	filename  string
	err       error
}

type deleteDoneMsg struct {
	sessionID string
	err       error
}

type cleanDoneMsg struct{ err error }

// ---------- focus / confirm state ----------

type focusArea int

const (
	focusInput focusArea = iota
	focusSessions
	focusFiles
)

type confirmKind int

const (
	confirmDelete confirmKind = iota
	confirmRemove
	confirmClean
)

type confirmState struct {
	kind   confirmKind
	target string // session id or filename
	prompt string
}

// ---------- styles ----------

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	statusPolicyStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("2")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	paneTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Bold(true)

	paneTitleFocusedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220")).
				Bold(true)

	sidebarBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, true, false, false).
				BorderForeground(lipgloss.Color("238"))

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	itemActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	itemCursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	fileDeselectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Strikethrough(true)

	confirmBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(0, 1)

	confirmHintStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("237")).
				Foreground(lipgloss.Color("203")).
				Padding(0, 2)
)

var thinkingSpinner = spinner.Spinner{
	Frames: []string{"·", "✢", "✳", "✶", "✻", "✽", "✻", "✶", "✳", "✢"},
	FPS:    120 * time.Millisecond,
}

const sidebarWidth = 30

// ---------- Model ----------

// Deps carries the wired core components.
type Deps struct {
	Client  *api.Client
	Scope   *scope.Manager
	Ctrl    *chat.Controller
	Log     *zap.Logger
	Version string
}

// Model is the bubbletea model managing the full TUI state.
type Model struct {
	deps Deps

	textinput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	ready     bool

	width  int
	height int

	sessions      []api.SessionInfo
	sessionCursor int
	fileCursor    int

	focus    focusArea
	confirm  *confirmState
	thinking bool
	status   string

	quitting bool

	mdRenderer      *glamour.TermRenderer
	mdRendererWidth int
}

// NewModel creates the initial bubbletea model.
func NewModel(deps Deps) Model {
	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.CharLimit = 4096
	ti.Placeholder = "Ask about your documents (/help for commands)"
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = thinkingSpinner
	sp.Style = spinnerStyle

	return Model{
		deps:      deps,
		textinput: ti,
		spinner:   sp,
	}
}

func (m Model) Init() tea.Cmd {
	active := m.deps.Ctrl.ActiveSession()
	return tea.Batch(
		textinput.Blink,
		loadSessionsCmd(m.deps),
		loadHistoryCmd(m.deps, active),
		activateAttachmentsCmd(m.deps, active),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshTranscript()

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)

	// ---------- completions ----------

	case sessionsLoadedMsg:
		if msg.err != nil {
			// Degrade to an empty directory; the next refresh self-heals.
			m.deps.Log.Warn("session list failed", zap.Error(msg.err))
			m.sessions = nil
			m.status = "couldn't reach the server for the session list"
		} else {
			m.sessions = msg.sessions
		}
		m.clampCursors()

	case historyLoadedMsg:
		if msg.err != nil {
			m.deps.Log.Warn("history load failed",
				zap.String("session_id", msg.sessionID), zap.Error(msg.err))
			if msg.sessionID == m.deps.Ctrl.ActiveSession() {
				m.status = "couldn't load this conversation's history"
			}
		} else if m.deps.Ctrl.ApplyHistory(msg.sessionID, msg.history) {
			m.refreshTranscript()
		}

	case attachmentsLoadedMsg:
		if msg.err != nil {
			m.deps.Log.Warn("attachment load failed",
				zap.String("session_id", msg.sessionID), zap.Error(msg.err))
			if msg.sessionID == m.deps.Ctrl.ActiveSession() {
				m.status = "couldn't load attachments"
			}
		}
		m.clampCursors()

	case answerMsg:
		var applied bool
		if msg.err != nil {
			m.deps.Log.Warn("chat request failed",
				zap.String("session_id", msg.sessionID), zap.Error(msg.err))
			applied = m.deps.Ctrl.FailResponse(msg.sessionID)
		} else {
			applied = m.deps.Ctrl.ResolveResponse(msg.sessionID, msg.answer)
		}
		m.thinking = m.deps.Ctrl.State() == chat.AwaitingResponse
		if applied {
			m.refreshTranscript()
			// The server derives a title from the first exchange.
			cmds = append(cmds, loadSessionsCmd(m.deps))
		}

	case uploadDoneMsg:
		if msg.err != nil {
			m.deps.Log.Warn("upload failed", zap.Error(msg.err))
			m.status = "upload failed: " + msg.err.Error()
			break
		}
		m.status = fmt.Sprintf("processed %d file(s)", len(msg.result.ProcessedFiles))
		if len(msg.result.Errors) > 0 {
			m.status = fmt.Sprintf("processed %d file(s); failed: %s",
				len(msg.result.ProcessedFiles), strings.Join(msg.result.Errors, "; "))
		}
		m.clampCursors()

	case removeDoneMsg:
		if msg.err != nil {
			m.deps.Log.Warn("remove failed",
				zap.String("filename", msg.filename), zap.Error(msg.err))
			m.status = "couldn't remove " + msg.filename
		} else {
			m.status = "removed " + msg.filename
		}
		m.clampCursors()

	case deleteDoneMsg:
		if msg.err != nil {
			m.deps.Log.Warn("delete session failed",
				zap.String("session_id", msg.sessionID), zap.Error(msg.err))
		}
		// The delete is honored client-side regardless; the directory
		// refresh below reconciles with whatever the server kept.
		active, changed, err := m.deps.Ctrl.SessionDeleted(msg.sessionID)
		if err != nil {
			m.status = "couldn't start a replacement session: " + err.Error()
			break
		}
		if changed {
			m.thinking = false
			m.refreshTranscript()
			cmds = append(cmds, activateAttachmentsCmd(m.deps, active))
		}
		cmds = append(cmds, loadSessionsCmd(m.deps))

	case cleanDoneMsg:
		if msg.err != nil {
			m.status = "clean failed: " + msg.err.Error()
			break
		}
		// Everything server-side is gone; restart on a fresh session.
		id, err := m.deps.Ctrl.NewChat()
		if err != nil {
			m.status = "data wiped, but couldn't mint a session: " + err.Error()
			break
		}
		m.thinking = false
		m.status = "all server data wiped"
		m.refreshTranscript()
		cmds = append(cmds,
			loadSessionsCmd(m.deps),
			activateAttachmentsCmd(m.deps, id),
		)
	}

	return m, tea.Batch(cmds...)
}

// handleKey routes key presses by confirm state and focus.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// A pending confirmation swallows everything except yes/no.
	if m.confirm != nil {
		switch key {
		case "y", "enter":
			return m.runConfirmed()
		case "n", "esc":
			m.confirm = nil
			m.status = ""
		}
		return m, nil
	}

	switch key {
	case "tab":
		m.focus = (m.focus + 1) % 3
		if m.focus == focusInput {
			m.textinput.Focus()
		} else {
			m.textinput.Blur()
		}
		return m, nil
	case "ctrl+n":
		return m.startNewChat()
	case "ctrl+l":
		m.confirm = &confirmState{
			kind:   confirmClean,
			prompt: "Wipe ALL conversations and uploads on the server?",
		}
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch m.focus {
	case focusSessions:
		return m.handleSessionKey(key)
	case focusFiles:
		return m.handleFileKey(key)
	}

	if key == "enter" {
		return m.submitInput()
	}
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m Model) handleSessionKey(key string) (tea.Model, tea.Cmd) {
	items := m.sessionItems()
	switch key {
	case "up", "k":
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
	case "down", "j":
		if m.sessionCursor < len(items)-1 {
			m.sessionCursor++
		}
	case "enter":
		if m.sessionCursor < len(items) {
			return m.switchSession(items[m.sessionCursor].ID)
		}
	case "d", "ctrl+d":
		if m.sessionCursor < len(items) {
			it := items[m.sessionCursor]
			m.confirm = &confirmState{
				kind:   confirmDelete,
				target: it.ID,
				prompt: fmt.Sprintf("Delete conversation %q?", it.Title),
			}
		}
	}
	return m, nil
}

func (m Model) handleFileKey(key string) (tea.Model, tea.Cmd) {
	files := m.deps.Scope.Files()
	switch key {
	case "up", "k":
		if m.fileCursor > 0 {
			m.fileCursor--
		}
	case "down", "j":
		if m.fileCursor < len(files)-1 {
			m.fileCursor++
		}
	case " ":
		if m.fileCursor < len(files) {
			m.deps.Scope.Toggle(files[m.fileCursor])
		}
	case "x", "ctrl+x":
		if m.fileCursor < len(files) {
			name := files[m.fileCursor]
			m.confirm = &confirmState{
				kind:   confirmRemove,
				target: name,
				prompt: fmt.Sprintf("Remove %q from this conversation?", name),
			}
		}
	}
	return m, nil
}

// runConfirmed executes the pending confirmation.
func (m Model) runConfirmed() (tea.Model, tea.Cmd) {
	c := *m.confirm
	m.confirm = nil
	active := m.deps.Ctrl.ActiveSession()
	switch c.kind {
	case confirmDelete:
		return m, deleteSessionCmd(m.deps, c.target)
	case confirmRemove:
		return m, removeFileCmd(m.deps, active, c.target)
	case confirmClean:
		return m, cleanCmd(m.deps, active)
	}
	return m, nil
}

// submitInput handles enter in the input: slash commands or a question.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textinput.Value())
	if strings.HasPrefix(text, "/") {
		m.textinput.SetValue("")
		return m.runSlashCommand(text)
	}

	out, err := m.deps.Ctrl.Send(text)
	switch {
	case errors.Is(err, chat.ErrEmptyQuestion):
		return m, nil
	case errors.Is(err, chat.ErrEmptyScope):
		m.status = "select at least one document before asking"
		return m, nil
	case errors.Is(err, chat.ErrBusy):
		// One question in flight at a time; the extra enter is ignored.
		return m, nil
	case err != nil:
		m.status = err.Error()
		return m, nil
	}

	m.textinput.SetValue("")
	m.status = ""
	m.thinking = true
	m.refreshTranscript()
	return m, tea.Batch(sendCmd(m.deps, *out), m.spinner.Tick)
}

// runSlashCommand dispatches /commands typed into the input.
func (m Model) runSlashCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/new":
		return m.startNewChat()
	case "/upload":
		if len(fields) < 2 {
			m.status = "usage: /upload <file> [file…]"
			return m, nil
		}
		return m.startUpload(fields[1:])
	case "/clean":
		m.confirm = &confirmState{
			kind:   confirmClean,
			prompt: "Wipe ALL conversations and uploads on the server?",
		}
		return m, nil
	case "/help":
		m.status = "/new  /upload <file…>  /clean  /quit · tab cycles panes, space toggles scope"
		return m, nil
	case "/quit":
		m.quitting = true
		return m, tea.Quit
	}
	m.status = "unknown command " + fields[0]
	return m, nil
}

func (m Model) startNewChat() (tea.Model, tea.Cmd) {
	id, err := m.deps.Ctrl.NewChat()
	if err != nil {
		m.status = "couldn't start a new chat: " + err.Error()
		return m, nil
	}
	m.thinking = false
	m.status = ""
	m.refreshTranscript()
	return m, tea.Batch(
		loadSessionsCmd(m.deps),
		activateAttachmentsCmd(m.deps, id),
	)
}

func (m Model) startUpload(paths []string) (tea.Model, tea.Cmd) {
	var files []api.File
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			m.status = "can't read " + p
			return m, nil
		}
		files = append(files, api.File{Name: filepath.Base(p), Data: data})
	}
	m.status = fmt.Sprintf("uploading %d file(s)…", len(files))
	return m, uploadCmd(m.deps, m.deps.Ctrl.ActiveSession(), files)
}

func (m Model) switchSession(id string) (tea.Model, tea.Cmd) {
	changed, err := m.deps.Ctrl.SwitchTo(id)
	if err != nil {
		m.status = "couldn't switch: " + err.Error()
		return m, nil
	}
	if !changed {
		return m, nil
	}
	m.thinking = false
	m.status = ""
	m.fileCursor = 0
	m.refreshTranscript()
	return m, tea.Batch(
		loadHistoryCmd(m.deps, id),
		activateAttachmentsCmd(m.deps, id),
	)
}

// sessionItems derives the sidebar rows for the current directory state.
func (m *Model) sessionItems() []sidebar.Item {
	return sidebar.Derive(m.sessions, m.deps.Ctrl.ActiveSession())
}

func (m *Model) clampCursors() {
	if n := len(m.sessionItems()); m.sessionCursor >= n {
		m.sessionCursor = max(n-1, 0)
	}
	if n := len(m.deps.Scope.Files()); m.fileCursor >= n {
		m.fileCursor = max(n-1, 0)
	}
}
