package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/docchat-ai/docchat/internal/api"
	"github.com/docchat-ai/docchat/internal/chat"
	"github.com/docchat-ai/docchat/internal/scope"
)

type stubIdentity struct {
	current string
	minted  int
}

func (s *stubIdentity) CurrentID() string { return s.current }

func (s *stubIdentity) CreateNew() (string, error) {
	s.minted++
	s.current = "sess_fresh" + string(rune('0'+s.minted))
	return s.current, nil
}

func (s *stubIdentity) SetCurrent(id string) error {
	s.current = id
	return nil
}

type stubBackend struct {
	files map[string][]string
}

func (b *stubBackend) ListFiles(ctx context.Context, sessionID string) ([]string, error) {
	return b.files[sessionID], nil
}

func (b *stubBackend) Upload(ctx context.Context, sessionID string, files []api.File) (*api.UploadResult, error) {
	return &api.UploadResult{}, nil
}

func (b *stubBackend) RemoveFile(ctx context.Context, sessionID, filename string) error {
	return nil
}

func newTestModel(t *testing.T, policy scope.Policy) Model {
	t.Helper()
	ids := &stubIdentity{current: "sess_test1"}
	mgr := scope.NewManager(&stubBackend{files: map[string][]string{
		"sess_test1": {"a.pdf", "b.pdf"},
	}}, policy, zap.NewNop())
	mgr.Activate(context.Background(), "sess_test1")
	ctrl := chat.NewController(ids, mgr, zap.NewNop())
	m := NewModel(Deps{Scope: mgr, Ctrl: ctrl, Log: zap.NewNop(), Version: "test"})
	m.width, m.height = 100, 30
	m.layout()
	return m
}

func keyPress(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestSlashHelp_SetsStatus(t *testing.T) {
	m := newTestModel(t, scope.PolicyImplicit)
	m.textinput.SetValue("/help")
	m = keyPress(m, "enter")
	if !strings.Contains(m.status, "/upload") {
		t.Errorf("help status missing commands: %q", m.status)
	}
	if m.textinput.Value() != "" {
		t.Error("input must be cleared after a slash command")
	}
}

func TestSlashUnknown_SetsStatus(t *testing.T) {
	m := newTestModel(t, scope.PolicyImplicit)
	m.textinput.SetValue("/frobnicate")
	m = keyPress(m, "enter")
	if !strings.Contains(m.status, "unknown command") {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestSubmit_AppendsUserTurnAndAwaits(t *testing.T) {
	m := newTestModel(t, scope.PolicyImplicit)
	m.textinput.SetValue("what does the report say?")
	m = keyPress(m, "enter")

	if !m.thinking {
		t.Error("expected thinking spinner after submit")
	}
	tr := m.deps.Ctrl.Transcript()
	if len(tr) != 1 || tr[0].Content != "what does the report say?" {
		t.Errorf("expected optimistic user turn, got %+v", tr)
	}
	// A second enter while awaiting is swallowed.
	m.textinput.SetValue("again")
	m = keyPress(m, "enter")
	if len(m.deps.Ctrl.Transcript()) != 1 {
		t.Error("second send while awaiting must be ignored")
	}
}

func TestAnswerMsg_StaleSessionDropped(t *testing.T) {
	m := newTestModel(t, scope.PolicyImplicit)
	m.textinput.SetValue("slow question")
	m = keyPress(m, "enter")

	if _, err := m.deps.Ctrl.SwitchTo("sess_other"); err != nil {
		t.Fatal(err)
	}
	next, _ := m.Update(answerMsg{sessionID: "sess_test1", answer: "late"})
	m = next.(Model)

	if m.thinking {
		t.Error("thinking must clear after the switch")
	}
	if len(m.deps.Ctrl.Transcript()) != 0 {
		t.Error("late answer for the old session must not reach the new transcript")
	}
}

func TestFileToggle_ManualOnly(t *testing.T) {
	m := newTestModel(t, scope.PolicyManual)
	m = keyPress(m, "tab") // sessions
	m = keyPress(m, "tab") // files
	if m.focus != focusFiles {
		t.Fatalf("expected files focus, got %v", m.focus)
	}
	m = keyPress(m, " ")
	if n := len(m.deps.Scope.CurrentScope()); n != 1 {
		t.Errorf("expected one file deselected, scope size %d", n)
	}
}

func TestConfirm_CancelKeepsState(t *testing.T) {
	m := newTestModel(t, scope.PolicyImplicit)
	m.confirm = &confirmState{kind: confirmClean, prompt: "sure?"}
	m = keyPress(m, "n")
	if m.confirm != nil {
		t.Error("n must dismiss the confirmation")
	}
}

func TestClampCursors_EmptiedListsResetToZero(t *testing.T) {
	m := newTestModel(t, scope.PolicyImplicit)
	m.sessions = []api.SessionInfo{
		{SessionID: "sess_a", Title: "A"},
		{SessionID: "sess_other", Title: "B"},
	}
	m.sessionCursor = 1
	m.fileCursor = 1

	// Switch the scope manager to a session with no attachments, then let a
	// failed directory fetch empty the session list.
	if _, err := m.deps.Ctrl.SwitchTo("sess_other"); err != nil {
		t.Fatal(err)
	}
	m.deps.Scope.Activate(context.Background(), "sess_other")
	next, _ := m.Update(sessionsLoadedMsg{err: context.DeadlineExceeded})
	m = next.(Model)

	// The active session is always derived into the view, so one row stays.
	if m.sessionCursor != 0 {
		t.Errorf("session cursor must reset, got %d", m.sessionCursor)
	}
	if m.fileCursor != 0 {
		t.Errorf("file cursor must reset when the file list empties, got %d", m.fileCursor)
	}
}

func TestSessionsLoadedError_DegradesToEmpty(t *testing.T) {
	m := newTestModel(t, scope.PolicyImplicit)
	m.sessions = []api.SessionInfo{{SessionID: "sess_x", Title: "X"}}
	next, _ := m.Update(sessionsLoadedMsg{err: context.DeadlineExceeded})
	m = next.(Model)
	if len(m.sessions) != 0 {
		t.Error("directory must degrade to empty on fetch failure")
	}
	if m.status == "" {
		t.Error("failure should surface in the status line")
	}
}
