// Package scope manages the attachment set of the active session: which
// files are attached, and which of them are in scope for the next question.
//
// The scope policy is a strategy chosen at construction. Under PolicyImplicit
// every attachment is always in scope. Under PolicyManual the user toggles
// per-file selection; the selection lives in memory only and resets to
// all-selected whenever the attachment list is reloaded.
package scope

import (
	"context"
	"fmt"
	"sync"

	"github.com/docchat-ai/docchat/internal/api"
	"go.uber.org/zap"
)

// Policy selects how CurrentScope is derived from the attachment list.
type Policy int

const (
	// PolicyImplicit: scope = all attachments currently listed.
	PolicyImplicit Policy = iota
	// PolicyManual: scope = attachments the user has left selected.
	PolicyManual
)

// ParsePolicy maps the config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "implicit":
		return PolicyImplicit, nil
	case "manual":
		return PolicyManual, nil
	}
	return 0, fmt.Errorf("scope: unknown policy %q", s)
}

// Backend is the slice of the api client the manager needs.
type Backend interface {
	ListFiles(ctx context.Context, sessionID string) ([]string, error)
	Upload(ctx context.Context, sessionID string, files []api.File) (*api.UploadResult, error)
	RemoveFile(ctx context.Context, sessionID, filename string) error
}

// Manager holds the attachment state for the active session.
//
// Every local mutation bumps a generation counter. A list refresh captures
// the generation before its network round trip and is discarded if the
// counter moved while it was in flight, so a slow refresh can never
// resurrect a file the user already removed.
type Manager struct {
	backend Backend
	policy  Policy
	log     *zap.Logger

	mu        sync.Mutex
	sessionID string
	gen       uint64
	files     []string // server order
	selected  map[string]bool
}

// NewManager creates a Manager with the given policy.
func NewManager(backend Backend, policy Policy, log *zap.Logger) *Manager {
	return &Manager{
		backend:  backend,
		policy:   policy,
		log:      log,
		selected: make(map[string]bool),
	}
}

// Policy returns the scope policy the manager was built with.
func (m *Manager) Policy() Policy { return m.policy }

// RequiresSelection reports whether an empty scope must block a send.
func (m *Manager) RequiresSelection() bool { return m.policy == PolicyManual }

// SessionID returns the session the manager is currently bound to.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Activate binds the manager to a session and fetches its attachment list.
// Nothing from the previous session survives: the list starts empty and is
// replaced by a fresh fetch, with selection reset to all-selected.
func (m *Manager) Activate(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.sessionID = sessionID
	m.gen++
	m.files = nil
	m.selected = make(map[string]bool)
	gen := m.gen
	m.mu.Unlock()

	files, err := m.backend.ListFiles(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("scope: activate %s: %w", sessionID, err)
	}

	m.apply(sessionID, gen, files)
	return nil
}

// Refresh re-fetches the attachment list for the bound session. The result
// is discarded if the session changed or any mutation landed while the fetch
// was in flight.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	sessionID := m.sessionID
	gen := m.gen
	m.mu.Unlock()
	if sessionID == "" {
		return fmt.Errorf("scope: no active session")
	}

	files, err := m.backend.ListFiles(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("scope: refresh: %w", err)
	}

	m.apply(sessionID, gen, files)
	return nil
}

// apply installs a fetched list if the manager state it was captured against
// is still current.
func (m *Manager) apply(sessionID string, gen uint64, files []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != sessionID || m.gen != gen {
		m.log.Debug("discarding stale attachment list",
			zap.String("session_id", sessionID))
		return
	}
	m.setFilesLocked(files)
}

// setFilesLocked replaces the list and resets selection to all-selected.
func (m *Manager) setFilesLocked(files []string) {
	m.files = append([]string(nil), files...)
	m.selected = make(map[string]bool, len(files))
	for _, f := range files {
		m.selected[f] = true
	}
}

// Upload sends files to the bound session and commits the server's
// authoritative attachment list. Partial success is normal: the accepted set
// is committed even when Errors is non-empty.
func (m *Manager) Upload(ctx context.Context, files []api.File) (*api.UploadResult, error) {
	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()
	if sessionID == "" {
		return nil, fmt.Errorf("scope: no active session")
	}

	res, err := m.backend.Upload(ctx, sessionID, files)
	if err != nil {
		return nil, fmt.Errorf("scope: upload: %w", err)
	}

	m.mu.Lock()
	if m.sessionID == sessionID {
		m.gen++
		m.setFilesLocked(res.ProcessedFiles)
	}
	m.mu.Unlock()
	return res, nil
}

// Remove detaches a file. The backend ack is awaited before the file is
// dropped locally, and the generation bump guarantees no refresh that was
// already in flight can bring it back.
func (m *Manager) Remove(ctx context.Context, filename string) error {
	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()
	if sessionID == "" {
		return fmt.Errorf("scope: no active session")
	}

	if err := m.backend.RemoveFile(ctx, sessionID, filename); err != nil {
		return fmt.Errorf("scope: remove %s: %w", filename, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != sessionID {
		return nil
	}
	m.gen++
	kept := m.files[:0]
	for _, f := range m.files {
		if f != filename {
			kept = append(kept, f)
		}
	}
	m.files = kept
	delete(m.selected, filename)
	return nil
}

// Toggle flips a file's selection. No-op under PolicyImplicit or for files
// not in the current list.
func (m *Manager) Toggle(filename string) {
	if m.policy != PolicyManual {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.selected[filename]; ok {
		m.selected[filename] = !m.selected[filename]
	}
}

// Selected reports whether a file is in the current selection.
func (m *Manager) Selected(filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected[filename]
}

// Files returns the attachment list in server order.
func (m *Manager) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.files...)
}

// CurrentScope returns the filenames to send with the next question.
func (m *Manager) CurrentScope() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.policy == PolicyImplicit {
		return append([]string(nil), m.files...)
	}
	var out []string
	for _, f := range m.files {
		if m.selected[f] {
			out = append(out, f)
		}
	}
	return out
}
