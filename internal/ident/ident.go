// Package ident mints and durably remembers the active session identifier.
//
// The backend never allocates session ids: the client mints one locally and
// the session becomes durable server-side once a message or attachment
// references it. The active id is persisted to a small YAML state file so a
// restart resumes the same session.
package ident

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	idPrefix   = "sess_"
	idLength   = 9
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Provider owns the single "active session id" slot.
type Provider struct {
	path string

	mu      sync.Mutex
	current string
}

// New creates a Provider backed by the state file at path.
// The id is not loaded until EnsureInitialized is called.
func New(path string) *Provider {
	return &Provider{path: path}
}

// DefaultStatePath returns the state file path inside stateDir.
func DefaultStatePath(stateDir string) string {
	return filepath.Join(stateDir, "state.yaml")
}

// CurrentID returns the active session id. Empty until EnsureInitialized.
func (p *Provider) CurrentID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// EnsureInitialized loads the persisted session id, minting and persisting a
// fresh one if the slot is absent. After it returns, CurrentID is never empty.
func (p *Provider) EnsureInitialized() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != "" {
		return p.current, nil
	}

	if id := p.readSlot(); id != "" {
		p.current = id
		return id, nil
	}

	id := newID()
	if err := p.writeSlot(id); err != nil {
		return "", err
	}
	p.current = id
	return id, nil
}

// CreateNew mints a fresh session id, persists it as current and returns it.
// No backend call is made; the session exists server-side only once used.
func (p *Provider) CreateNew() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := newID()
	if err := p.writeSlot(id); err != nil {
		return "", err
	}
	p.current = id
	return id, nil
}

// SetCurrent persists an existing session id as the active one.
// Used when the user switches to a session from the directory listing.
func (p *Provider) SetCurrent(id string) error {
	if id == "" {
		return fmt.Errorf("ident: refusing to set empty session id")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writeSlot(id); err != nil {
		return err
	}
	p.current = id
	return nil
}

// readSlot reads the persisted id, returning "" when the file is missing or
// unreadable (a fresh id is minted in that case).
func (p *Provider) readSlot() string {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return ""
	}
	var state struct {
		CurrentSessionID string `yaml:"current_session_id"`
	}
	if yaml.Unmarshal(data, &state) != nil {
		return ""
	}
	return state.CurrentSessionID
}

// writeSlot persists the id, preserving any unrelated keys in the state file.
func (p *Provider) writeSlot(id string) error {
	raw := make(map[string]any)
	if data, err := os.ReadFile(p.path); err == nil {
		_ = yaml.Unmarshal(data, &raw) // ignore errors; start fresh if corrupt
	}
	raw["current_session_id"] = id

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("ident: cannot create state directory: %w", err)
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("ident: failed to marshal state: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0600); err != nil {
		return fmt.Errorf("ident: failed to write state: %w", err)
	}
	return nil
}

// newID returns "sess_" plus 9 random alphanumerics, the same shape the web
// client minted. Collisions are negligible within any realistic session count.
// rand.Int rejection-samples, so no alphabet character is favored (256 is not
// a multiple of 36).
func newID() string {
	size := big.NewInt(int64(len(idAlphabet)))
	b := make([]byte, idLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			// rand.Reader does not fail on supported platforms
			panic(err)
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return idPrefix + string(b)
}
