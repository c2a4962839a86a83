// Package chat implements the conversation controller: the state machine
// that owns the transcript of the active session and reconciles it with
// asynchronous backend completions.
//
// The controller never does network I/O. Callers issue the request described
// by the Outbound returned from Send and deliver the outcome through
// ResolveResponse/FailResponse; history loads arrive through ApplyHistory.
// Every completion carries the session id it was issued for, and anything
// that no longer matches the active session is discarded, so a slow reply
// for one session can never corrupt the transcript of another.
package chat

import (
	"errors"
	"strings"
	"sync"

	"github.com/docchat-ai/docchat/internal/api"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the controller's send state.
type State int

const (
	// Idle: ready to accept a question.
	Idle State = iota
	// AwaitingResponse: a question is in flight; further sends are ignored.
	AwaitingResponse
)

// Message roles, matching the wire values.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the displayed transcript. ID is client-local and
// exists only to give list renderers a stable identity.
type Message struct {
	ID      string
	Role    string
	Content string
}

// FailureReply is appended as an assistant turn when a question fails, so
// the thread stays readable. A retry requires the user to resend.
const FailureReply = "Sorry, an error occurred."

var (
	// ErrBusy: a question is already awaiting its response.
	ErrBusy = errors.New("chat: a question is already in flight")
	// ErrEmptyQuestion: the trimmed question is empty.
	ErrEmptyQuestion = errors.New("chat: question is empty")
	// ErrEmptyScope: the policy requires an explicit selection and none is
	// made. Surfaced to the user before any request is issued.
	ErrEmptyScope = errors.New("chat: no documents selected for this question")
)

// Identity is the slice of the session identity provider the controller
// needs. Only the controller's switch/new-chat transitions mutate the
// active-session slot.
type Identity interface {
	CurrentID() string
	CreateNew() (string, error)
	SetCurrent(id string) error
}

// Scoper exposes the effective document scope for the next question.
type Scoper interface {
	CurrentScope() []string
	RequiresSelection() bool
}

// Outbound describes the /chat request the caller must issue for a send.
// SessionID is pinned to the session active when Send was called.
type Outbound struct {
	SessionID string
	Question  string
	Scope     []string
}

// Controller owns the transcript of the active session.
type Controller struct {
	ids   Identity
	scope Scoper
	log   *zap.Logger

	mu             sync.Mutex
	state          State
	transcript     []Message
	pendingSession string
}

// NewController creates an idle controller.
func NewController(ids Identity, scope Scoper, log *zap.Logger) *Controller {
	return &Controller{ids: ids, scope: scope, log: log}
}

// State returns the current send state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveSession returns the active session id.
func (c *Controller) ActiveSession() string {
	return c.ids.CurrentID()
}

// Transcript returns a copy of the displayed transcript.
func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.transcript...)
}

// Send validates the question, appends the optimistic user turn and returns
// the request to issue. While a question is in flight further sends return
// ErrBusy and change nothing.
func (c *Controller) Send(question string) (*Outbound, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return nil, ErrBusy
	}

	docs := c.scope.CurrentScope()
	if len(docs) == 0 && c.scope.RequiresSelection() {
		return nil, ErrEmptyScope
	}

	sessionID := c.ids.CurrentID()
	c.transcript = append(c.transcript, Message{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Content: question,
	})
	c.state = AwaitingResponse
	c.pendingSession = sessionID

	return &Outbound{SessionID: sessionID, Question: question, Scope: docs}, nil
}

// ResolveResponse appends the assistant's answer for the question issued for
// sessionID. Returns false when the completion is stale (session switched,
// or no matching question in flight) and must be dropped.
func (c *Controller) ResolveResponse(sessionID, answer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.acceptCompletionLocked(sessionID) {
		return false
	}
	c.transcript = append(c.transcript, Message{
		ID:      uuid.NewString(),
		Role:    RoleAssistant,
		Content: answer,
	})
	c.state = Idle
	c.pendingSession = ""
	return true
}

// FailResponse appends the fixed failure bubble for a question that errored
// or timed out. Same staleness rules as ResolveResponse.
func (c *Controller) FailResponse(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.acceptCompletionLocked(sessionID) {
		return false
	}
	c.transcript = append(c.transcript, Message{
		ID:      uuid.NewString(),
		Role:    RoleAssistant,
		Content: FailureReply,
	})
	c.state = Idle
	c.pendingSession = ""
	return true
}

func (c *Controller) acceptCompletionLocked(sessionID string) bool {
	if c.state != AwaitingResponse || sessionID != c.pendingSession {
		c.log.Debug("dropping stale chat completion", zap.String("session_id", sessionID))
		return false
	}
	if sessionID != c.ids.CurrentID() {
		c.log.Debug("dropping completion for inactive session", zap.String("session_id", sessionID))
		return false
	}
	return true
}

// ApplyHistory replaces the transcript with the server's history for
// sessionID. The fetched sequence is installed verbatim, never merged with
// what is on screen. Histories for a session that is no longer active are
// discarded.
func (c *Controller) ApplyHistory(sessionID string, history []api.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sessionID != c.ids.CurrentID() {
		c.log.Debug("dropping stale history", zap.String("session_id", sessionID))
		return false
	}
	transcript := make([]Message, 0, len(history))
	for _, m := range history {
		transcript = append(transcript, Message{
			ID:      uuid.NewString(),
			Role:    m.Role,
			Content: m.Content,
		})
	}
	c.transcript = transcript
	return true
}

// SwitchTo makes sessionID the active session. Switching to the already
// active session is a no-op (returns false). Otherwise the transcript is
// torn down, interest in any in-flight question is dropped, and the new id
// is persisted; the caller reloads history and attachments.
func (c *Controller) SwitchTo(sessionID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sessionID == c.ids.CurrentID() {
		return false, nil
	}
	if err := c.ids.SetCurrent(sessionID); err != nil {
		return false, err
	}
	c.resetLocked()
	return true, nil
}

// NewChat mints a fresh session, makes it active and tears down the
// transcript. No backend call is made.
func (c *Controller) NewChat() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, err := c.ids.CreateNew()
	if err != nil {
		return "", err
	}
	c.resetLocked()
	return id, nil
}

// SessionDeleted reacts to a confirmed session deletion. Deleting the active
// session transitions to a fresh one (changed=true); deleting any other
// session leaves the active session alone.
func (c *Controller) SessionDeleted(sessionID string) (active string, changed bool, err error) {
	if sessionID != c.ids.CurrentID() {
		return c.ids.CurrentID(), false, nil
	}
	id, err := c.NewChat()
	if err != nil {
		return c.ids.CurrentID(), false, err
	}
	return id, true, nil
}

func (c *Controller) resetLocked() {
	c.transcript = nil
	c.state = Idle
	c.pendingSession = ""
}
