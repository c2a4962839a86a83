package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/docchat-ai/docchat/internal/api"
	"github.com/docchat-ai/docchat/internal/chat"
)

// Commands close over the session id they were issued for and tag their
// completion message with it, so Update can discard results that arrive
// after the user moved on. Deadlines come from the api client itself.

func loadSessionsCmd(deps Deps) tea.Cmd {
	return func() tea.Msg {
		sessions, err := deps.Client.ListSessions(context.Background())
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

func loadHistoryCmd(deps Deps, sessionID string) tea.Cmd {
	return func() tea.Msg {
		history, err := deps.Client.FetchHistory(context.Background(), sessionID)
		return historyLoadedMsg{sessionID: sessionID, history: history, err: err}
	}
}

func activateAttachmentsCmd(deps Deps, sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := deps.Scope.Activate(context.Background(), sessionID)
		return attachmentsLoadedMsg{sessionID: sessionID, err: err}
	}
}

func sendCmd(deps Deps, out chat.Outbound) tea.Cmd {
	return func() tea.Msg {
		req := api.ChatRequest{
			Question:  out.Question,
			SessionID: out.SessionID,
		}
		// Only an explicit selection narrows the request; under the
		// implicit policy the server answers over everything it holds.
		if deps.Scope.RequiresSelection() {
			req.SelectedPDFs = out.Scope
		}
		resp, err := deps.Client.Chat(context.Background(), req)
		if err != nil {
			return answerMsg{sessionID: out.SessionID, err: err}
		}
		return answerMsg{sessionID: out.SessionID, answer: resp.Response}
	}
}

func uploadCmd(deps Deps, sessionID string, files []api.File) tea.Cmd {
	return func() tea.Msg {
		res, err := deps.Scope.Upload(context.Background(), files)
		return uploadDoneMsg{sessionID: sessionID, result: res, err: err}
	}
}

func removeFileCmd(deps Deps, sessionID, filename string) tea.Cmd {
	return func() tea.Msg {
		err := deps.Scope.Remove(context.Background(), filename)
		return removeDoneMsg{sessionID: sessionID, filename: filename, err: err}
	}
}

func deleteSessionCmd(deps Deps, sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := deps.Client.DeleteSession(context.Background(), sessionID)
		return deleteDoneMsg{sessionID: sessionID, err: err}
	}
}

func cleanCmd(deps Deps, sessionID string) tea.Cmd {
	return func() tea.Msg {
		return cleanDoneMsg{err: deps.Client.Clean(context.Background(), sessionID)}
	}
}

// Run starts the TUI on the alternate screen and blocks until exit.
func Run(deps Deps) error {
	p := tea.NewProgram(NewModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
