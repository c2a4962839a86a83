package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/docchat-ai/docchat/internal/chat"
	"github.com/docchat-ai/docchat/internal/scope"
	"github.com/docchat-ai/docchat/internal/sidebar"
)

// layout recomputes pane geometry after a resize.
func (m *Model) layout() {
	chatWidth := m.width - sidebarWidth - 1
	if chatWidth < 20 {
		chatWidth = 20
	}
	// status bar + separator + input + live line
	vpHeight := m.height - 4
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = vpHeight
	}
	m.textinput.Width = chatWidth - 4
	m.mdRenderer = nil // wrap width changed
}

// refreshTranscript re-renders the transcript into the viewport and scrolls
// to the bottom.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	transcript := m.deps.Ctrl.Transcript()
	if len(transcript) == 0 {
		return hintStyle.Render("No messages yet. Upload a document and ask away.")
	}

	var parts []string
	for _, msg := range transcript {
		switch msg.Role {
		case chat.RoleUser:
			parts = append(parts, userStyle.Render("You: ")+msg.Content)
		default:
			parts = append(parts, m.renderMarkdown(msg.Content))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading…"
	}

	side := m.renderSidebar()
	main := m.renderChatPane()
	body := lipgloss.JoinHorizontal(lipgloss.Top, side, main)

	bar := m.renderStatusBar()
	return body + "\n" + bar
}

// renderSidebar renders the session directory above the attachment panel.
func (m Model) renderSidebar() string {
	innerWidth := sidebarWidth - 2
	var lines []string

	title := paneTitleStyle
	if m.focus == focusSessions {
		title = paneTitleFocusedStyle
	}
	lines = append(lines, title.Render("Conversations"))

	for i, it := range m.sessionItems() {
		prefix := "  "
		style := itemStyle
		if it.Active {
			prefix = "● "
			style = itemActiveStyle
		}
		if m.focus == focusSessions && i == m.sessionCursor {
			prefix = "> "
			style = itemCursorStyle
		}
		lines = append(lines, style.Render(prefix+sidebar.Truncate(it.Title, innerWidth-2)))
	}

	lines = append(lines, "")
	title = paneTitleStyle
	if m.focus == focusFiles {
		title = paneTitleFocusedStyle
	}
	lines = append(lines, title.Render("Documents"))

	files := sidebar.DeriveFiles(m.deps.Scope.Files(), m.deps.Scope.Selected)
	if len(files) == 0 {
		lines = append(lines, hintStyle.Render("  none uploaded"))
	}
	manual := m.deps.Scope.Policy() == scope.PolicyManual
	for i, f := range files {
		prefix := "  "
		style := itemStyle
		if manual {
			if f.Selected {
				prefix = "[x] "
			} else {
				prefix = "[ ] "
				style = fileDeselectedStyle
			}
		}
		if m.focus == focusFiles && i == m.fileCursor {
			style = itemCursorStyle
			prefix = "> " + strings.TrimLeft(prefix, " ")
		}
		lines = append(lines, style.Render(prefix+sidebar.Truncate(f.Name, innerWidth-4)))
	}

	col := lipgloss.NewStyle().Width(innerWidth).Height(m.viewport.Height + 2).
		Render(strings.Join(lines, "\n"))
	return sidebarBorderStyle.Render(col)
}

// renderChatPane renders viewport + live line + input, stacked.
func (m Model) renderChatPane() string {
	var live string
	switch {
	case m.confirm != nil:
		live = confirmBorderStyle.Render(m.confirm.prompt) + "\n" +
			confirmHintStyle.Render("y confirm · n cancel")
	case m.thinking:
		live = spinnerStyle.Render(m.spinner.View()) + hintStyle.Render(" Thinking…")
	case m.status != "":
		live = hintStyle.Render(m.status)
	}

	parts := []string{m.viewport.View()}
	if live != "" {
		parts = append(parts, live)
	} else {
		parts = append(parts, "")
	}
	parts = append(parts, m.textinput.View())
	return lipgloss.NewStyle().PaddingLeft(1).Render(strings.Join(parts, "\n"))
}

// renderStatusBar renders the bottom separator + policy/session bar.
func (m Model) renderStatusBar() string {
	policy := "implicit scope"
	if m.deps.Scope.Policy() == scope.PolicyManual {
		policy = "manual scope"
	}
	inScope := len(m.deps.Scope.CurrentScope())
	total := len(m.deps.Scope.Files())

	status := statusPolicyStyle.Render(" docchat "+m.deps.Version) +
		statusBarStyle.Render(fmt.Sprintf(" │ %s │ %d/%d docs in scope │ %s",
			policy, inScope, total, m.deps.Ctrl.ActiveSession()))

	return separatorStyle.Width(m.width).Render(strings.Repeat("─", max(m.width, 1))) + "\n" +
		lipgloss.NewStyle().Background(lipgloss.Color("235")).Width(m.width).Render(status)
}

// ---------- markdown rendering ----------

func (m *Model) getMarkdownRenderer() *glamour.TermRenderer {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	wrapWidth := width - 2
	if m.mdRenderer != nil && m.mdRendererWidth == wrapWidth {
		return m.mdRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return nil
	}
	m.mdRenderer = r
	m.mdRendererWidth = wrapWidth
	return r
}

func (m *Model) renderMarkdown(text string) string {
	r := m.getMarkdownRenderer()
	if r == nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
