// Package sidebar derives renderable lists from directory and attachment
// state. It is pure: no I/O, no UI toolkit, server ordering preserved.
package sidebar

import (
	"github.com/docchat-ai/docchat/internal/api"
	"github.com/mattn/go-runewidth"
)

// DefaultTitle stands in for sessions the backend has not titled yet.
const DefaultTitle = "New conversation"

// Item is one renderable session row.
type Item struct {
	ID     string
	Title  string
	Active bool
}

// Derive maps the directory listing to session rows, marking the active one.
// The order is exactly the server's; the client never re-sorts. If the
// active session is client-minted and not yet known to the server, it is
// prepended so the user always sees where they are.
func Derive(sessions []api.SessionInfo, activeID string) []Item {
	items := make([]Item, 0, len(sessions)+1)
	found := false
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = DefaultTitle
		}
		active := s.SessionID == activeID
		found = found || active
		items = append(items, Item{ID: s.SessionID, Title: title, Active: active})
	}
	if !found && activeID != "" {
		items = append([]Item{{ID: activeID, Title: DefaultTitle, Active: true}}, items...)
	}
	return items
}

// FileItem is one renderable attachment row.
type FileItem struct {
	Name     string
	Selected bool
}

// DeriveFiles maps the attachment list to rows, preserving order. selected
// reports the per-file scope selection (always true under the implicit
// policy, where every attachment is in scope).
func DeriveFiles(files []string, selected func(string) bool) []FileItem {
	items := make([]FileItem, 0, len(files))
	for _, f := range files {
		items = append(items, FileItem{Name: f, Selected: selected(f)})
	}
	return items
}

// Truncate shortens s to at most width terminal cells, ellipsized. Titles
// and filenames may contain wide runes, so plain len() would misalign rows.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
