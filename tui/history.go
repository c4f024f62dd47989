// Package tui provides a Bubble Tea terminal UI for the TileQuest operator console.
package tui

import "strings"

// History holds recent console commands. Navigation can be narrowed to
// commands starting with what the operator has already typed, so "act Hero"
// followed by Up walks only that player's actions.
type History struct {
	entries []string
	max     int
	cursor  int    // -1 = not navigating, 0..len-1 = position in entries
	prefix  string // filter captured when navigation starts
}

// NewHistory creates a history buffer with the given maximum size.
func NewHistory(max int) *History {
	return &History{
		entries: make([]string, 0, max),
		max:     max,
		cursor:  -1,
	}
}

// Push records a command. Consecutive duplicates and the repeat shortcuts
// are skipped.
func (h *History) Push(cmd string) {
	switch strings.ToLower(cmd) {
	case "again", "g":
		return
	}
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == cmd {
		return
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[1:]
	}
}

// Prev returns the next older entry starting with prefix. The prefix is
// fixed when navigation starts and ignored until ResetCursor.
func (h *History) Prev(prefix string) (string, bool) {
	if h.cursor == -1 {
		h.prefix = strings.ToLower(prefix)
		i := h.find(len(h.entries)-1, -1)
		if i < 0 {
			return "", false
		}
		h.cursor = i
		return h.entries[i], true
	}
	if i := h.find(h.cursor-1, -1); i >= 0 {
		h.cursor = i
	}
	return h.entries[h.cursor], true
}

// Next returns the next newer matching entry, or ("", false) once past the
// most recent one.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	i := h.find(h.cursor+1, 1)
	if i < 0 {
		h.cursor = -1
		return "", false
	}
	h.cursor = i
	return h.entries[i], true
}

// ResetCursor ends navigation.
func (h *History) ResetCursor() {
	h.cursor = -1
	h.prefix = ""
}

func (h *History) find(from, step int) int {
	for i := from; i >= 0 && i < len(h.entries); i += step {
		if strings.HasPrefix(strings.ToLower(h.entries[i]), h.prefix) {
			return i
		}
	}
	return -1
}
