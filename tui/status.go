package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line showing the
// start region, player and NPC totals, the in-game hour and the tick.
func (m Model) renderStatusBar() string {
	eng := m.session.Engine

	name := m.session.Game.Title
	hour := 0
	if r, ok := eng.Region(m.session.Game.Start); ok {
		st := r.Status()
		name = st.Name
		hour = st.Hour
	}

	var players, npcs, dead int
	regions := eng.Regions()
	for _, r := range regions {
		st := r.Status()
		players += st.Players
		npcs += st.NPCs
		dead += st.Dead
	}

	left := fmt.Sprintf(" %s | Regions: %d | Players: %d", name, len(regions), players)
	right := fmt.Sprintf("%02d:00 | T:%d ", hour, eng.Now())

	// Show the NPC breakdown only when it fits.
	candidate := fmt.Sprintf("NPCs: %d (%d dead) | %s", npcs, dead, right)
	if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
		right = candidate
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
