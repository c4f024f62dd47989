package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleHeading = lipgloss.NewStyle().
			Bold(true)

	styleInstance = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	styleInstanceName = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Bold(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindHeading
	kindInstance
	kindDialogue
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[Error"):
		return kindError
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "== "):
		return kindHeading
	case strings.HasPrefix(line, "  "):
		return kindInstance
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		return kindNarration
	}
}

// containsQuotedSpeech checks if a line carries speech in double quotes
// after one of the speaking verbs.
func containsQuotedSpeech(line string) bool {
	for _, verb := range []string{` says "`, ` yells "`, ` tells you "`} {
		i := strings.Index(line, verb)
		if i >= 0 && strings.Contains(line[i+len(verb):], `"`) {
			return true
		}
	}
	return false
}

// styledInstance renders "  Name (kind) at x,y" with the name bold.
func styledInstance(line string) string {
	body := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(body)]
	name, rest, ok := strings.Cut(body, " (")
	if !ok {
		return styleInstance.Render(line)
	}
	return indent + styleInstanceName.Render(name) + styleInstance.Render(" ("+rest)
}

// styledPlayerInput renders the echoed operator input in green with "> " prefix.
func styledPlayerInput(input string) string {
	return stylePlayerInput.Render("> " + input)
}
