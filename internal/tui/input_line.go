package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine renders a text input as exactly one line of bodyW columns.
func renderInputLine(bodyW int, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}
	// A newline in the input view would wrap inside the modal and look like typed newlines.
	inputView = strings.NewReplacer("\n", " ", "\r", " ").Replace(inputView)

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		// Reset styling after the cut so the background does not bleed.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}

// renderLabeledInput stacks a label (with an optional error) above an input line.
func renderLabeledInput(bodyW int, label string, focused bool, errText string, inputView string) string {
	lbl := styleMuted().Render(label)
	if focused {
		lbl = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(label)
	}
	if errText != "" {
		lbl += "  " + styleError().Render(errText)
	}
	return truncate(lbl, bodyW) + "\n" + renderInputLine(bodyW, inputView)
}
