package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	modalMaxWidth = 72
	modalMinWidth = 30
)

// modalWidth is the outer width of a modal on a screen width columns wide.
func modalWidth(width int) int {
	w := width - 8
	if w > modalMaxWidth {
		w = modalMaxWidth
	}
	if w < modalMinWidth {
		w = modalMinWidth
	}
	return w
}

// modalBodyWidth is the usable content width inside the modal box.
func modalBodyWidth(width int) int {
	// border (2) + horizontal padding (2*2)
	return modalWidth(width) - 6
}

func renderModalBox(width int, title string, content string) string {
	bodyW := modalBodyWidth(width)

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorAccentFg).
		Background(colorAccent).
		Padding(0, 1).
		Width(bodyW).
		Render(truncate(title, bodyW-2))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 2).
		Width(bodyW + 4)

	return box.Render(strings.Join([]string{header, "", content}, "\n"))
}

// placeModal centers a rendered modal in a width x height screen.
func placeModal(width, height int, modal string) string {
	if width <= 0 || height <= 0 {
		return modal
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "))
}
