package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type StatusBarModel struct {
	width   int
	message string
	isError bool
}

func NewStatusBar() *StatusBarModel {
	return &StatusBarModel{}
}

func (m *StatusBarModel) SetWidth(width int) {
	m.width = width
}

func (m *StatusBarModel) SetMessage(message string, isError bool) {
	m.message = message
	m.isError = isError
}

func (m *StatusBarModel) Message() (string, bool) {
	return m.message, m.isError
}

func (m *StatusBarModel) ClearMessage() {
	m.message = ""
	m.isError = false
}

func (m *StatusBarModel) View() string {
	content := " " + m.message

	switch w := lipgloss.Width(content); {
	case m.width > 3 && w > m.width:
		content = string([]rune(content)[:m.width-3]) + "..."
	case w < m.width:
		content += strings.Repeat(" ", m.width-w)
	}

	bg := lipgloss.Color("#374151")
	if m.isError {
		bg = lipgloss.Color("#991B1B")
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F9FAFB")).
		Background(bg).
		Width(m.width).
		Render(content)
}
