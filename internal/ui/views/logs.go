package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/johanforsgren/threadline/internal/logger"
)

var logColors = map[string]lipgloss.Color{
	"[ERROR]":      errorColor,
	"[DEBUG]":      mutedColor,
	"[FILE_WRITE]": warningColor,
	"[FILE_OPEN]":  secondaryColor,
}

type LogsViewModel struct {
	width      int
	height     int
	offset     int
	active     bool
	errorsOnly bool
	logs       []logger.LogEntry
}

func NewLogsView() *LogsViewModel {
	return &LogsViewModel{}
}

func (m *LogsViewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Activate snapshots the session log and scrolls to the newest entry.
func (m *LogsViewModel) Activate() {
	m.active = true
	m.reload()
	m.offset = m.maxOffset()
}

func (m *LogsViewModel) Deactivate() {
	m.active = false
	m.offset = 0
}

func (m *LogsViewModel) IsActive() bool {
	return m.active
}

func (m *LogsViewModel) reload() {
	all := logger.GetLogs()
	if !m.errorsOnly {
		m.logs = all
		return
	}
	m.logs = m.logs[:0]
	for _, entry := range all {
		if strings.HasPrefix(entry.Message, "[ERROR]") {
			m.logs = append(m.logs, entry)
		}
	}
}

func (m *LogsViewModel) visibleLines() int {
	if m.height < 9 {
		return 1
	}
	return m.height - 8
}

func (m *LogsViewModel) maxOffset() int {
	return max(len(m.logs)-m.visibleLines(), 0)
}

func (m *LogsViewModel) scroll(delta int) {
	m.offset = min(max(m.offset+delta, 0), m.maxOffset())
}

func (m *LogsViewModel) Update(msg tea.Msg) tea.Cmd {
	if !m.active {
		return nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch key.String() {
	case "up", "k":
		m.scroll(-1)
	case "down", "j":
		m.scroll(1)
	case "pgup":
		m.scroll(-m.visibleLines())
	case "pgdown":
		m.scroll(m.visibleLines())
	case "g", "home":
		m.offset = 0
	case "G", "end":
		m.offset = m.maxOffset()
	case "e":
		m.errorsOnly = !m.errorsOnly
		m.reload()
		m.offset = m.maxOffset()
	}
	return nil
}

func lineColor(message string) lipgloss.Color {
	for prefix, color := range logColors {
		if strings.HasPrefix(message, prefix) {
			return color
		}
	}
	return foregroundColor
}

func (m *LogsViewModel) View() string {
	if !m.active {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf("Session Logs (%d entries)", len(m.logs))
	if m.errorsOnly {
		title = fmt.Sprintf("Session Errors (%d entries)", len(m.logs))
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.logs) == 0 {
		b.WriteString(helpStyle.Render("No logs yet"))
	} else {
		end := min(m.offset+m.visibleLines(), len(m.logs))
		for _, entry := range m.logs[m.offset:end] {
			line := fmt.Sprintf("[%s] %s", entry.Timestamp.Format("15:04:05.000"), entry.Message)
			b.WriteString(lipgloss.NewStyle().Foreground(lineColor(entry.Message)).Render(line))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	scrollInfo := ""
	if len(m.logs) > m.visibleLines() {
		scrollInfo = fmt.Sprintf(" | Showing %d-%d of %d", m.offset+1, min(m.offset+m.visibleLines(), len(m.logs)), len(m.logs))
	}
	b.WriteString(helpStyle.Render("j/k: Scroll | PgUp/PgDn: Page | g/G: Top/Bottom | e: Errors only | Esc: Close" + scrollInfo))

	return boxStyle.Width(max(m.width-4, 0)).Render(b.String())
}
