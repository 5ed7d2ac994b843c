package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type TopBarModel struct {
	width        int
	account      string
	accountCount int
	instance     string
	phase        string
	unread       int
	currentView  string
	shortcuts    []string
}

var (
	titleStyle        = lipgloss.NewStyle().Padding(1, 2)
	titleOrangeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	valueWhiteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	shortcutBlueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	descGrayStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
)

const (
	contextRows     = 4
	contextColWidth = 45
	colMargin       = 4
	maxValueWidth   = 35
)

func NewTopBar() *TopBarModel {
	return &TopBarModel{}
}

func (m *TopBarModel) SetWidth(width int) {
	m.width = width
}

// SetSession describes who is signed in and where requests go.
func (m *TopBarModel) SetSession(account string, accountCount int, instance, phase string) {
	m.account = account
	m.accountCount = accountCount
	m.instance = instance
	m.phase = phase
}

func (m *TopBarModel) SetUnread(unread int) {
	m.unread = unread
}

func (m *TopBarModel) SetView(view string) {
	m.currentView = view
}

func (m *TopBarModel) SetShortcuts(shortcuts []string) {
	m.shortcuts = shortcuts
}

func truncate(s string) string {
	if len(s) > maxValueWidth {
		return s[:maxValueWidth-3] + "..."
	}
	return s
}

func (m *TopBarModel) View() string {
	contextLines := m.buildContextInfo()
	shortcuts := m.buildShortcuts()

	lines := []string{titleOrangeStyle.Render("threadline"), ""}
	for i := 0; i < contextRows; i++ {
		var ctx, sc string
		if i < len(contextLines) {
			ctx = contextLines[i]
		}
		if i < len(shortcuts) {
			sc = shortcuts[i]
		}
		padding := max(contextColWidth-lipgloss.Width(ctx), 1)
		lines = append(lines, ctx+strings.Repeat(" ", padding)+sc)
	}

	return titleStyle.Width(m.width).Render(strings.Join(lines, "\n"))
}

func (m *TopBarModel) buildContextInfo() []string {
	account := "anonymous"
	if m.account != "" {
		account = truncate(m.account)
	}
	accountLine := "👤 " + titleOrangeStyle.Render("Account: ") + valueWhiteStyle.Render(account)
	if m.accountCount > 1 {
		accountLine += descGrayStyle.Render(fmt.Sprintf(" [+%d]", m.accountCount-1))
	}

	instance := "none"
	if m.instance != "" {
		instance = truncate(m.instance)
	}

	view := m.currentView
	if view == "" {
		view = "Accounts"
	}
	if m.unread > 0 {
		view += descGrayStyle.Render(fmt.Sprintf(" (%d unread)", m.unread))
	}

	return []string{
		accountLine,
		"🌐 " + titleOrangeStyle.Render("Instance: ") + valueWhiteStyle.Render(instance),
		"🔐 " + titleOrangeStyle.Render("Session: ") + valueWhiteStyle.Render(m.phase),
		"🎯 " + titleOrangeStyle.Render("View: ") + valueWhiteStyle.Render(view),
	}
}

// buildShortcuts renders "<key> description" pairs, two per row when they
// do not fit in one column.
func (m *TopBarModel) buildShortcuts() []string {
	var formatted []string
	colWidth := 0
	for _, shortcut := range m.shortcuts {
		key, desc, ok := strings.Cut(shortcut, ">")
		if !ok {
			continue
		}
		entry := shortcutBlueStyle.Render(key+">") + " " + descGrayStyle.Render(strings.TrimSpace(desc))
		formatted = append(formatted, entry)
		colWidth = max(colWidth, lipgloss.Width(entry))
	}

	if len(formatted) <= contextRows {
		return formatted
	}

	rows := make([]string, contextRows)
	for i, entry := range formatted {
		row := i % contextRows
		if rows[row] != "" {
			rows[row] += strings.Repeat(" ", colWidth-lipgloss.Width(rows[row])+colMargin)
		}
		rows[row] += entry
	}
	return rows
}
