package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/johanforsgren/threadline/internal/domain"
)

const previewLength = 80

type InboxEntry struct {
	Item domain.InboxItem
}

func (e InboxEntry) FilterValue() string { return e.Item.Creator.Name }

func (e InboxEntry) Title() string {
	marker := " "
	if !e.Item.Read {
		marker = "•"
	}
	return fmt.Sprintf("%s [%s] %s", marker, e.Item.Kind, e.Item.Creator.Name)
}

func (e InboxEntry) Description() string {
	preview := strings.Join(strings.Fields(e.Item.Content), " ")
	if len(preview) > previewLength {
		preview = preview[:previewLength-3] + "..."
	}
	return e.Item.Published.Format("2006-01-02 15:04") + "  " + preview
}

type InboxViewModel struct {
	list   list.Model
	unread int
	width  int
	height int
}

func NewInboxView() *InboxViewModel {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Inbox"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return &InboxViewModel{list: l}
}

func (m *InboxViewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-5)
}

func (m *InboxViewModel) SetItems(items []domain.InboxItem) {
	entries := make([]list.Item, len(items))
	m.unread = 0
	for i, item := range items {
		entries[i] = InboxEntry{Item: item}
		if !item.Read {
			m.unread++
		}
	}
	m.list.SetItems(entries)
}

func (m *InboxViewModel) Clear() {
	m.unread = 0
	m.list.SetItems(nil)
}

func (m *InboxViewModel) Len() int {
	return len(m.list.Items())
}

func (m *InboxViewModel) Unread() int {
	return m.unread
}

func (m *InboxViewModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *InboxViewModel) View() string {
	if m.Len() == 0 {
		return formStyle.Render(helpStyle.Render("Nothing in the inbox. r: Reload | Esc: Back"))
	}
	return m.list.View() + helpStyle.Render("\nr: Reload | Esc: Back")
}
