package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/token"
)

type AccountItem struct {
	Credential domain.Credential
	Active     bool
}

func (i AccountItem) FilterValue() string { return i.Credential.Handle() }

func (i AccountItem) Title() string {
	indicator := " "
	if i.Active {
		indicator = "●"
	}
	return fmt.Sprintf("%s %s (%s)", indicator, i.Credential.Handle(), i.Credential.Kind())
}

func (i AccountItem) Description() string {
	if i.Credential.Kind() == domain.CredentialOAuth {
		return "reddit"
	}
	payload, err := token.Decode(i.Credential.Token())
	if err != nil || payload.Issuer == "" {
		return "unknown instance"
	}
	return payload.Issuer
}

type AccountsViewModel struct {
	list   list.Model
	width  int
	height int
}

func NewAccountsView() *AccountsViewModel {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Accounts"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return &AccountsViewModel{list: l}
}

func (m *AccountsViewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-5)
}

// SetAccounts lists the collection in stored order. A nil collection
// empties the list.
func (m *AccountsViewModel) SetAccounts(accounts *domain.CredentialCollection) {
	if accounts == nil {
		m.list.SetItems(nil)
		return
	}
	items := make([]list.Item, len(accounts.Accounts))
	for i, cred := range accounts.Accounts {
		items[i] = AccountItem{Credential: cred, Active: cred.Handle() == accounts.ActiveHandle}
	}
	m.list.SetItems(items)
}

func (m *AccountsViewModel) Len() int {
	return len(m.list.Items())
}

func (m *AccountsViewModel) Select(index int) {
	m.list.Select(index)
}

func (m *AccountsViewModel) SelectedHandle() string {
	item, ok := m.list.SelectedItem().(AccountItem)
	if !ok {
		return ""
	}
	return item.Credential.Handle()
}

func (m *AccountsViewModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *AccountsViewModel) View() string {
	if m.Len() == 0 {
		return formStyle.Render(helpStyle.Render("No accounts. Press a to log in."))
	}
	return m.list.View() + helpStyle.Render("\nEnter: Switch | a: Add | d: Remove | i: Inbox | q: Quit")
}
