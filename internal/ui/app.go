package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/johanforsgren/threadline/internal/auth"
	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/logger"
	"github.com/johanforsgren/threadline/internal/provider/common"
	"github.com/johanforsgren/threadline/internal/ui/components"
	"github.com/johanforsgren/threadline/internal/ui/views"
)

type ViewState int

const (
	ViewAccounts ViewState = iota
	ViewLogin
	ViewInbox
)

func (v ViewState) String() string {
	switch v {
	case ViewLogin:
		return "Login"
	case ViewInbox:
		return "Inbox"
	default:
		return "Accounts"
	}
}

// Session is the part of the auth service the interface drives.
type Session interface {
	State() auth.State
	Phase() auth.Phase
	SwitchActive(ctx context.Context, handle string) error
	RemoveAccount(ctx context.Context, handle string) error
	LogoutEverything(ctx context.Context) error
	LoginFederated(ctx context.Context, req auth.FederatedLogin) (domain.Credential, error)
	RefreshSite(ctx context.Context) (*domain.Site, error)
	Inbox(ctx context.Context, unreadOnly bool) ([]domain.InboxItem, error)
}

type Model struct {
	state        ViewState
	width        int
	height       int
	topBar       *components.TopBarModel
	statusBar    *components.StatusBarModel
	commandBar   *components.CommandBarModel
	accountsView *views.AccountsViewModel
	loginView    *views.LoginViewModel
	inboxView    *views.InboxViewModel
	logsView     *views.LogsViewModel
	session      Session
	ctx          context.Context
}

func NewModel(ctx context.Context, session Session, defaultInstance string) Model {
	m := Model{
		state:        ViewAccounts,
		topBar:       components.NewTopBar(),
		statusBar:    components.NewStatusBar(),
		commandBar:   components.NewCommandBar(),
		accountsView: views.NewAccountsView(),
		loginView:    views.NewLoginView(defaultInstance),
		inboxView:    views.NewInboxView(),
		logsView:     views.NewLogsView(),
		session:      session,
		ctx:          ctx,
	}
	m.refreshSession()
	m.updateShortcuts()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.topBar.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.commandBar.SetWidth(msg.Width)
		m.accountsView.SetSize(msg.Width, msg.Height)
		m.loginView.SetSize(msg.Width, msg.Height)
		m.inboxView.SetSize(msg.Width, msg.Height)
		m.logsView.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionChangedMsg:
		m.refreshSession()
		if m.state == ViewLogin && msg.loggedIn {
			m.loginView.Deactivate()
			m.setView(ViewAccounts)
		}
		if msg.message != "" {
			m.statusBar.SetMessage(msg.message, false)
		}
		return m, nil

	case InboxLoadedMsg:
		m.inboxView.SetItems(msg.items)
		m.topBar.SetUnread(m.inboxView.Unread())
		m.refreshSession()
		m.statusBar.SetMessage(fmt.Sprintf("Loaded %d inbox items", len(msg.items)), false)
		return m, nil

	case LoginFailedMsg:
		if errors.Is(msg.err, domain.ErrNeedsSecondFactor) {
			m.loginView.RequireTOTP()
			m.statusBar.SetMessage("This account needs a 2FA code", true)
			return m, nil
		}
		m.statusBar.SetMessage(common.ExtractErrorMessage(msg.err), true)
		return m, nil

	case ErrorMsg:
		m.refreshSession()
		m.statusBar.SetMessage(common.ExtractErrorMessage(msg.err), true)
		return m, nil

	case SuccessMsg:
		m.statusBar.SetMessage(msg.message, false)
		return m, nil
	}

	return m, m.updateCurrentView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.commandBar.IsActive() {
		switch key {
		case "enter":
			return m.handleCommand()
		case "esc":
			m.commandBar.Deactivate()
			return m, nil
		}
		return m, m.commandBar.Update(msg)
	}

	if m.logsView.IsActive() {
		switch key {
		case "esc", "q":
			m.logsView.Deactivate()
			return m, nil
		}
		return m, m.logsView.Update(msg)
	}

	if m.state == ViewLogin {
		switch key {
		case "esc":
			m.loginView.Deactivate()
			m.setView(ViewAccounts)
			return m, nil
		case "enter":
			return m, m.submitLogin()
		}
		return m, m.loginView.Update(msg)
	}

	switch key {
	case ":":
		m.commandBar.Activate()
		return m, nil
	case "q":
		return m, tea.Quit
	case "L":
		m.logsView.Activate()
		return m, nil
	}

	switch m.state {
	case ViewAccounts:
		switch key {
		case "enter":
			if handle := m.accountsView.SelectedHandle(); handle != "" {
				return m, m.switchAccount(handle)
			}
			return m, nil
		case "a":
			m.openLogin()
			return m, nil
		case "d":
			if handle := m.accountsView.SelectedHandle(); handle != "" {
				return m, m.removeAccount(handle)
			}
			return m, nil
		case "i":
			cmd := m.openInbox()
			return m, cmd
		case "X":
			return m, m.logoutEverything()
		}
	case ViewInbox:
		switch key {
		case "esc":
			m.setView(ViewAccounts)
			return m, nil
		case "r":
			return m, m.loadInbox()
		}
	}

	return m, m.updateCurrentView(msg)
}

func (m Model) updateCurrentView(msg tea.Msg) tea.Cmd {
	switch m.state {
	case ViewAccounts:
		return m.accountsView.Update(msg)
	case ViewLogin:
		return m.loginView.Update(msg)
	case ViewInbox:
		return m.inboxView.Update(msg)
	}
	return nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	if m.logsView.IsActive() {
		content = m.logsView.View()
	} else {
		switch m.state {
		case ViewAccounts:
			content = m.accountsView.View()
		case ViewLogin:
			content = m.loginView.View()
		case ViewInbox:
			content = m.inboxView.View()
		}
	}

	bottom := m.statusBar.View()
	if commandBar := m.commandBar.View(); commandBar != "" {
		bottom = commandBar
	}

	return m.topBar.View() + "\n" + content + "\n" + bottom
}

func (m Model) handleCommand() (tea.Model, tea.Cmd) {
	input := m.commandBar.Value()
	m.commandBar.Deactivate()

	cmd := ParseCommand(input)
	logger.Log("UI: Executing command: %s", strings.TrimPrefix(strings.TrimSpace(input), ":"))

	switch cmd.Type {
	case CommandQuit:
		return m, tea.Quit
	case CommandAccounts:
		m.setView(ViewAccounts)
		return m, nil
	case CommandLogin:
		m.openLogin()
		return m, nil
	case CommandSwitch:
		if len(cmd.Args) != 1 {
			m.statusBar.SetMessage("usage: :switch <handle>", true)
			return m, nil
		}
		return m, m.switchAccount(cmd.Args[0])
	case CommandInbox:
		inboxCmd := m.openInbox()
		return m, inboxCmd
	case CommandLogs:
		m.logsView.Activate()
		return m, nil
	case CommandLogout:
		if len(cmd.Args) == 0 {
			return m, m.logoutEverything()
		}
		return m, m.removeAccount(cmd.Args[0])
	case CommandHelp:
		m.statusBar.SetMessage(":accounts :login :switch <handle> :inbox :logs :logout [handle] :quit", false)
		return m, nil
	}

	m.statusBar.SetMessage(fmt.Sprintf("Unknown command: %s", input), true)
	return m, nil
}

func (m *Model) setView(state ViewState) {
	m.state = state
	m.topBar.SetView(state.String())
	m.updateShortcuts()
}

func (m *Model) openLogin() {
	m.loginView.Activate()
	m.setView(ViewLogin)
}

func (m *Model) openInbox() tea.Cmd {
	if m.session.State().SiteToken() == "" {
		m.statusBar.SetMessage("The inbox needs an instance account", true)
		return nil
	}
	m.inboxView.Clear()
	m.setView(ViewInbox)
	return m.loadInbox()
}

// refreshSession copies the current session into the top bar and the
// accounts list.
func (m *Model) refreshSession() {
	state := m.session.State()
	count := 0
	if state.Accounts != nil {
		count = len(state.Accounts.Accounts)
	}
	m.topBar.SetSession(state.ActiveHandle(), count, state.ResolvedEndpoint(), m.session.Phase().String())
	m.accountsView.SetAccounts(state.Accounts)
}

func (m *Model) updateShortcuts() {
	m.topBar.SetShortcuts(shortcuts(m.state))
}

func (m Model) submitLogin() tea.Cmd {
	form := m.loginView.Form()
	if form.Instance == "" || form.Username == "" || form.Password == "" {
		m.statusBar.SetMessage("Instance, username and password are required", true)
		return nil
	}

	m.statusBar.SetMessage(fmt.Sprintf("Logging in to %s...", form.Instance), false)
	return func() tea.Msg {
		cred, err := m.session.LoginFederated(m.ctx, auth.FederatedLogin{
			Instance: form.Instance,
			Username: form.Username,
			Password: form.Password,
			TOTP:     form.TOTP,
		})
		if err != nil {
			return LoginFailedMsg{err: err}
		}
		return SessionChangedMsg{message: "Logged in as " + cred.Handle(), loggedIn: true}
	}
}

func (m Model) switchAccount(handle string) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.SwitchActive(m.ctx, handle); err != nil {
			return ErrorMsg{err: err}
		}
		return SessionChangedMsg{message: "Switched to " + handle}
	}
}

func (m Model) removeAccount(handle string) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.RemoveAccount(m.ctx, handle); err != nil {
			return ErrorMsg{err: err}
		}
		return SessionChangedMsg{message: "Removed " + handle}
	}
}

func (m Model) logoutEverything() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.LogoutEverything(m.ctx); err != nil {
			return ErrorMsg{err: err}
		}
		return SessionChangedMsg{message: "Logged out of every account"}
	}
}

func (m Model) loadInbox() tea.Cmd {
	return func() tea.Msg {
		if m.session.State().Site == nil {
			if _, err := m.session.RefreshSite(m.ctx); err != nil {
				logger.LogError("REFRESH_SITE", "inbox", err)
			}
		}
		items, err := m.session.Inbox(m.ctx, false)
		if err != nil {
			return ErrorMsg{err: err}
		}
		return InboxLoadedMsg{items: items}
	}
}

// SessionChangedMsg follows any account change; the model rereads the
// session when it arrives.
type SessionChangedMsg struct {
	message  string
	loggedIn bool
}

type InboxLoadedMsg struct {
	items []domain.InboxItem
}

type LoginFailedMsg struct {
	err error
}

type ErrorMsg struct {
	err error
}

type SuccessMsg struct {
	message string
}

// Run shows the account manager until the user quits.
func Run(ctx context.Context, session Session, defaultInstance string) error {
	p := tea.NewProgram(NewModel(ctx, session, defaultInstance), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
