package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	loginInstance = iota
	loginUsername
	loginPassword
	loginTOTP
	loginFieldCount
)

// LoginForm is what the user typed into the instance login form.
type LoginForm struct {
	Instance string
	Username string
	Password string
	TOTP     string
}

type LoginViewModel struct {
	inputs     []textinput.Model
	inputFocus int
	active     bool
	needsTOTP  bool
	width      int
	height     int
}

func NewLoginView(defaultInstance string) *LoginViewModel {
	instance := textinput.New()
	instance.Placeholder = "Instance (lemmy.world)"
	instance.CharLimit = 253
	instance.SetValue(defaultInstance)

	username := textinput.New()
	username.Placeholder = "Username or email"
	username.CharLimit = 100

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 256
	password.EchoMode = textinput.EchoPassword

	totp := textinput.New()
	totp.Placeholder = "2FA code (optional)"
	totp.CharLimit = 10

	return &LoginViewModel{
		inputs: []textinput.Model{instance, username, password, totp},
	}
}

func (m *LoginViewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Activate opens the form with every field but the instance cleared.
func (m *LoginViewModel) Activate() {
	m.active = true
	m.needsTOTP = false
	for i := loginUsername; i < loginFieldCount; i++ {
		m.inputs[i].SetValue("")
	}
	m.inputFocus = loginInstance
	if m.inputs[loginInstance].Value() != "" {
		m.inputFocus = loginUsername
	}
	m.focusCurrent()
}

func (m *LoginViewModel) Deactivate() {
	m.active = false
	m.blurAll()
}

func (m *LoginViewModel) IsActive() bool {
	return m.active
}

// RequireTOTP moves focus to the second factor field after the instance
// asked for one.
func (m *LoginViewModel) RequireTOTP() {
	m.needsTOTP = true
	m.blurAll()
	m.inputFocus = loginTOTP
	m.focusCurrent()
}

func (m *LoginViewModel) Form() LoginForm {
	return LoginForm{
		Instance: strings.TrimSpace(m.inputs[loginInstance].Value()),
		Username: strings.TrimSpace(m.inputs[loginUsername].Value()),
		Password: m.inputs[loginPassword].Value(),
		TOTP:     strings.TrimSpace(m.inputs[loginTOTP].Value()),
	}
}

func (m *LoginViewModel) Update(msg tea.Msg) tea.Cmd {
	if !m.active {
		return nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab", "down":
			m.nextInput()
			return nil
		case "shift+tab", "up":
			m.prevInput()
			return nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.inputFocus], cmd = m.inputs[m.inputFocus].Update(msg)
	return cmd
}

func (m *LoginViewModel) nextInput() {
	m.blurAll()
	m.inputFocus = (m.inputFocus + 1) % loginFieldCount
	m.focusCurrent()
}

func (m *LoginViewModel) prevInput() {
	m.blurAll()
	m.inputFocus = (m.inputFocus - 1 + loginFieldCount) % loginFieldCount
	m.focusCurrent()
}

func (m *LoginViewModel) blurAll() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *LoginViewModel) focusCurrent() {
	m.inputs[m.inputFocus].Focus()
}

func (m *LoginViewModel) View() string {
	if !m.active {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Log in to an instance") + "\n\n")

	labels := []string{"Instance:", "Username:", "Password:", "2FA code:"}
	for i, label := range labels {
		if i == loginTOTP && m.needsTOTP {
			label = warningStyle.Render("2FA code (required):")
		}
		b.WriteString(label + "\n")
		b.WriteString(m.inputs[i].View() + "\n\n")
	}

	b.WriteString(helpStyle.Render("Tab: Next | Shift+Tab: Previous | Enter: Log in | Esc: Cancel"))

	return formStyle.Render(b.String())
}
