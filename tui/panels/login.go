package panels

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/stockdesk/internal/session"
	"github.com/zappabad/stockdesk/tui/styles"
)

type loginField int

const (
	loginFieldEmail loginField = iota
	loginFieldPassword
	loginFieldRole
	loginFieldSubmit
)

// LoginPanel is shown while unauthenticated. ctrl+r switches between signing
// in and creating an account.
type LoginPanel struct {
	email    textinput.Model
	password textinput.Model
	field    loginField
	register bool
	role     session.Role
	busy     bool
	errMsg   string
	infoMsg  string
	width    int
	height   int
}

// NewLoginPanel creates a login panel with the email field focused.
func NewLoginPanel() *LoginPanel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 120
	email.Width = 32

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.Width = 32
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	p := &LoginPanel{email: email, password: password, role: session.RoleUser}
	p.focusField()
	return p
}

// Init initializes the panel.
func (p *LoginPanel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the panel.
func (p *LoginPanel) Update(msg tea.Msg) (*LoginPanel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch {
	case key.Matches(km, key.NewBinding(key.WithKeys("ctrl+r"))):
		p.register = !p.register
		p.errMsg = ""
		p.infoMsg = ""
		if !p.register && p.field == loginFieldRole {
			p.field = loginFieldSubmit
		}
		p.focusField()
		return p, nil
	case key.Matches(km, key.NewBinding(key.WithKeys("tab", "down"))):
		p.nextField()
		return p, nil
	case key.Matches(km, key.NewBinding(key.WithKeys("shift+tab", "up"))):
		p.prevField()
		return p, nil
	case p.field == loginFieldRole && key.Matches(km, key.NewBinding(key.WithKeys("left", "right", " "))):
		if p.role == session.RoleUser {
			p.role = session.RoleAdmin
		} else {
			p.role = session.RoleUser
		}
		return p, nil
	case key.Matches(km, key.NewBinding(key.WithKeys("enter"))):
		if p.field == loginFieldEmail {
			p.nextField()
			return p, nil
		}
		if p.busy {
			return p, nil
		}
		return p, p.submit()
	}

	var cmd tea.Cmd
	switch p.field {
	case loginFieldEmail:
		p.email, cmd = p.email.Update(km)
	case loginFieldPassword:
		p.password, cmd = p.password.Update(km)
	}
	return p, cmd
}

func (p *LoginPanel) submit() tea.Cmd {
	email := strings.TrimSpace(p.email.Value())
	password := p.password.Value()
	if email == "" || password == "" {
		p.errMsg = "Email and password are required"
		p.infoMsg = ""
		return nil
	}
	p.busy = true
	p.errMsg = ""
	if p.register {
		role := p.role
		return func() tea.Msg { return RegisterSubmitMsg{Email: email, Password: password, Role: role} }
	}
	return func() tea.Msg { return LoginSubmitMsg{Email: email, Password: password} }
}

func (p *LoginPanel) nextField() {
	p.field++
	if p.field == loginFieldRole && !p.register {
		p.field++
	}
	if p.field > loginFieldSubmit {
		p.field = loginFieldEmail
	}
	p.focusField()
}

func (p *LoginPanel) prevField() {
	if p.field == loginFieldEmail {
		p.field = loginFieldSubmit
	} else {
		p.field--
	}
	if p.field == loginFieldRole && !p.register {
		p.field--
	}
	p.focusField()
}

func (p *LoginPanel) focusField() {
	p.email.Blur()
	p.password.Blur()
	switch p.field {
	case loginFieldEmail:
		p.email.Focus()
	case loginFieldPassword:
		p.password.Focus()
	}
}

// View renders the panel.
func (p *LoginPanel) View() string {
	var content strings.Builder

	title := "Sign in"
	if p.register {
		title = "Create account"
	}
	content.WriteString(styles.RenderTitle("StockDesk · "+title, true))
	content.WriteString("\n\n")
	content.WriteString(p.renderInput("Email", loginFieldEmail, p.email.View()))
	content.WriteString("\n")
	content.WriteString(p.renderInput("Password", loginFieldPassword, p.password.View()))
	content.WriteString("\n")

	if p.register {
		user, adm := styles.TabStyle, styles.TabStyle
		if p.role == session.RoleAdmin {
			adm = styles.ActiveTabStyle
		} else {
			user = styles.ActiveTabStyle
		}
		label := styles.LabelStyle
		if p.field == loginFieldRole {
			label = label.Foreground(styles.PrimaryColor)
		}
		content.WriteString(label.Render("Role      ") + user.Render("user") + " " + adm.Render("admin"))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	button := styles.ButtonStyle
	if p.field == loginFieldSubmit {
		button = styles.FocusedButtonStyle
	}
	label := title
	if p.busy {
		label = "Please wait..."
	}
	content.WriteString(button.Render(label))

	if p.errMsg != "" {
		content.WriteString("\n\n")
		content.WriteString(styles.ErrorStyle.Render(p.errMsg))
	}
	if p.infoMsg != "" {
		content.WriteString("\n\n")
		content.WriteString(styles.SuccessStyle.Render(p.infoMsg))
	}

	hint := "ctrl+r: create an account"
	if p.register {
		hint = "ctrl+r: back to sign in"
	}
	content.WriteString("\n\n")
	content.WriteString(styles.MutedStyle.Render(hint + "  ctrl+c: quit"))

	box := styles.DialogStyle.Render(content.String())
	if p.width > 0 && p.height > 0 {
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (p *LoginPanel) renderInput(label string, field loginField, view string) string {
	labelStyle := styles.LabelStyle
	inputStyle := styles.InputStyle
	if p.field == field {
		labelStyle = labelStyle.Foreground(styles.PrimaryColor)
		inputStyle = styles.FocusedInputStyle
	}
	return labelStyle.Render(padRight(label, 10)) + inputStyle.Render(view)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

// SetError shows a failed attempt and re-enables the form.
func (p *LoginPanel) SetError(msg string) {
	p.busy = false
	p.errMsg = msg
	p.infoMsg = ""
}

// Registered switches back to sign in after an account was created.
func (p *LoginPanel) Registered(msg string) {
	p.busy = false
	p.register = false
	p.errMsg = ""
	p.infoMsg = msg
	p.password.SetValue("")
	p.field = loginFieldPassword
	p.focusField()
}

// Reset clears the form, keeping the email for convenience.
func (p *LoginPanel) Reset(info string) {
	p.busy = false
	p.password.SetValue("")
	p.errMsg = ""
	p.infoMsg = info
	p.field = loginFieldEmail
	if p.email.Value() != "" {
		p.field = loginFieldPassword
	}
	p.focusField()
}

// SetSize sets the area the form is centred in.
func (p *LoginPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// LoginSubmitMsg carries credentials to sign in with.
type LoginSubmitMsg struct {
	Email    string
	Password string
}

// RegisterSubmitMsg carries a new account.
type RegisterSubmitMsg struct {
	Email    string
	Password string
	Role     session.Role
}
