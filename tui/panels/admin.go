package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zappabad/stockdesk/internal/admin"
	adminservice "github.com/zappabad/stockdesk/internal/admin/service"
	"github.com/zappabad/stockdesk/internal/market"
	"github.com/zappabad/stockdesk/tui/styles"
)

// AdminPanel is the market control room: the open/closed switch, the new
// stock form and the leaderboard.
type AdminPanel struct {
	dash   adminservice.Dashboard
	loaded bool

	adding bool
	inputs []textinput.Model
	field  int

	focused bool
	width   int
	height  int
}

const (
	stockFieldSymbol = iota
	stockFieldName
	stockFieldPrice
)

// NewAdminPanel creates a new admin panel.
func NewAdminPanel() *AdminPanel {
	symbol := textinput.New()
	symbol.Placeholder = "ACME"
	symbol.CharLimit = 10
	symbol.Width = 12

	name := textinput.New()
	name.Placeholder = "Acme Corporation"
	name.CharLimit = 60
	name.Width = 30

	price := textinput.New()
	price.Placeholder = "10.00"
	price.CharLimit = 15
	price.Width = 12

	return &AdminPanel{inputs: []textinput.Model{symbol, name, price}}
}

// Init initializes the panel.
func (p *AdminPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *AdminPanel) Update(msg tea.Msg) (*AdminPanel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !p.focused {
		return p, nil
	}
	if p.adding {
		return p.updateForm(km)
	}

	switch {
	case key.Matches(km, key.NewBinding(key.WithKeys("t"))):
		return p, func() tea.Msg { return AdminToggleMarketMsg{} }
	case key.Matches(km, key.NewBinding(key.WithKeys("a"))):
		p.adding = true
		p.field = stockFieldSymbol
		p.focusField()
	}
	return p, nil
}

func (p *AdminPanel) updateForm(km tea.KeyMsg) (*AdminPanel, tea.Cmd) {
	switch {
	case key.Matches(km, key.NewBinding(key.WithKeys("esc"))):
		p.closeForm()
		return p, nil
	case key.Matches(km, key.NewBinding(key.WithKeys("tab", "down"))):
		p.field = (p.field + 1) % len(p.inputs)
		p.focusField()
		return p, nil
	case key.Matches(km, key.NewBinding(key.WithKeys("shift+tab", "up"))):
		p.field = (p.field + len(p.inputs) - 1) % len(p.inputs)
		p.focusField()
		return p, nil
	case key.Matches(km, key.NewBinding(key.WithKeys("enter"))):
		if p.field < stockFieldPrice {
			p.field++
			p.focusField()
			return p, nil
		}
		form := admin.NewStock{
			Symbol:       p.inputs[stockFieldSymbol].Value(),
			Name:         p.inputs[stockFieldName].Value(),
			CurrentPrice: p.inputs[stockFieldPrice].Value(),
		}
		return p, func() tea.Msg { return AdminAddStockMsg{Form: form} }
	}

	var cmd tea.Cmd
	p.inputs[p.field], cmd = p.inputs[p.field].Update(km)
	return p, cmd
}

func (p *AdminPanel) focusField() {
	for i := range p.inputs {
		if i == p.field {
			p.inputs[i].Focus()
		} else {
			p.inputs[i].Blur()
		}
	}
}

func (p *AdminPanel) closeForm() {
	p.adding = false
	for i := range p.inputs {
		p.inputs[i].SetValue("")
		p.inputs[i].Blur()
	}
}

// View renders the panel.
func (p *AdminPanel) View() string {
	var content strings.Builder

	content.WriteString(styles.HeaderStyle.Render("Market"))
	content.WriteString("\n")
	switch {
	case !p.dash.MarketKnown:
		content.WriteString(styles.MutedStyle.Render("Market state unknown"))
	case p.dash.MarketActive:
		content.WriteString(styles.SuccessStyle.Render("OPEN"))
	default:
		content.WriteString(styles.ErrorStyle.Render("CLOSED"))
	}
	content.WriteString("\n")

	if p.dash.Success != "" {
		content.WriteString(styles.SuccessStyle.Render(p.dash.Success))
		content.WriteString("\n")
	}
	if p.dash.Error != "" {
		content.WriteString(styles.ErrorStyle.Render(p.dash.Error))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	if p.adding {
		content.WriteString(styles.HeaderStyle.Render("Add stock"))
		content.WriteString("\n")
		labels := []string{"Symbol", "Name", "Price"}
		for i, in := range p.inputs {
			labelStyle := styles.LabelStyle
			inputStyle := styles.InputStyle
			if i == p.field {
				labelStyle = labelStyle.Foreground(styles.PrimaryColor)
				inputStyle = styles.FocusedInputStyle
			}
			content.WriteString(labelStyle.Render(fmt.Sprintf("%-8s", labels[i])) + inputStyle.Render(in.View()))
			content.WriteString("\n")
		}
		content.WriteString(styles.MutedStyle.Render("enter: add  esc: cancel"))
		content.WriteString("\n\n")
	}

	content.WriteString(styles.HeaderStyle.Render("Leaderboard"))
	content.WriteString("\n")
	switch {
	case !p.loaded:
		content.WriteString(styles.MutedStyle.Render("Loading..."))
	case len(p.dash.Leaderboard) == 0:
		content.WriteString(styles.MutedStyle.Render("No traders yet"))
	default:
		for i, e := range p.dash.Leaderboard {
			content.WriteString(fmt.Sprintf("%3d. %-30s %14s", i+1, e.Email, market.FormatPrice(e.TotalValue)))
			if i < len(p.dash.Leaderboard)-1 {
				content.WriteString("\n")
			}
		}
	}

	if !p.adding {
		content.WriteString("\n\n")
		content.WriteString(styles.MutedStyle.Render("t: open/close market  a: add stock"))
	}

	return styles.Panel("Admin", content.String(), p.focused, p.width, p.height)
}

// SetDashboard replaces the rendered dashboard.
func (p *AdminPanel) SetDashboard(d adminservice.Dashboard) {
	p.dash = d
	p.loaded = true
}

// StockAdded clears and closes the form.
func (p *AdminPanel) StockAdded() {
	p.closeForm()
}

// Capturing reports whether keystrokes go to a text input.
func (p *AdminPanel) Capturing() bool {
	return p.adding
}

// SetFocus sets the focus state of the panel.
func (p *AdminPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *AdminPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// AdminToggleMarketMsg asks to flip the market state.
type AdminToggleMarketMsg struct{}

// AdminAddStockMsg carries the raw new stock form.
type AdminAddStockMsg struct {
	Form admin.NewStock
}
