package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/stockdesk/internal/market"
	"github.com/zappabad/stockdesk/internal/orderflow"
	"github.com/zappabad/stockdesk/tui/styles"
)

// OrderField represents the currently focused dialog field.
type OrderField int

const (
	FieldQuantity OrderField = iota
	FieldPrice
	FieldSubmit
)

// OrderDialog is the modal order form. It renders a copy of the workflow
// state; the inputs are handed back to the workflow on confirm.
type OrderDialog struct {
	quantityInput textinput.Model
	priceInput    textinput.Model
	currentField  OrderField

	state   orderflow.DialogState
	visible bool
	width   int
	height  int
}

// NewOrderDialog creates a hidden order dialog.
func NewOrderDialog() *OrderDialog {
	quantityInput := textinput.New()
	quantityInput.Placeholder = "Quantity"
	quantityInput.Width = 12
	quantityInput.CharLimit = 12

	priceInput := textinput.New()
	priceInput.Placeholder = "Price"
	priceInput.Width = 12
	priceInput.CharLimit = 15

	return &OrderDialog{
		quantityInput: quantityInput,
		priceInput:    priceInput,
	}
}

// Init initializes the dialog.
func (d *OrderDialog) Init() tea.Cmd {
	return textinput.Blink
}

// Open shows the dialog seeded from state.
func (d *OrderDialog) Open(state orderflow.DialogState) {
	d.state = state
	d.visible = true
	d.quantityInput.SetValue(state.Quantity)
	d.priceInput.SetValue(state.Price)
	d.currentField = FieldQuantity
	d.focusCurrent()
}

// SetState refreshes the rendered workflow state. Input values are left alone
// so typing is never overwritten by a late response.
func (d *OrderDialog) SetState(state orderflow.DialogState) {
	d.state = state
}

// Close hides the dialog.
func (d *OrderDialog) Close() {
	d.visible = false
	d.state = orderflow.DialogState{}
	d.quantityInput.SetValue("")
	d.priceInput.SetValue("")
	d.quantityInput.Blur()
	d.priceInput.Blur()
}

// Visible reports whether the dialog is open.
func (d *OrderDialog) Visible() bool {
	return d.visible
}

// Update handles messages for the dialog.
func (d *OrderDialog) Update(msg tea.Msg) (*OrderDialog, tea.Cmd) {
	if !d.visible {
		return d, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			return d, func() tea.Msg { return OrderCancelMsg{} }

		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "tab"))):
			d.nextField()
			return d, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "shift+tab"))):
			d.prevField()
			return d, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if d.state.State == orderflow.Submitting {
				return d, nil
			}
			return d, d.confirm()
		}
	}

	switch d.currentField {
	case FieldQuantity:
		d.quantityInput, cmd = d.quantityInput.Update(msg)
	case FieldPrice:
		d.priceInput, cmd = d.priceInput.Update(msg)
	}
	return d, cmd
}

func (d *OrderDialog) confirm() tea.Cmd {
	qty, price := d.quantityInput.Value(), d.priceInput.Value()
	return func() tea.Msg {
		return OrderConfirmMsg{Quantity: qty, Price: price}
	}
}

// View renders the dialog.
func (d *OrderDialog) View() string {
	if !d.visible {
		return ""
	}
	st := d.state
	var content strings.Builder

	title := fmt.Sprintf("%s %s", st.Side.Title(), st.Stock.Symbol)
	content.WriteString(styles.RenderTitle(title, true))
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("%s  %s  %s\n\n",
		st.Stock.Name,
		styles.PriceStyle.Render(market.FormatPrice(st.Stock.CurrentPrice)),
		styles.RenderChange(st.Stock.PriceChange)))

	loading := st.State == orderflow.Selecting
	content.WriteString(renderCounterOrders(st.Side, st.CounterOrders, loading, 5))
	content.WriteString("\n\n")

	content.WriteString(d.renderField("Qty", FieldQuantity, d.quantityInput.View()))
	content.WriteString("\n")
	content.WriteString(d.renderField("Price", FieldPrice, d.priceInput.View()))
	content.WriteString("\n\n")

	button := styles.ButtonStyle
	if d.currentField == FieldSubmit {
		button = styles.FocusedButtonStyle
	}
	label := "Place " + st.Side.Title() + " Order"
	if st.State == orderflow.Submitting {
		label = "Submitting..."
	}
	content.WriteString(button.Render(label))

	if st.LastError != nil {
		content.WriteString("\n\n")
		content.WriteString(styles.ErrorStyle.Render(ErrorText(st.LastError)))
	}

	content.WriteString("\n\n")
	content.WriteString(styles.MutedStyle.Render("enter: submit  esc: cancel"))

	box := styles.DialogStyle.Render(content.String())
	if d.width > 0 && d.height > 0 {
		return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (d *OrderDialog) renderField(label string, field OrderField, inputView string) string {
	labelStyle := styles.LabelStyle
	inputStyle := styles.InputStyle
	if d.currentField == field {
		labelStyle = labelStyle.Foreground(styles.PrimaryColor)
		inputStyle = styles.FocusedInputStyle
	}
	return labelStyle.Render(fmt.Sprintf("%-8s", label)) + inputStyle.Render(inputView)
}

func (d *OrderDialog) nextField() {
	switch d.currentField {
	case FieldQuantity:
		d.currentField = FieldPrice
	case FieldPrice:
		d.currentField = FieldSubmit
	case FieldSubmit:
		d.currentField = FieldQuantity
	}
	d.focusCurrent()
}

func (d *OrderDialog) prevField() {
	switch d.currentField {
	case FieldQuantity:
		d.currentField = FieldSubmit
	case FieldPrice:
		d.currentField = FieldQuantity
	case FieldSubmit:
		d.currentField = FieldPrice
	}
	d.focusCurrent()
}

func (d *OrderDialog) focusCurrent() {
	d.quantityInput.Blur()
	d.priceInput.Blur()
	switch d.currentField {
	case FieldQuantity:
		d.quantityInput.Focus()
	case FieldPrice:
		d.priceInput.Focus()
	}
}

// SetSize sets the area the dialog is centred in.
func (d *OrderDialog) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// OrderConfirmMsg is sent when the user submits the dialog.
type OrderConfirmMsg struct {
	Quantity string
	Price    string
}

// OrderCancelMsg is sent when the user dismisses the dialog.
type OrderCancelMsg struct{}
