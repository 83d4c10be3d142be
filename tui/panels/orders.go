package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zappabad/stockdesk/internal/market"
	ordersservice "github.com/zappabad/stockdesk/internal/orders/service"
	"github.com/zappabad/stockdesk/tui/styles"
)

// OrdersPanel shows the caller's orders with one tab per status. Switching
// tabs only filters what was already fetched.
type OrdersPanel struct {
	byStatus     map[market.OrderStatus][]market.MyOrder
	tab          int
	scrollOffset int
	errMsg       string
	loaded       bool
	focused      bool
	width        int
	height       int
}

// NewOrdersPanel creates a new orders panel.
func NewOrdersPanel() *OrdersPanel {
	return &OrdersPanel{byStatus: ordersservice.Partition(nil)}
}

// Init initializes the panel.
func (p *OrdersPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *OrdersPanel) Update(msg tea.Msg) (*OrdersPanel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !p.focused {
		return p, nil
	}
	switch {
	case key.Matches(km, key.NewBinding(key.WithKeys("left", "h"))):
		if p.tab > 0 {
			p.tab--
			p.scrollOffset = 0
		}
	case key.Matches(km, key.NewBinding(key.WithKeys("right", "l"))):
		if p.tab < len(market.Statuses)-1 {
			p.tab++
			p.scrollOffset = 0
		}
	case key.Matches(km, key.NewBinding(key.WithKeys("up", "k"))):
		if p.scrollOffset > 0 {
			p.scrollOffset--
		}
	case key.Matches(km, key.NewBinding(key.WithKeys("down", "j"))):
		if p.scrollOffset < len(p.byStatus[p.Status()])-1 {
			p.scrollOffset++
		}
	}
	return p, nil
}

// Status returns the selected tab's status.
func (p *OrdersPanel) Status() market.OrderStatus {
	return market.Statuses[p.tab]
}

// View renders the panel.
func (p *OrdersPanel) View() string {
	var content strings.Builder

	tabs := make([]string, 0, len(market.Statuses))
	for i, st := range market.Statuses {
		label := fmt.Sprintf("%s (%d)", capitalize(string(st)), len(p.byStatus[st]))
		if i == p.tab {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.TabStyle.Render(label))
		}
	}
	content.WriteString(strings.Join(tabs, " "))
	content.WriteString("\n\n")

	if p.errMsg != "" {
		content.WriteString(styles.ErrorStyle.Render(p.errMsg))
		content.WriteString("\n")
	}

	rows := p.byStatus[p.Status()]
	switch {
	case !p.loaded && p.errMsg == "":
		content.WriteString(styles.MutedStyle.Render("Loading orders..."))
	case len(rows) == 0:
		content.WriteString(styles.MutedStyle.Render(fmt.Sprintf("No %s orders", p.Status())))
	default:
		header := fmt.Sprintf("%-12s %-8s %-6s %8s %12s", "Date", "Symbol", "Side", "Qty", "Price")
		content.WriteString(styles.HeaderStyle.Render(header))
		visible := p.height - 9
		if visible < 1 {
			visible = 1
		}
		end := p.scrollOffset + visible
		if end > len(rows) {
			end = len(rows)
		}
		for _, o := range rows[p.scrollOffset:end] {
			content.WriteString("\n")
			content.WriteString(fmt.Sprintf("%-12s %-8s %s %8d %12s",
				o.CreatedAt.Date(), o.StockSymbol, padSide(o.Side), o.Quantity, market.FormatPrice(o.Price)))
		}
	}

	content.WriteString("\n\n")
	content.WriteString(styles.MutedStyle.Render("left/right: switch status"))

	return styles.Panel("My Orders", content.String(), p.focused, p.width, p.height)
}

func padSide(s market.Side) string {
	pad := 6 - len(s)
	if pad < 1 {
		pad = 1
	}
	return styles.RenderSide(s) + strings.Repeat(" ", pad)
}

// SetOrders replaces the order list.
func (p *OrdersPanel) SetOrders(orders []market.MyOrder) {
	p.byStatus = ordersservice.Partition(orders)
	p.loaded = true
	p.errMsg = ""
	if p.scrollOffset >= len(p.byStatus[p.Status()]) {
		p.scrollOffset = 0
	}
}

// SetError shows a fetch failure; the previous list stays visible.
func (p *OrdersPanel) SetError(msg string) {
	p.errMsg = msg
}

// SetFocus sets the focus state of the panel.
func (p *OrdersPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *OrdersPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}
