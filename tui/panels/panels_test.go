package panels_test

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminservice "github.com/zappabad/stockdesk/internal/admin/service"
	"github.com/zappabad/stockdesk/internal/api"
	"github.com/zappabad/stockdesk/internal/market"
	"github.com/zappabad/stockdesk/internal/news"
	"github.com/zappabad/stockdesk/internal/orderflow"
	"github.com/zappabad/stockdesk/internal/portfolio"
	portfolioservice "github.com/zappabad/stockdesk/internal/portfolio/service"
	"github.com/zappabad/stockdesk/internal/session"
	"github.com/zappabad/stockdesk/tui/panels"
)

var acme = market.Stock{ID: "1", Name: "Acme Co", Symbol: "ACME", CurrentPrice: decimal.NewFromInt(10)}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNavEntriesByRole(t *testing.T) {
	labels := func(role session.Role) []string {
		var out []string
		for _, e := range panels.NavEntries(role) {
			out = append(out, e.Label)
		}
		return out
	}
	assert.Equal(t, []string{"Market", "Portfolio", "Orders", "News"}, labels(session.RoleUser))
	assert.Equal(t, []string{"Market", "Portfolio", "Orders", "News", "Admin"}, labels(session.RoleAdmin))
	assert.NotContains(t, labels(""), "Admin")
}

func TestMarketCard(t *testing.T) {
	p := panels.NewMarketPanel()
	p.SetSize(60, 20)
	p.SetFocus(true)
	p.SetStocks([]market.Stock{acme})

	view := p.View()
	assert.Contains(t, view, "Acme Co")
	assert.Contains(t, view, "ACME")
	assert.Contains(t, view, "$10.00")
	assert.Contains(t, view, "+0.00%")
}

func TestMarketOpensOrderForSelection(t *testing.T) {
	p := panels.NewMarketPanel()
	p.SetFocus(true)
	p.SetStocks([]market.Stock{acme, {ID: "2", Name: "Beta", Symbol: "BETA"}})

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := p.Update(runes("s"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(panels.OpenOrderMsg)
	require.True(t, ok)
	assert.Equal(t, market.ID("2"), msg.Stock.ID)
	assert.Equal(t, market.SideSell, msg.Side)
}

func TestMarketIgnoresKeysWithoutFocus(t *testing.T) {
	p := panels.NewMarketPanel()
	p.SetStocks([]market.Stock{acme})
	_, cmd := p.Update(runes("b"))
	assert.Nil(t, cmd)
}

func TestOrderDialogRendersCounterOrders(t *testing.T) {
	d := panels.NewOrderDialog()
	d.Open(orderflow.DialogState{State: orderflow.Selecting, Stock: acme, Side: market.SideBuy, Price: "10.00"})
	require.True(t, d.Visible())

	view := d.View()
	assert.Contains(t, view, "Buy ACME")
	assert.Contains(t, view, "Available sellers")
	assert.Contains(t, view, "Loading...")

	d.SetState(orderflow.DialogState{
		State: orderflow.Composing, Stock: acme, Side: market.SideBuy, Price: "10.00",
		CounterOrders: []market.CounterOrder{{ID: "9", Side: market.SideSell, Quantity: 5, Price: decimal.RequireFromString("12.5")}},
	})
	assert.Contains(t, d.View(), "5 shares at $12.50")
}

func TestOrderDialogConfirmCarriesInput(t *testing.T) {
	d := panels.NewOrderDialog()
	d.Open(orderflow.DialogState{State: orderflow.Composing, Stock: acme, Side: market.SideBuy, Price: "10.00"})

	d, _ = d.Update(runes("3"))
	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, panels.OrderConfirmMsg{Quantity: "3", Price: "10.00"}, cmd())

	_, cmd = d.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, panels.OrderCancelMsg{}, cmd())
}

func TestOrderDialogShowsValidationError(t *testing.T) {
	d := panels.NewOrderDialog()
	d.Open(orderflow.DialogState{
		State: orderflow.Composing, Stock: acme, Side: market.SideSell,
		LastError: &orderflow.ValidationError{Field: "quantity", Reason: "must be greater than zero"},
	})
	view := d.View()
	assert.Contains(t, view, "Sell ACME")
	assert.Contains(t, view, "Available buyers")
	assert.Contains(t, view, "Quantity must be greater than zero")
}

func TestFormatCounterOrder(t *testing.T) {
	assert.Equal(t, "1 share at $9.90", panels.FormatCounterOrder(market.CounterOrder{Quantity: 1, Price: decimal.RequireFromString("9.9")}))
	assert.Equal(t, "20 shares at $100.00", panels.FormatCounterOrder(market.CounterOrder{Quantity: 20, Price: decimal.NewFromInt(100)}))
}

func TestNewsFormOnlyForAdmins(t *testing.T) {
	p := panels.NewNewsPanel()
	p.SetSize(80, 30)
	p.SetFocus(true)

	p, _ = p.Update(runes("n"))
	assert.False(t, p.Capturing())
	assert.NotContains(t, p.View(), "New announcement")

	p.SetAdmin(true)
	p, _ = p.Update(runes("n"))
	assert.True(t, p.Capturing())
	assert.Contains(t, p.View(), "New announcement")

	// losing the role closes the form
	p.SetAdmin(false)
	assert.False(t, p.Capturing())
}

func TestNewsFormPublish(t *testing.T) {
	p := panels.NewNewsPanel()
	p.SetFocus(true)
	p.SetAdmin(true)
	p, _ = p.Update(runes("n"))
	p, _ = p.Update(runes("Halt"))
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p, _ = p.Update(runes("Trading paused"))
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, panels.NewsPublishMsg{Draft: news.Draft{Title: "Halt", Content: "Trading paused"}}, cmd())

	p.Published("News created successfully")
	assert.False(t, p.Capturing())
	assert.Contains(t, p.View(), "News created successfully")
}

func TestOrdersTabsFilterWithoutFetching(t *testing.T) {
	p := panels.NewOrdersPanel()
	p.SetSize(80, 30)
	p.SetFocus(true)
	p.SetOrders([]market.MyOrder{
		{ID: "1", StockSymbol: "ACME", Side: market.SideBuy, Quantity: 2, Price: decimal.NewFromInt(10), Status: market.StatusPending},
		{ID: "2", StockSymbol: "BETA", Side: market.SideSell, Quantity: 4, Price: decimal.NewFromInt(7), Status: market.StatusCompleted},
	})

	assert.Equal(t, market.StatusPending, p.Status())
	assert.Contains(t, p.View(), "ACME")
	assert.NotContains(t, p.View(), "BETA")

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Nil(t, cmd)
	assert.Equal(t, market.StatusCompleted, p.Status())
	assert.Contains(t, p.View(), "BETA")

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Contains(t, p.View(), "No cancelled orders")
}

func TestPortfolioPartialFailure(t *testing.T) {
	p := panels.NewPortfolioPanel()
	p.SetSize(100, 30)
	profile := portfolio.Profile{Balance: decimal.NewFromInt(1250), TotalPortfolioValue: decimal.NewFromInt(1600)}
	p.SetSnapshot(portfolioservice.Snapshot{
		HoldingsErr: &api.Error{StatusCode: 500, Message: "database is down"},
		Profile:     &profile,
	})
	view := p.View()
	assert.Contains(t, view, "database is down")
	assert.Contains(t, view, "$1250.00")
	assert.Contains(t, view, "$1600.00")
}

func TestAdminPanelAddStockForm(t *testing.T) {
	p := panels.NewAdminPanel()
	p.SetFocus(true)
	p.SetDashboard(adminservice.Dashboard{MarketKnown: true, MarketActive: true})
	assert.Contains(t, p.View(), "OPEN")

	_, cmd := p.Update(runes("t"))
	require.NotNil(t, cmd)
	assert.Equal(t, panels.AdminToggleMarketMsg{}, cmd())

	p, _ = p.Update(runes("a"))
	require.True(t, p.Capturing())
	p, _ = p.Update(runes("acme"))
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p, _ = p.Update(runes("Acme Co"))
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p, _ = p.Update(runes("10.5"))
	_, cmd = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd().(panels.AdminAddStockMsg)
	assert.Equal(t, "acme", msg.Form.Symbol)
	assert.Equal(t, "Acme Co", msg.Form.Name)
	assert.Equal(t, "10.5", msg.Form.CurrentPrice)

	p.StockAdded()
	assert.False(t, p.Capturing())
}

func TestLoginPanelSubmits(t *testing.T) {
	p := panels.NewLoginPanel()
	p, _ = p.Update(runes("u@x.io"))
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p, _ = p.Update(runes("pw"))
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, panels.LoginSubmitMsg{Email: "u@x.io", Password: "pw"}, cmd())
}

func TestLoginPanelRegisterWithRole(t *testing.T) {
	p := panels.NewLoginPanel()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Contains(t, p.View(), "Create account")

	p, _ = p.Update(runes("a@x.io"))
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	p, _ = p.Update(runes("pw"))
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRight})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, panels.RegisterSubmitMsg{Email: "a@x.io", Password: "pw", Role: session.RoleAdmin}, cmd())
}

func TestLoginPanelRequiresCredentials(t *testing.T) {
	p := panels.NewLoginPanel()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, p.View(), "Email and password are required")
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "", panels.ErrorText(nil))
	assert.Equal(t, "Price is required", panels.ErrorText(&orderflow.ValidationError{Field: "price", Reason: "is required"}))
	assert.Equal(t, "Symbol is required", panels.ErrorText(&adminservice.FormError{Field: "symbol", Reason: "is required"}))
	assert.Equal(t, "Stock not found", panels.ErrorText(&api.Error{StatusCode: 404, Message: "Stock not found"}))
	assert.Equal(t, "Could not reach the server", panels.ErrorText(&api.TransportError{Err: errors.New("dial tcp")}))
}
