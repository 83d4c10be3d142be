package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/stockdesk/internal/app"
	"github.com/zappabad/stockdesk/internal/config"
	"github.com/zappabad/stockdesk/internal/devserver"
	"github.com/zappabad/stockdesk/internal/market"
	"github.com/zappabad/stockdesk/internal/orderflow"
	"github.com/zappabad/stockdesk/internal/session/storage"
	"github.com/zappabad/stockdesk/tui/panels"
)

var acme = market.Stock{ID: "1", Name: "Acme Co", Symbol: "ACME", CurrentPrice: decimal.NewFromInt(10)}

type fixture struct {
	dev  *devserver.Server
	cfg  config.Config
	path string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	devCfg := devserver.DefaultConfig()
	devCfg.Stocks = []devserver.SeedStock{{Symbol: "ACME", Name: "Acme Co", Price: decimal.NewFromInt(10)}}
	dev := devserver.New(devCfg)
	ts := httptest.NewServer(dev.Handler())
	t.Cleanup(ts.Close)

	_, err := dev.SeedUser("u@x.io", "pw", "user")
	require.NoError(t, err)
	_, err = dev.SeedUser("a@x.io", "pw", "admin")
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = ts.URL
	return &fixture{dev: dev, cfg: cfg, path: filepath.Join(t.TempDir(), "session.json")}
}

func (f *fixture) app(t *testing.T) *app.App {
	t.Helper()
	st, err := storage.NewFileStorage(f.path)
	require.NoError(t, err)
	a := app.NewWithStorage(f.cfg, st, nil)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// signedIn returns a sized model already on the main screen.
func (f *fixture) signedIn(t *testing.T, email string) (*Model, *app.App) {
	t.Helper()
	a := f.app(t)
	m := NewModel(a)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.Update(m.login(email, "pw")())
	require.Equal(t, ScreenMain, m.Screen())
	return m, a
}

func TestStartsOnLoginScreen(t *testing.T) {
	f := newFixture(t)
	m := NewModel(f.app(t))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Nil(t, m.restoreSession()())
	assert.Contains(t, m.View(), "Sign in")
}

func TestLoginFailureStaysOnLoginScreen(t *testing.T) {
	f := newFixture(t)
	m := NewModel(f.app(t))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.Update(m.login("u@x.io", "wrong")())
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "Invalid login credentials")
}

func TestUnauthorizedReturnsToLogin(t *testing.T) {
	f := newFixture(t)
	m, a := f.signedIn(t, "u@x.io")

	f.dev.FailNext(http.MethodGet, "/api/stocks", http.StatusUnauthorized, "Token is invalid")
	m.Update(m.fetchStocks()())

	assert.Equal(t, ScreenLogin, m.Screen())
	_, ok := a.Session.Current()
	assert.False(t, ok)
	assert.Empty(t, a.API.Bearer())
	assert.Contains(t, m.View(), "Your session has expired")
}

func TestForbiddenDoesNotSignOut(t *testing.T) {
	f := newFixture(t)
	m, _ := f.signedIn(t, "u@x.io")

	f.dev.FailNext(http.MethodGet, "/api/orders", http.StatusForbidden, "Admin access required")
	m.Update(m.fetchMyOrders()())
	assert.Equal(t, ScreenMain, m.Screen())
}

func TestAdminPageHiddenFromUsers(t *testing.T) {
	f := newFixture(t)
	m, _ := f.signedIn(t, "u@x.io")

	m.Update(tea.KeyMsg{Type: tea.KeyF5})
	assert.Equal(t, panels.PageMarket, m.Page())
	assert.NotContains(t, m.View(), "Admin")

	admin, _ := f.signedIn(t, "a@x.io")
	_, cmd := admin.Update(tea.KeyMsg{Type: tea.KeyF5})
	assert.Equal(t, panels.PageAdmin, admin.Page())
	assert.NotNil(t, cmd)
}

func TestTabCyclesPages(t *testing.T) {
	f := newFixture(t)
	m, _ := f.signedIn(t, "u@x.io")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, panels.PagePortfolio, m.Page())
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, panels.PageNews, m.Page())
}

func TestInvalidOrderNeverPosts(t *testing.T) {
	f := newFixture(t)
	m, _ := f.signedIn(t, "u@x.io")

	m.Update(panels.OpenOrderMsg{Stock: acme, Side: market.SideBuy})
	m.Update(panels.OrderConfirmMsg{Quantity: "0", Price: "10.00"})

	assert.Equal(t, 0, f.dev.CountRequests(http.MethodPost, "/api/orders"))
	assert.Contains(t, m.View(), "Quantity must be greater than zero")
}

func TestOrderSubmitClosesDialogAndRefreshes(t *testing.T) {
	f := newFixture(t)
	m, a := f.signedIn(t, "u@x.io")

	m.Update(panels.OpenOrderMsg{Stock: acme, Side: market.SideBuy})
	require.True(t, m.orderDialog.Visible())
	m.Update(panels.OrderConfirmMsg{Quantity: "2", Price: "10.00"})
	m.Update(m.submitOrder()())

	assert.False(t, m.orderDialog.Visible())
	assert.Equal(t, 1, f.dev.CountRequests(http.MethodPost, "/api/orders"))
	assert.Equal(t, 1, f.dev.CountRequests(http.MethodGet, "/api/stocks"))
	assert.Len(t, a.Market.Stocks(), 1)
	assert.Equal(t, "Order placed successfully", m.statusMsg)
}

func TestLateOrderResultKeepsNewDialog(t *testing.T) {
	f := newFixture(t)
	m, a := f.signedIn(t, "u@x.io")
	beta := market.Stock{ID: "2", Name: "Beta Inc", Symbol: "BETA", CurrentPrice: decimal.NewFromInt(4)}

	m.Update(panels.OpenOrderMsg{Stock: acme, Side: market.SideBuy})
	m.Update(panels.OrderConfirmMsg{Quantity: "2", Price: "10.00"})
	result := m.submitOrder()()

	m.Update(panels.OrderCancelMsg{})
	m.Update(panels.OpenOrderMsg{Stock: beta, Side: market.SideSell})
	m.Update(result)

	assert.True(t, m.orderDialog.Visible())
	snap := a.Workflow.Snapshot()
	assert.Equal(t, "BETA", snap.Stock.Symbol)
	assert.Equal(t, orderflow.Selecting, snap.State)
	assert.Equal(t, "Order placed successfully", m.statusMsg)
	assert.Equal(t, 1, f.dev.CountRequests(http.MethodPost, "/api/orders"))
}

func TestStaleCounterOrdersIgnored(t *testing.T) {
	f := newFixture(t)
	m, a := f.signedIn(t, "u@x.io")
	f.dev.SeedOrder("a@x.io", "1", "sell", 5, decimal.RequireFromString("12.50"))

	staleBuy := m.openOrder(acme, market.SideBuy)()
	fetchSell := m.openOrder(acme, market.SideSell)

	m.Update(staleBuy)
	assert.Equal(t, orderflow.Selecting, a.Workflow.State())
	assert.NotContains(t, m.View(), "12.50")

	m.Update(fetchSell())
	assert.Equal(t, orderflow.Composing, a.Workflow.State())

	// a response arriving after the dialog closed is dropped too
	late := m.openOrder(acme, market.SideBuy)
	m.Update(panels.OrderCancelMsg{})
	m.Update(late())
	assert.False(t, m.orderDialog.Visible())
	assert.Equal(t, orderflow.Idle, a.Workflow.State())
}

func TestRestoredSessionSkipsLogin(t *testing.T) {
	f := newFixture(t)
	_, _ = f.signedIn(t, "u@x.io")

	m := NewModel(f.app(t))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(m.restoreSession()())
	assert.Equal(t, ScreenMain, m.Screen())

	// the matching session event is a no-op
	m.Update(m.listenSessionEvents()())
	assert.Equal(t, ScreenMain, m.Screen())
	assert.Contains(t, m.View(), "u@x.io")
}

func TestLogoutKey(t *testing.T) {
	f := newFixture(t)
	m, a := f.signedIn(t, "u@x.io")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Equal(t, ScreenLogin, m.Screen())
	_, ok := a.Session.Restore(context.Background())
	assert.False(t, ok)
}
