package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/stockdesk/internal/api"
	"github.com/zappabad/stockdesk/internal/app"
	"github.com/zappabad/stockdesk/internal/market"
	newsservice "github.com/zappabad/stockdesk/internal/news/service"
	"github.com/zappabad/stockdesk/internal/orderflow"
	"github.com/zappabad/stockdesk/internal/session"
	"github.com/zappabad/stockdesk/tui/panels"
	"github.com/zappabad/stockdesk/tui/styles"
)

const (
	msgSessionExpired = "Your session has expired. Please sign in again."
	msgSignedOut      = "Signed out"
	msgRegistered     = "Account created. Please sign in."
	msgNewsPublished  = "News created successfully"
)

// Screen is the top-level mode of the client.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenMain
)

// Model is the main TUI application model.
type Model struct {
	app           *app.App
	sessionEvents <-chan session.Event

	// Panels
	loginPanel     *panels.LoginPanel
	marketPanel    *panels.MarketPanel
	portfolioPanel *panels.PortfolioPanel
	ordersPanel    *panels.OrdersPanel
	newsPanel      *panels.NewsPanel
	adminPanel     *panels.AdminPanel
	orderDialog    *panels.OrderDialog

	screen Screen
	page   panels.Page
	user   session.User

	// Window dimensions
	width  int
	height int

	// Status
	statusMsg string
	ready     bool
}

// NewModel creates the root model. The session starts on the login screen
// until a stored session is restored or the user signs in.
func NewModel(a *app.App) *Model {
	return &Model{
		app:            a,
		sessionEvents:  a.Session.Subscribe(),
		loginPanel:     panels.NewLoginPanel(),
		marketPanel:    panels.NewMarketPanel(),
		portfolioPanel: panels.NewPortfolioPanel(),
		ordersPanel:    panels.NewOrdersPanel(),
		newsPanel:      panels.NewNewsPanel(),
		adminPanel:     panels.NewAdminPanel(),
		orderDialog:    panels.NewOrderDialog(),
		screen:         ScreenLogin,
		page:           panels.PageMarket,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loginPanel.Init(),
		m.marketPanel.Init(),
		m.portfolioPanel.Init(),
		m.ordersPanel.Init(),
		m.newsPanel.Init(),
		m.adminPanel.Init(),
		m.orderDialog.Init(),
		m.restoreSession(),
		m.listenSessionEvents(),
		m.listenNewsEvents(),
		m.tickRefresh(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case sessionEventMsg:
		cmds = append(cmds, m.applySession(msg.event.Session, msgSignedOut), m.listenSessionEvents())

	case newsEventMsg:
		m.newsPanel.SetNews(msg.event.Items)
		cmds = append(cmds, m.listenNewsEvents())

	case loggedOutMsg:
		cmds = append(cmds, m.applySession(nil, msgSignedOut))

	case loginResultMsg:
		if msg.err != nil {
			m.loginPanel.SetError(loginErrorText(msg.err))
			break
		}
		cmds = append(cmds, m.applySession(&msg.sess, ""))

	case registerResultMsg:
		if msg.err != nil {
			m.loginPanel.SetError(loginErrorText(msg.err))
			break
		}
		m.loginPanel.Registered(msgRegistered)

	case panels.LoginSubmitMsg:
		cmds = append(cmds, m.login(msg.Email, msg.Password))

	case panels.RegisterSubmitMsg:
		cmds = append(cmds, m.register(msg.Email, msg.Password, msg.Role))

	case stocksMsg:
		if m.unauthorized(msg.err) {
			break
		}
		if msg.err != nil {
			m.statusMsg = "Failed to load stocks: " + panels.ErrorText(msg.err)
		}
		m.marketPanel.SetStocks(m.app.Market.Stocks())

	case holdingsMsg:
		if m.unauthorized(msg.err) {
			break
		}
		m.portfolioPanel.SetHoldings(msg.holdings, msg.err)

	case profileMsg:
		if m.unauthorized(msg.err) {
			break
		}
		m.portfolioPanel.SetProfile(msg.profile, msg.err)

	case myOrdersMsg:
		if m.unauthorized(msg.err) {
			break
		}
		if msg.err != nil {
			m.ordersPanel.SetError(panels.ErrorText(msg.err))
			break
		}
		m.ordersPanel.SetOrders(msg.orders)

	case newsFetchedMsg:
		if m.unauthorized(msg.err) {
			break
		}
		if msg.err != nil {
			m.newsPanel.SetError(panels.ErrorText(msg.err))
		}

	case newsPublishedMsg:
		if m.unauthorized(msg.err) {
			break
		}
		switch {
		case errors.Is(msg.err, newsservice.ErrEmptyDraft):
			m.newsPanel.SetError("Title and content are required")
		case msg.err != nil:
			m.newsPanel.SetError(panels.ErrorText(msg.err))
		default:
			m.newsPanel.Published(msgNewsPublished)
			m.newsPanel.SetNews(m.app.News.Latest(newsservice.DefaultConfig().TapeSize))
		}

	case adminMsg:
		if m.unauthorized(msg.err) {
			break
		}
		m.adminPanel.SetDashboard(m.app.Admin.Dashboard())
		if msg.stockAdded && msg.err == nil {
			m.adminPanel.StockAdded()
			cmds = append(cmds, m.fetchStocks())
		}

	case panels.OpenOrderMsg:
		cmds = append(cmds, m.openOrder(msg.Stock, msg.Side))

	case counterOrdersMsg:
		if m.unauthorized(msg.err) {
			break
		}
		if m.app.Workflow.ApplyCounterOrders(msg.ticket, msg.orders, msg.err) {
			m.orderDialog.SetState(m.app.Workflow.Snapshot())
		}

	case panels.OrderConfirmMsg:
		cmds = append(cmds, m.confirmOrder(msg))

	case panels.OrderCancelMsg:
		m.app.Workflow.Close()
		m.orderDialog.Close()

	case orderSubmittedMsg:
		m.handleOrderResult(msg)

	case panels.NewsPublishMsg:
		cmds = append(cmds, m.publishNews(msg))

	case panels.AdminToggleMarketMsg:
		cmds = append(cmds, m.toggleMarket())

	case panels.AdminAddStockMsg:
		cmds = append(cmds, m.addStock(msg))

	case tickMsg:
		if m.screen == ScreenMain && m.page == panels.PageMarket && !m.orderDialog.Visible() {
			cmds = append(cmds, m.fetchStocks())
		}
		cmds = append(cmds, m.tickRefresh())
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

// handleKey processes global keys. It reports true when the key must not
// reach a panel.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true
	}
	if m.screen == ScreenLogin || m.orderDialog.Visible() {
		return nil, false
	}
	if m.capturing() {
		return nil, false
	}

	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "ctrl+l":
		return m.logout(), true
	case "r":
		return m.refreshPage(), true
	case "tab":
		return m.cyclePage(1), true
	case "shift+tab":
		return m.cyclePage(-1), true
	}
	for _, e := range panels.NavEntries(m.user.Role) {
		if msg.String() == e.Key {
			return m.setPage(e.Page), true
		}
	}
	return nil, false
}

func (m *Model) capturing() bool {
	switch m.page {
	case panels.PageNews:
		return m.newsPanel.Capturing()
	case panels.PageAdmin:
		return m.adminPanel.Capturing()
	}
	return false
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		return
	}

	var cmd tea.Cmd

	switch {
	case m.screen == ScreenLogin:
		m.loginPanel, cmd = m.loginPanel.Update(msg)
	case m.orderDialog.Visible():
		m.orderDialog, cmd = m.orderDialog.Update(msg)
	default:
		switch m.page {
		case panels.PageMarket:
			m.marketPanel, cmd = m.marketPanel.Update(msg)
		case panels.PagePortfolio:
			m.portfolioPanel, cmd = m.portfolioPanel.Update(msg)
		case panels.PageOrders:
			m.ordersPanel, cmd = m.ordersPanel.Update(msg)
		case panels.PageNews:
			m.newsPanel, cmd = m.newsPanel.Update(msg)
		case panels.PageAdmin:
			m.adminPanel, cmd = m.adminPanel.Update(msg)
		}
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	bodyHeight := m.height - 2
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	if m.screen == ScreenLogin {
		m.loginPanel.SetSize(m.width, bodyHeight+1)
		return lipgloss.JoinVertical(lipgloss.Left, m.loginPanel.View(), m.renderStatusBar())
	}

	nav := panels.RenderNav(panels.NavEntries(m.user.Role), m.page)

	var body string
	if m.orderDialog.Visible() {
		m.orderDialog.SetSize(m.width, bodyHeight)
		body = m.orderDialog.View()
	} else {
		body = m.renderPage(m.width, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, nav, body, m.renderStatusBar())
}

func (m *Model) renderPage(width, height int) string {
	m.marketPanel.SetFocus(m.page == panels.PageMarket)
	m.portfolioPanel.SetFocus(m.page == panels.PagePortfolio)
	m.ordersPanel.SetFocus(m.page == panels.PageOrders)
	m.newsPanel.SetFocus(m.page == panels.PageNews)
	m.adminPanel.SetFocus(m.page == panels.PageAdmin)

	switch m.page {
	case panels.PagePortfolio:
		m.portfolioPanel.SetSize(width, height)
		return m.portfolioPanel.View()
	case panels.PageOrders:
		m.ordersPanel.SetSize(width, height)
		return m.ordersPanel.View()
	case panels.PageNews:
		m.newsPanel.SetSize(width, height)
		return m.newsPanel.View()
	case panels.PageAdmin:
		m.adminPanel.SetSize(width, height)
		return m.adminPanel.View()
	default:
		m.marketPanel.SetSize(width, height)
		return m.marketPanel.View()
	}
}

func (m *Model) renderStatusBar() string {
	var help []string
	if m.screen == ScreenLogin {
		help = []string{
			styles.StatusBarKeyStyle.Render("Tab") + styles.StatusBarDescStyle.Render(" next field"),
			styles.StatusBarKeyStyle.Render("Enter") + styles.StatusBarDescStyle.Render(" submit"),
		}
	} else {
		help = []string{
			styles.StatusBarKeyStyle.Render("Tab/F-keys") + styles.StatusBarDescStyle.Render(" pages"),
			styles.StatusBarKeyStyle.Render("b/s") + styles.StatusBarDescStyle.Render(" trade"),
			styles.StatusBarKeyStyle.Render("r") + styles.StatusBarDescStyle.Render(" refresh"),
			styles.StatusBarKeyStyle.Render("^L") + styles.StatusBarDescStyle.Render(" logout"),
			styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit"),
		}
	}

	line := ""
	for i, h := range help {
		if i > 0 {
			line += " │ "
		}
		line += h
	}

	if m.screen == ScreenMain {
		who := fmt.Sprintf("%s (%s)", m.user.Email, m.user.Role)
		if exp, ok := m.app.Session.ExpiresAt(); ok {
			who += " until " + exp.Local().Format("Jan 2 15:04")
		}
		line += " │ " + who
	}
	if m.statusMsg != "" {
		line += " │ " + m.statusMsg
	}

	return styles.StatusBarStyle.Width(m.width).Render(line)
}

// applySession switches screens to match sess. Repeating the current state
// is a no-op, so direct results and session events can both call it.
func (m *Model) applySession(sess *session.Session, reason string) tea.Cmd {
	if sess == nil {
		if m.screen == ScreenLogin {
			return nil
		}
		m.screen = ScreenLogin
		m.user = session.User{}
		m.page = panels.PageMarket
		m.statusMsg = ""
		m.app.Workflow.Close()
		m.orderDialog.Close()
		m.newsPanel.SetAdmin(false)
		m.loginPanel.Reset(reason)
		return nil
	}

	if m.screen == ScreenMain && m.user.ID == sess.User.ID {
		return nil
	}
	m.screen = ScreenMain
	m.user = sess.User
	m.page = panels.PageMarket
	m.statusMsg = ""
	m.newsPanel.SetAdmin(sess.IsAdmin())
	return tea.Batch(m.fetchStocks(), m.fetchNews())
}

// unauthorized sends the user back to sign in when the server rejected the
// credential. It reports whether err was such a rejection.
func (m *Model) unauthorized(err error) bool {
	if !api.IsUnauthorized(err) || m.screen != ScreenMain {
		return false
	}
	m.app.Session.Invalidate(context.Background())
	m.applySession(nil, msgSessionExpired)
	return true
}

func (m *Model) setPage(page panels.Page) tea.Cmd {
	if page == m.page {
		return nil
	}
	m.page = page
	return m.refreshPage()
}

func (m *Model) cyclePage(step int) tea.Cmd {
	entries := panels.NavEntries(m.user.Role)
	idx := 0
	for i, e := range entries {
		if e.Page == m.page {
			idx = i
		}
	}
	idx = (idx + step + len(entries)) % len(entries)
	return m.setPage(entries[idx].Page)
}

// refreshPage re-fetches what the current page shows.
func (m *Model) refreshPage() tea.Cmd {
	switch m.page {
	case panels.PagePortfolio:
		return m.fetchPortfolio()
	case panels.PageOrders:
		return m.fetchMyOrders()
	case panels.PageNews:
		return m.fetchNews()
	case panels.PageAdmin:
		return m.fetchAdmin()
	default:
		return m.fetchStocks()
	}
}

func (m *Model) openOrder(stock market.Stock, side market.Side) tea.Cmd {
	ticket := m.app.Workflow.Open(stock, side)
	m.orderDialog.Open(m.app.Workflow.Snapshot())
	return m.fetchCounterOrders(ticket)
}

// confirmOrder validates locally first; invalid input never leaves the client.
func (m *Model) confirmOrder(msg panels.OrderConfirmMsg) tea.Cmd {
	wf := m.app.Workflow
	wf.SetQuantity(msg.Quantity)
	wf.SetPrice(msg.Price)

	st := wf.Snapshot()
	if _, err := wf.Prepare(); err != nil {
		st.LastError = err
		m.orderDialog.SetState(st)
		return nil
	}
	st.State = orderflow.Submitting
	st.LastError = nil
	m.orderDialog.SetState(st)
	return m.submitOrder()
}

func (m *Model) handleOrderResult(msg orderSubmittedMsg) {
	if m.unauthorized(msg.err) {
		return
	}
	if errors.Is(msg.err, orderflow.ErrBusy) {
		return
	}
	// the dialog that sent the order may have been dismissed or replaced
	current := msg.ticket == m.app.Workflow.Ticket()
	if msg.err != nil {
		if current {
			m.orderDialog.SetState(m.app.Workflow.Snapshot())
		} else {
			m.statusMsg = panels.ErrorText(msg.err)
		}
		return
	}
	if current {
		m.app.Workflow.Close()
		m.orderDialog.Close()
	}
	m.statusMsg = msg.placed.Message
	if m.statusMsg == "" {
		m.statusMsg = "Order placed"
	}
	// the workflow already re-fetched the list
	m.marketPanel.SetStocks(m.app.Market.Stocks())
}

func (m *Model) restoreSession() tea.Cmd {
	return func() tea.Msg {
		sess, ok := m.app.Session.Restore(context.Background())
		if !ok {
			return nil
		}
		return loginResultMsg{sess: sess}
	}
}

func (m *Model) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.app.Session.Login(context.Background(), email, password)
		return loginResultMsg{sess: sess, err: err}
	}
}

func (m *Model) register(email, password string, role session.Role) tea.Cmd {
	return func() tea.Msg {
		err := m.app.Session.Register(context.Background(), email, password, role)
		return registerResultMsg{err: err}
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		m.app.Session.Logout(context.Background())
		return loggedOutMsg{}
	}
}

func (m *Model) fetchStocks() tea.Cmd {
	return func() tea.Msg {
		_, err := m.app.Market.List(context.Background())
		return stocksMsg{err: err}
	}
}

// fetchPortfolio issues the two halves independently so one can render
// while the other is still loading or has failed.
func (m *Model) fetchPortfolio() tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			h, err := m.app.Portfolio.Holdings(context.Background())
			return holdingsMsg{holdings: h, err: err}
		},
		func() tea.Msg {
			p, err := m.app.Portfolio.Profile(context.Background())
			return profileMsg{profile: p, err: err}
		},
	)
}

func (m *Model) fetchMyOrders() tea.Cmd {
	return func() tea.Msg {
		orders, err := m.app.Orders.Fetch(context.Background())
		return myOrdersMsg{orders: orders, err: err}
	}
}

func (m *Model) fetchNews() tea.Cmd {
	return func() tea.Msg {
		_, err := m.app.News.List(context.Background())
		return newsFetchedMsg{err: err}
	}
}

func (m *Model) fetchAdmin() tea.Cmd {
	return func() tea.Msg {
		return adminMsg{err: m.app.Admin.Load(context.Background())}
	}
}

func (m *Model) fetchCounterOrders(ticket orderflow.Ticket) tea.Cmd {
	return func() tea.Msg {
		orders, err := m.app.Workflow.FetchCounterOrders(context.Background(), ticket)
		return counterOrdersMsg{ticket: ticket, orders: orders, err: err}
	}
}

func (m *Model) submitOrder() tea.Cmd {
	ticket := m.app.Workflow.Ticket()
	return func() tea.Msg {
		placed, err := m.app.Workflow.Submit(context.Background())
		return orderSubmittedMsg{ticket: ticket, placed: placed, err: err}
	}
}

func (m *Model) publishNews(msg panels.NewsPublishMsg) tea.Cmd {
	return func() tea.Msg {
		return newsPublishedMsg{err: m.app.News.Publish(context.Background(), msg.Draft)}
	}
}

func (m *Model) toggleMarket() tea.Cmd {
	return func() tea.Msg {
		return adminMsg{err: m.app.Admin.ToggleMarket(context.Background())}
	}
}

func (m *Model) addStock(msg panels.AdminAddStockMsg) tea.Cmd {
	return func() tea.Msg {
		return adminMsg{err: m.app.Admin.AddStock(context.Background(), msg.Form), stockAdded: true}
	}
}

func (m *Model) listenSessionEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.sessionEvents
		if !ok {
			return nil
		}
		return sessionEventMsg{event: ev}
	}
}

func (m *Model) listenNewsEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.app.News.Events()
		if !ok {
			return nil
		}
		return newsEventMsg{event: ev}
	}
}

// tickMsg is sent periodically to refresh the instrument list.
type tickMsg struct{}

func (m *Model) tickRefresh() tea.Cmd {
	interval := m.app.Config.UI.RefreshInterval
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loginErrorText maps authentication failures to what the form shows.
func loginErrorText(err error) string {
	if errors.Is(err, session.ErrInvalidRole) {
		return "Role must be admin or user"
	}
	return panels.ErrorText(err)
}

// Screen returns the current top-level mode.
func (m *Model) Screen() Screen {
	return m.screen
}

// Page returns the current page.
func (m *Model) Page() panels.Page {
	return m.page
}
