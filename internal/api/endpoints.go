package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zappabad/stockdesk/internal/admin"
	"github.com/zappabad/stockdesk/internal/market"
	"github.com/zappabad/stockdesk/internal/news"
	"github.com/zappabad/stockdesk/internal/portfolio"
	"github.com/zappabad/stockdesk/internal/session"
)

// Ack is the body of endpoints that only confirm an action.
type Ack struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (session.LoginResponse, error) {
	var out session.LoginResponse
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &out)
	return out, err
}

// Register creates an account. The response body is ignored.
func (c *Client) Register(ctx context.Context, email, password string, role session.Role) error {
	body := map[string]string{"email": email, "password": password, "role": string(role)}
	return c.do(ctx, http.MethodPost, "/api/auth/register", nil, body, nil)
}

// ListStocks returns every instrument with its current quote.
func (c *Client) ListStocks(ctx context.Context) ([]market.Stock, error) {
	var out []market.Stock
	err := c.do(ctx, http.MethodGet, "/api/stocks", nil, nil, &out)
	return out, err
}

// ListCounterOrders returns outstanding orders of side for a stock.
func (c *Client) ListCounterOrders(ctx context.Context, stockID market.ID, side market.Side) ([]market.CounterOrder, error) {
	var out []market.CounterOrder
	q := url.Values{}
	q.Set("stock_id", stockID.String())
	q.Set("type", string(side))
	err := c.do(ctx, http.MethodGet, "/api/orders", q, nil, &out)
	return out, err
}

// PlaceOrder submits a new order.
func (c *Client) PlaceOrder(ctx context.Context, req market.OrderRequest) (market.PlacedOrder, error) {
	var out market.PlacedOrder
	err := c.do(ctx, http.MethodPost, "/api/orders", nil, req, &out)
	return out, err
}

// ListMyOrders returns the caller's own orders.
func (c *Client) ListMyOrders(ctx context.Context) ([]market.MyOrder, error) {
	var out []market.MyOrder
	err := c.do(ctx, http.MethodGet, "/api/orders", nil, nil, &out)
	return out, err
}

// Holdings returns the caller's positions.
func (c *Client) Holdings(ctx context.Context) ([]portfolio.Holding, error) {
	var out []portfolio.Holding
	err := c.do(ctx, http.MethodGet, "/api/portfolio/holdings", nil, nil, &out)
	return out, err
}

// Profile returns the caller's balance summary.
func (c *Client) Profile(ctx context.Context) (portfolio.Profile, error) {
	var out portfolio.Profile
	err := c.do(ctx, http.MethodGet, "/api/portfolio/profile", nil, nil, &out)
	return out, err
}

// MarketState returns whether the market accepts orders.
func (c *Client) MarketState(ctx context.Context) (admin.MarketState, error) {
	var out admin.MarketState
	err := c.do(ctx, http.MethodGet, "/api/market/state", nil, nil, &out)
	return out, err
}

// SetMarketActive opens or closes the market.
func (c *Client) SetMarketActive(ctx context.Context, active bool) (admin.MarketState, error) {
	var out admin.MarketState
	body := map[string]bool{"is_active": active}
	err := c.do(ctx, http.MethodPost, "/api/market/control", nil, body, &out)
	return out, err
}

// AddStock lists a new instrument.
func (c *Client) AddStock(ctx context.Context, s admin.StockListing) (Ack, error) {
	var out Ack
	err := c.do(ctx, http.MethodPost, "/api/admin/stocks/add", nil, s, &out)
	return out, err
}

// Leaderboard returns users ranked by total value.
func (c *Client) Leaderboard(ctx context.Context) ([]admin.LeaderboardEntry, error) {
	var out []admin.LeaderboardEntry
	err := c.do(ctx, http.MethodGet, "/api/leaderboard", nil, nil, &out)
	return out, err
}

// ListNews returns all announcements.
func (c *Client) ListNews(ctx context.Context) ([]news.NewsItem, error) {
	var out []news.NewsItem
	err := c.do(ctx, http.MethodGet, "/api/news", nil, nil, &out)
	return out, err
}

// CreateNews publishes an announcement.
func (c *Client) CreateNews(ctx context.Context, d news.Draft) (Ack, error) {
	var out Ack
	err := c.do(ctx, http.MethodPost, "/api/news", nil, d, &out)
	return out, err
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out)
}
