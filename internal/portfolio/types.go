package portfolio

import (
	"github.com/shopspring/decimal"
	"github.com/zappabad/stockdesk/internal/market"
)

// Holding is a read-only projection of one position. TotalValue comes from
// the server and is never recomputed here.
type Holding struct {
	StockID      market.ID       `json:"stock_id"`
	StockName    string          `json:"stock_name"`
	StockSymbol  string          `json:"stock_symbol"`
	Quantity     int64           `json:"quantity"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// Profile is the account summary.
type Profile struct {
	Balance             decimal.Decimal `json:"balance"`
	TotalPortfolioValue decimal.Decimal `json:"total_portfolio_value"`
}
