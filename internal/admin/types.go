package admin

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/zappabad/stockdesk/internal/market"
)

// LeaderboardEntry ranks a user by total account value.
type LeaderboardEntry struct {
	UserID     market.ID       `json:"user_id"`
	Email      string          `json:"email"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// MarketState is the admin-controlled open/closed flag.
type MarketState struct {
	IsActive bool   `json:"is_active"`
	Message  string `json:"message,omitempty"`
}

// NewStock is the raw stock-creation form.
type NewStock struct {
	Symbol       string
	Name         string
	CurrentPrice string
}

// StockListing is a validated NewStock ready to send.
type StockListing struct {
	Symbol       string
	Name         string
	CurrentPrice decimal.Decimal
}

// MarshalJSON writes current_price as a JSON number.
func (s StockListing) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Symbol       string      `json:"symbol"`
		Name         string      `json:"name"`
		CurrentPrice json.Number `json:"current_price"`
	}{
		Symbol:       s.Symbol,
		Name:         s.Name,
		CurrentPrice: json.Number(s.CurrentPrice.String()),
	})
}
