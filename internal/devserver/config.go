package devserver

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeedStock is an instrument listed when the server starts.
type SeedStock struct {
	Symbol      string
	Name        string
	Price       decimal.Decimal
	PriceChange decimal.Decimal
}

// Config holds configuration for the dev server.
type Config struct {
	// JWTSecret signs and verifies HS256 tokens.
	JWTSecret string
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
	// StartingBalance is the cash a newly registered user receives.
	StartingBalance decimal.Decimal
	// AdminAllotment is the quantity credited to the admin who lists a stock.
	AdminAllotment int64
	// MarketOpen is the initial market state.
	MarketOpen bool
	// Stocks is the initial instrument list.
	Stocks []SeedStock
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		JWTSecret:       "dev-secret-change-me",
		TokenTTL:        24 * time.Hour,
		StartingBalance: decimal.NewFromInt(10000),
		AdminAllotment:  1000,
		MarketOpen:      true,
		Stocks: []SeedStock{
			{Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("175.00"), PriceChange: decimal.RequireFromString("1.25")},
			{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: decimal.RequireFromString("140.00"), PriceChange: decimal.RequireFromString("-0.40")},
			{Symbol: "MSFT", Name: "Microsoft Corp.", Price: decimal.RequireFromString("375.00"), PriceChange: decimal.Zero},
			{Symbol: "AMZN", Name: "Amazon.com Inc.", Price: decimal.RequireFromString("178.00"), PriceChange: decimal.RequireFromString("0.85")},
			{Symbol: "TSLA", Name: "Tesla Inc.", Price: decimal.RequireFromString("250.00"), PriceChange: decimal.RequireFromString("-2.10")},
		},
	}
}
