package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zappabad/stockdesk/internal/market"
	marketview "github.com/zappabad/stockdesk/internal/market/view"
)

var ErrUnknownStock = errors.New("unknown stock")

// StockLister fetches the full instrument list.
type StockLister interface {
	ListStocks(ctx context.Context) ([]market.Stock, error)
}

// MarketService fetches instruments and keeps the last good list.
type MarketService struct {
	cfg   Config
	api   StockLister
	mview *marketview.MarketView
	log   *slog.Logger
	now   func() time.Time
}

// NewMarketService creates a new MarketService.
func NewMarketService(api StockLister, cfg Config) *MarketService {
	if cfg.Logger == nil {
		cfg.Logger = DefaultConfig().Logger
	}
	return &MarketService{
		cfg:   cfg,
		api:   api,
		mview: marketview.NewMarketView(),
		log:   cfg.Logger.With("component", "market"),
		now:   time.Now,
	}
}

// List fetches every instrument in one request. On failure the previous list
// is kept and the error is logged and returned.
func (s *MarketService) List(ctx context.Context) ([]market.Stock, error) {
	stocks, err := s.api.ListStocks(ctx)
	if err != nil {
		s.log.Warn("list stocks failed", "err", err)
		return nil, err
	}
	s.mview.Replace(stocks, s.now())
	s.log.Debug("stocks refreshed", "count", len(stocks))
	return s.mview.Snapshot().Stocks, nil
}

// Stocks returns the last-known list.
func (s *MarketService) Stocks() []market.Stock {
	return s.mview.Snapshot().Stocks
}

// Snapshot returns the last-known list with its fetch time.
func (s *MarketService) Snapshot() marketview.MarketSnapshot {
	return s.mview.Snapshot()
}

// Lookup returns a stock from the last-known list.
func (s *MarketService) Lookup(id market.ID) (market.Stock, error) {
	st, ok := s.mview.Lookup(id)
	if !ok {
		return market.Stock{}, ErrUnknownStock
	}
	return st, nil
}
