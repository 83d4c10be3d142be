package view

import (
	"sync"
	"time"

	"github.com/zappabad/stockdesk/internal/market"
)

// MarketSnapshot is a point-in-time copy of the instrument list.
type MarketSnapshot struct {
	Stocks    []market.Stock
	UpdatedAt time.Time
}

// MarketView holds the last successfully fetched instrument list. A failed
// fetch never touches it.
type MarketView struct {
	mu        sync.RWMutex
	stocks    []market.Stock
	byID      map[market.ID]int
	updatedAt time.Time
}

// NewMarketView creates an empty MarketView.
func NewMarketView() *MarketView {
	return &MarketView{byID: make(map[market.ID]int)}
}

// Replace swaps in a new list wholesale; quotes are never patched in place.
func (v *MarketView) Replace(stocks []market.Stock, at time.Time) {
	cp := make([]market.Stock, len(stocks))
	copy(cp, stocks)
	byID := make(map[market.ID]int, len(cp))
	for i, s := range cp {
		byID[s.ID] = i
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.stocks = cp
	v.byID = byID
	v.updatedAt = at
}

// Snapshot returns a copy of the current state.
func (v *MarketView) Snapshot() MarketSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]market.Stock, len(v.stocks))
	copy(out, v.stocks)
	return MarketSnapshot{Stocks: out, UpdatedAt: v.updatedAt}
}

// Lookup returns the stock with id from the last snapshot.
func (v *MarketView) Lookup(id market.ID) (market.Stock, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	i, ok := v.byID[id]
	if !ok {
		return market.Stock{}, false
	}
	return v.stocks[i], true
}
