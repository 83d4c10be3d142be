package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zappabad/stockdesk/internal/market"
)

type fakeLister struct {
	stocks []market.Stock
	err    error
	calls  int
}

func (f *fakeLister) ListStocks(ctx context.Context) ([]market.Stock, error) {
	f.calls++
	return f.stocks, f.err
}

func TestMarketServiceList(t *testing.T) {
	api := &fakeLister{stocks: []market.Stock{
		{ID: "1", Name: "Acme", Symbol: "ACME", CurrentPrice: decimal.NewFromInt(10)},
		{ID: "2", Name: "Globex", Symbol: "GBX", CurrentPrice: decimal.RequireFromString("3.5")},
	}}
	svc := NewMarketService(api, DefaultConfig())

	stocks, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stocks) != 2 {
		t.Fatalf("expected 2 stocks, got %d", len(stocks))
	}

	st, err := svc.Lookup("2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Symbol != "GBX" {
		t.Errorf("expected GBX, got %s", st.Symbol)
	}

	// Unknown stock should error
	_, err = svc.Lookup("999")
	if !errors.Is(err, ErrUnknownStock) {
		t.Errorf("expected ErrUnknownStock, got %v", err)
	}
}

func TestMarketServiceKeepsSnapshotOnFailure(t *testing.T) {
	api := &fakeLister{stocks: []market.Stock{{ID: "1", Symbol: "ACME"}}}
	svc := NewMarketService(api, DefaultConfig())

	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := svc.Snapshot()

	api.stocks = nil
	api.err = errors.New("connection refused")
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	after := svc.Snapshot()
	if len(after.Stocks) != 1 || after.Stocks[0].Symbol != "ACME" {
		t.Errorf("snapshot changed on failure: %+v", after.Stocks)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("UpdatedAt moved on failure")
	}
	if api.calls != 2 {
		t.Errorf("expected 2 calls, got %d", api.calls)
	}
}

func TestMarketServiceSnapshotIsCopy(t *testing.T) {
	api := &fakeLister{stocks: []market.Stock{{ID: "1", Symbol: "ACME"}}}
	svc := NewMarketService(api, DefaultConfig())
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stocks := svc.Stocks()
	stocks[0].Symbol = "MUTATED"
	api.stocks[0].Symbol = "MUTATED"

	if got := svc.Stocks()[0].Symbol; got != "ACME" {
		t.Errorf("expected ACME, got %s", got)
	}
}
