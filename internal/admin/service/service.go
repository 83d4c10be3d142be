package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zappabad/stockdesk/internal/admin"
	"github.com/zappabad/stockdesk/internal/api"
)

const (
	msgMarketStateFailed = "Failed to fetch market state"
	msgLeaderboardFailed = "Failed to fetch leaderboard"
	msgControlFailed     = "Failed to update market state"
	msgAddStockFailed    = "Failed to add stock"
	msgMarketStarted     = "Market started successfully"
	msgMarketStopped     = "Market stopped successfully"
	msgStockAdded        = "Stock added successfully"
)

// AdminAPI is the admin-only part of the server contract.
type AdminAPI interface {
	MarketState(ctx context.Context) (admin.MarketState, error)
	SetMarketActive(ctx context.Context, active bool) (admin.MarketState, error)
	AddStock(ctx context.Context, s admin.StockListing) (api.Ack, error)
	Leaderboard(ctx context.Context) ([]admin.LeaderboardEntry, error)
}

// FormError rejects the stock form before it is sent.
type FormError struct {
	Field  string
	Reason string
}

func (e *FormError) Error() string { return e.Field + " " + e.Reason }

// Dashboard is what the admin panel renders.
type Dashboard struct {
	MarketActive bool
	MarketKnown  bool
	Leaderboard  []admin.LeaderboardEntry
	Success      string
	Error        string
}

// AdminService holds the admin dashboard state.
type AdminService struct {
	api AdminAPI
	log *slog.Logger

	mu   sync.Mutex
	dash Dashboard
}

// NewAdminService creates an AdminService.
func NewAdminService(a AdminAPI, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{api: a, log: logger.With("component", "admin")}
}

// Load fetches market state and leaderboard. The first failure becomes the
// dashboard error; whatever succeeded is still shown.
func (s *AdminService) Load(ctx context.Context) error {
	state, stateErr := s.api.MarketState(ctx)
	board, boardErr := s.api.Leaderboard(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dash.Error = ""
	if stateErr == nil {
		s.dash.MarketActive = state.IsActive
		s.dash.MarketKnown = true
	}
	if boardErr == nil {
		s.dash.Leaderboard = append([]admin.LeaderboardEntry(nil), board...)
	}

	switch {
	case stateErr != nil:
		s.log.Warn("market state failed", "err", stateErr)
		s.dash.Error = api.Message(stateErr, msgMarketStateFailed)
		return stateErr
	case boardErr != nil:
		s.log.Warn("leaderboard failed", "err", boardErr)
		s.dash.Error = api.Message(boardErr, msgLeaderboardFailed)
		return boardErr
	}
	return nil
}

// ToggleMarket flips the displayed market state.
func (s *AdminService) ToggleMarket(ctx context.Context) error {
	s.mu.Lock()
	next := !s.dash.MarketActive
	s.mu.Unlock()
	return s.SetMarketActive(ctx, next)
}

// SetMarketActive opens or closes the market. On failure the displayed state
// is left alone.
func (s *AdminService) SetMarketActive(ctx context.Context, active bool) error {
	state, err := s.api.SetMarketActive(ctx, active)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn("market control failed", "active", active, "err", err)
		s.dash.Success = ""
		s.dash.Error = api.Message(err, msgControlFailed)
		return err
	}
	s.dash.MarketActive = state.IsActive
	s.dash.MarketKnown = true
	s.dash.Error = ""
	s.dash.Success = msgMarketStopped
	if state.IsActive {
		s.dash.Success = msgMarketStarted
	}
	s.log.Info("market state changed", "active", state.IsActive)
	return nil
}

// ValidateStock checks the form and converts the price.
func ValidateStock(f admin.NewStock) (admin.StockListing, error) {
	symbol := strings.ToUpper(strings.TrimSpace(f.Symbol))
	name := strings.TrimSpace(f.Name)
	if symbol == "" {
		return admin.StockListing{}, &FormError{Field: "symbol", Reason: "is required"}
	}
	if name == "" {
		return admin.StockListing{}, &FormError{Field: "name", Reason: "is required"}
	}
	raw := strings.TrimSpace(f.CurrentPrice)
	if raw == "" {
		return admin.StockListing{}, &FormError{Field: "price", Reason: "is required"}
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return admin.StockListing{}, &FormError{Field: "price", Reason: "must be a number"}
	}
	if !price.IsPositive() {
		return admin.StockListing{}, &FormError{Field: "price", Reason: "must be greater than zero"}
	}
	return admin.StockListing{Symbol: symbol, Name: name, CurrentPrice: price}, nil
}

// AddStock validates and lists a new instrument.
func (s *AdminService) AddStock(ctx context.Context, f admin.NewStock) error {
	listing, err := ValidateStock(f)
	if err != nil {
		s.setError(err.Error())
		return err
	}

	ack, err := s.api.AddStock(ctx, listing)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn("add stock failed", "symbol", listing.Symbol, "err", err)
		s.dash.Success = ""
		s.dash.Error = api.Message(err, msgAddStockFailed)
		return err
	}
	s.dash.Error = ""
	s.dash.Success = msgStockAdded
	if ack.Message != "" {
		s.dash.Success = ack.Message
	}
	s.log.Info("stock added", "symbol", listing.Symbol)
	return nil
}

// Dashboard returns a copy of the state.
func (s *AdminService) Dashboard() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dash
	d.Leaderboard = append([]admin.LeaderboardEntry(nil), s.dash.Leaderboard...)
	return d
}

func (s *AdminService) setError(msg string) {
	s.mu.Lock()
	s.dash.Success = ""
	s.dash.Error = msg
	s.mu.Unlock()
}
