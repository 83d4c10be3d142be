package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zappabad/stockdesk/internal/portfolio"
)

// PortfolioAPI fetches the two independent halves of the portfolio page.
type PortfolioAPI interface {
	Holdings(ctx context.Context) ([]portfolio.Holding, error)
	Profile(ctx context.Context) (portfolio.Profile, error)
}

// Snapshot is whatever arrived; either part may be missing.
type Snapshot struct {
	Holdings    []portfolio.Holding
	HoldingsErr error
	Profile     *portfolio.Profile
	ProfileErr  error
}

// PortfolioService fetches holdings and the balance profile.
type PortfolioService struct {
	api PortfolioAPI
	log *slog.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(api PortfolioAPI, logger *slog.Logger) *PortfolioService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortfolioService{api: api, log: logger.With("component", "portfolio")}
}

// Holdings fetches positions.
func (s *PortfolioService) Holdings(ctx context.Context) ([]portfolio.Holding, error) {
	h, err := s.api.Holdings(ctx)
	if err != nil {
		s.log.Warn("holdings failed", "err", err)
	}
	return h, err
}

// Profile fetches the balance summary.
func (s *PortfolioService) Profile(ctx context.Context) (portfolio.Profile, error) {
	p, err := s.api.Profile(ctx)
	if err != nil {
		s.log.Warn("profile failed", "err", err)
	}
	return p, err
}

// Fetch runs both requests concurrently. One failing does not hide the other.
func (s *PortfolioService) Fetch(ctx context.Context) Snapshot {
	var (
		snap Snapshot
		wg   sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		snap.Holdings, snap.HoldingsErr = s.Holdings(ctx)
	}()
	go func() {
		defer wg.Done()
		p, err := s.Profile(ctx)
		if err != nil {
			snap.ProfileErr = err
			return
		}
		snap.Profile = &p
	}()
	wg.Wait()
	return snap
}
