package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/stockdesk/internal/portfolio"
)

type fakePortfolio struct {
	holdings    []portfolio.Holding
	holdingsErr error
	profile     portfolio.Profile
	profileErr  error
}

func (f *fakePortfolio) Holdings(ctx context.Context) ([]portfolio.Holding, error) {
	return f.holdings, f.holdingsErr
}

func (f *fakePortfolio) Profile(ctx context.Context) (portfolio.Profile, error) {
	return f.profile, f.profileErr
}

func TestFetchBoth(t *testing.T) {
	api := &fakePortfolio{
		holdings: []portfolio.Holding{{StockSymbol: "ACME", Quantity: 2, TotalValue: decimal.NewFromInt(20)}},
		profile:  portfolio.Profile{Balance: decimal.NewFromInt(100), TotalPortfolioValue: decimal.NewFromInt(120)},
	}
	snap := NewPortfolioService(api, nil).Fetch(context.Background())

	require.NoError(t, snap.HoldingsErr)
	require.NoError(t, snap.ProfileErr)
	require.Len(t, snap.Holdings, 1)
	require.NotNil(t, snap.Profile)
	assert.True(t, snap.Profile.TotalPortfolioValue.Equal(decimal.NewFromInt(120)))
}

func TestFetchPartial(t *testing.T) {
	api := &fakePortfolio{
		holdings:   []portfolio.Holding{{StockSymbol: "ACME"}},
		profileErr: errors.New("timeout"),
	}
	snap := NewPortfolioService(api, nil).Fetch(context.Background())

	assert.Len(t, snap.Holdings, 1)
	assert.NoError(t, snap.HoldingsErr)
	assert.Nil(t, snap.Profile)
	assert.Error(t, snap.ProfileErr)

	api = &fakePortfolio{holdingsErr: errors.New("timeout"), profile: portfolio.Profile{Balance: decimal.NewFromInt(5)}}
	snap = NewPortfolioService(api, nil).Fetch(context.Background())
	assert.Error(t, snap.HoldingsErr)
	require.NotNil(t, snap.Profile)
	assert.True(t, snap.Profile.Balance.Equal(decimal.NewFromInt(5)))
}
