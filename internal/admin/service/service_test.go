package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/stockdesk/internal/admin"
	"github.com/zappabad/stockdesk/internal/api"
	"github.com/zappabad/stockdesk/internal/config"
	"github.com/zappabad/stockdesk/internal/devserver"
)

func newAdmin(t *testing.T, role string) (*AdminService, *devserver.Server) {
	t.Helper()
	dev := devserver.New(devserver.DefaultConfig())
	ts := httptest.NewServer(dev.Handler())
	t.Cleanup(ts.Close)

	client := api.NewClient(config.APIConfig{BaseURL: ts.URL, Timeout: 5 * time.Second})
	_, err := dev.SeedUser("root@x.io", "pw", role)
	require.NoError(t, err)
	resp, err := client.Login(context.Background(), "root@x.io", "pw")
	require.NoError(t, err)
	client.SetBearer(resp.Token)
	return NewAdminService(client, nil), dev
}

func TestLoadAndToggle(t *testing.T) {
	svc, dev := newAdmin(t, "admin")
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx))
	d := svc.Dashboard()
	assert.True(t, d.MarketKnown)
	assert.True(t, d.MarketActive)
	require.Len(t, d.Leaderboard, 1)

	require.NoError(t, svc.ToggleMarket(ctx))
	d = svc.Dashboard()
	assert.False(t, d.MarketActive)
	assert.Equal(t, "Market stopped successfully", d.Success)
	assert.False(t, dev.MarketOpen())

	require.NoError(t, svc.ToggleMarket(ctx))
	assert.Equal(t, "Market started successfully", svc.Dashboard().Success)
}

func TestToggleFailureKeepsFlag(t *testing.T) {
	svc, dev := newAdmin(t, "admin")
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	dev.FailNext(http.MethodPost, "/api/market/control", http.StatusInternalServerError, "")
	require.Error(t, svc.ToggleMarket(ctx))

	d := svc.Dashboard()
	assert.True(t, d.MarketActive)
	assert.Equal(t, "Internal Server Error", d.Error)
	assert.Empty(t, d.Success)
}

func TestLoadForbiddenForUsers(t *testing.T) {
	svc, _ := newAdmin(t, "user")

	err := svc.Load(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsForbidden(err))
	assert.Equal(t, "Admin access required", svc.Dashboard().Error)
	assert.False(t, svc.Dashboard().MarketKnown)
}

func TestLeaderboardDefaultMessage(t *testing.T) {
	svc, dev := newAdmin(t, "admin")
	dev.FailNext(http.MethodGet, "/api/leaderboard", http.StatusBadGateway, "<html>oops</html>")

	require.Error(t, svc.Load(context.Background()))
	d := svc.Dashboard()
	assert.Equal(t, "Bad Gateway", d.Error)
	assert.True(t, d.MarketKnown)
}

func TestAddStock(t *testing.T) {
	svc, dev := newAdmin(t, "admin")
	ctx := context.Background()

	require.NoError(t, svc.AddStock(ctx, admin.NewStock{Symbol: " acme ", Name: "Acme Co", CurrentPrice: "10.5"}))
	assert.Equal(t, "Stock added successfully", svc.Dashboard().Success)

	var body string
	for _, r := range dev.Requests() {
		if r.Path == "/api/admin/stocks/add" {
			body = string(r.Body)
		}
	}
	assert.JSONEq(t, `{"symbol":"ACME","name":"Acme Co","current_price":10.5}`, body)

	err := svc.AddStock(ctx, admin.NewStock{Symbol: "ACME", Name: "Acme Co", CurrentPrice: "10"})
	require.Error(t, err)
	assert.Equal(t, "Stock symbol already exists", svc.Dashboard().Error)
}

func TestValidateStock(t *testing.T) {
	tests := []struct {
		form  admin.NewStock
		field string
	}{
		{admin.NewStock{Name: "n", CurrentPrice: "1"}, "symbol"},
		{admin.NewStock{Symbol: "s", CurrentPrice: "1"}, "name"},
		{admin.NewStock{Symbol: "s", Name: "n"}, "price"},
		{admin.NewStock{Symbol: "s", Name: "n", CurrentPrice: "abc"}, "price"},
		{admin.NewStock{Symbol: "s", Name: "n", CurrentPrice: "0"}, "price"},
	}
	for _, tt := range tests {
		_, err := ValidateStock(tt.form)
		var ferr *FormError
		require.True(t, errors.As(err, &ferr))
		assert.Equal(t, tt.field, ferr.Field)
	}
}
