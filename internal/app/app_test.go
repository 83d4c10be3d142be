package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/stockdesk/internal/config"
	"github.com/zappabad/stockdesk/internal/devserver"
)

func TestAppWiring(t *testing.T) {
	dev := devserver.New(devserver.DefaultConfig())
	ts := httptest.NewServer(dev.Handler())
	defer ts.Close()
	_, err := dev.SeedUser("a@x.io", "pw", "admin")
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = ts.URL
	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "session.db")

	a, err := New(cfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = a.Session.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)

	stocks, err := a.Market.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stocks, 5)
	require.NoError(t, a.Admin.Load(ctx))

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	// a fresh process restores from the same database
	b, err := New(cfg, nil)
	require.NoError(t, err)
	defer b.Close()
	sess, ok := b.Session.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, "a@x.io", sess.User.Email)
	assert.Equal(t, sess.Token, b.API.Bearer())
}
