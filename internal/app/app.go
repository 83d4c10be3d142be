// Package app wires the client subsystems together and owns their lifecycle.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	adminservice "github.com/zappabad/stockdesk/internal/admin/service"
	"github.com/zappabad/stockdesk/internal/api"
	"github.com/zappabad/stockdesk/internal/config"
	marketservice "github.com/zappabad/stockdesk/internal/market/service"
	newsservice "github.com/zappabad/stockdesk/internal/news/service"
	"github.com/zappabad/stockdesk/internal/orderflow"
	ordersservice "github.com/zappabad/stockdesk/internal/orders/service"
	portfolioservice "github.com/zappabad/stockdesk/internal/portfolio/service"
	"github.com/zappabad/stockdesk/internal/session"
	"github.com/zappabad/stockdesk/internal/session/storage"
)

// App owns every client subsystem.
type App struct {
	Config    config.Config
	API       *api.Client
	Session   *session.Store
	Market    *marketservice.MarketService
	Orders    *ordersservice.OrdersService
	Portfolio *portfolioservice.PortfolioService
	Admin     *adminservice.AdminService
	News      *newsservice.NewsService
	Workflow  *orderflow.Workflow

	storage   storage.Storage
	closeOnce sync.Once
}

// New opens session storage and builds the services on one shared API client.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	st, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("app: open storage: %w", err)
	}
	return NewWithStorage(cfg, st, logger), nil
}

// NewWithStorage builds an App on an already open storage backend.
func NewWithStorage(cfg config.Config, st storage.Storage, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	client := api.NewClient(cfg.API)

	a := &App{Config: cfg, API: client, storage: st}

	sessCfg := session.DefaultConfig()
	sessCfg.Logger = logger
	a.Session = session.NewStore(client, st, sessCfg)

	marketCfg := marketservice.DefaultConfig()
	marketCfg.Logger = logger
	a.Market = marketservice.NewMarketService(client, marketCfg)

	a.Orders = ordersservice.NewOrdersService(client, logger)
	a.Portfolio = portfolioservice.NewPortfolioService(client, logger)
	a.Admin = adminservice.NewAdminService(client, logger)

	newsCfg := newsservice.DefaultConfig()
	newsCfg.Logger = logger
	a.News = newsservice.NewNewsService(client, newsCfg)

	// the dialog refreshes the market list after each order
	a.Workflow = orderflow.New(client, a.Market, logger)

	logger.Info("client ready", "api", cfg.API.BaseURL, "storage", cfg.Storage.Backend)
	return a
}

// Close shuts down subsystems in reverse construction order.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.Workflow.Close()
		a.News.Close()
		a.Session.Close()
		err = a.storage.Close()
	})
	return err
}
