package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zappabad/stockdesk/internal/market"
)

// OrderLister fetches the caller's own orders.
type OrderLister interface {
	ListMyOrders(ctx context.Context) ([]market.MyOrder, error)
}

// OrdersService keeps the last fetched order history. Switching status tabs
// reads from it and never goes to the network.
type OrdersService struct {
	api OrderLister
	log *slog.Logger

	mu     sync.RWMutex
	orders []market.MyOrder
}

// NewOrdersService creates an OrdersService.
func NewOrdersService(api OrderLister, logger *slog.Logger) *OrdersService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrdersService{api: api, log: logger.With("component", "orders")}
}

// Fetch reloads the history. The previous set survives a failure.
func (s *OrdersService) Fetch(ctx context.Context) ([]market.MyOrder, error) {
	orders, err := s.api.ListMyOrders(ctx)
	if err != nil {
		s.log.Warn("list orders failed", "err", err)
		return nil, err
	}
	s.mu.Lock()
	s.orders = append([]market.MyOrder(nil), orders...)
	s.mu.Unlock()
	return orders, nil
}

// Orders returns the last fetched history.
func (s *OrdersService) Orders() []market.MyOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]market.MyOrder(nil), s.orders...)
}

// ByStatus filters the last fetched history.
func (s *OrdersService) ByStatus(status market.OrderStatus) []market.MyOrder {
	return Partition(s.Orders())[status]
}

// Partition groups orders by status, keeping server order within each group.
// Every known status has an entry, possibly empty.
func Partition(orders []market.MyOrder) map[market.OrderStatus][]market.MyOrder {
	out := make(map[market.OrderStatus][]market.MyOrder, len(market.Statuses))
	for _, st := range market.Statuses {
		out[st] = []market.MyOrder{}
	}
	for _, o := range orders {
		out[o.Status] = append(out[o.Status], o)
	}
	return out
}
