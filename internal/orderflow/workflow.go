// Package orderflow drives the buy/sell dialog: it loads the opposite side's
// outstanding orders, validates user input and submits the order.
package orderflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zappabad/stockdesk/internal/market"
)

var (
	ErrNoSelection = errors.New("orderflow: no instrument selected")
	ErrBusy        = errors.New("orderflow: submission already in flight")
)

// State is the dialog lifecycle.
type State int

const (
	Idle State = iota
	Selecting
	Composing
	Submitting
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Composing:
		return "composing"
	case Submitting:
		return "submitting"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Key is the selection a counter-order request was made for.
type Key struct {
	StockID market.ID
	Side    market.Side
}

// Ticket tags an asynchronous counter-order request. Gen changes on every
// Open and Close, so reopening the same stock and side also invalidates
// responses still in flight.
type Ticket struct {
	Key Key
	Gen uint64
}

// ValidationError rejects user input before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// OrderAPI is the server side of the dialog.
type OrderAPI interface {
	ListCounterOrders(ctx context.Context, stockID market.ID, side market.Side) ([]market.CounterOrder, error)
	PlaceOrder(ctx context.Context, req market.OrderRequest) (market.PlacedOrder, error)
}

// Refresher re-fetches the instrument list after a successful order.
type Refresher interface {
	List(ctx context.Context) ([]market.Stock, error)
}

// DialogState is a copy of everything the dialog renders.
type DialogState struct {
	State         State
	Stock         market.Stock
	Side          market.Side
	Quantity      string
	Price         string
	CounterOrders []market.CounterOrder
	LastError     error
}

// Workflow is safe to use from the UI loop and from the commands it spawns.
type Workflow struct {
	api     OrderAPI
	refresh Refresher
	log     *slog.Logger

	mu       sync.Mutex
	state    State
	stock    market.Stock
	side     market.Side
	quantity string
	price    string
	counters []market.CounterOrder
	lastErr  error
	gen      uint64
	ticket   Ticket
}

// New creates an idle Workflow.
func New(api OrderAPI, refresh Refresher, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{api: api, refresh: refresh, log: logger.With("component", "orderflow")}
}

// Open selects stock and side. Buy orders start at the current price; sell
// orders start blank. The returned ticket must accompany the counter-order
// response.
func (w *Workflow) Open(stock market.Stock, side market.Side) Ticket {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	w.state = Selecting
	w.stock = stock
	w.side = side
	w.quantity = ""
	w.price = ""
	if side == market.SideBuy {
		w.price = stock.CurrentPrice.StringFixed(2)
	}
	w.counters = nil
	w.lastErr = nil
	w.ticket = Ticket{Key: Key{StockID: stock.ID, Side: side}, Gen: w.gen}
	return w.ticket
}

// FetchCounterOrders loads the orders resting on the other side of t.
func (w *Workflow) FetchCounterOrders(ctx context.Context, t Ticket) ([]market.CounterOrder, error) {
	return w.api.ListCounterOrders(ctx, t.Key.StockID, t.Key.Side.Opposite())
}

// ApplyCounterOrders installs a counter-order response if t is still the
// current selection. A failed fetch leaves the list empty.
func (w *Workflow) ApplyCounterOrders(t Ticket, orders []market.CounterOrder, err error) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == Idle || t != w.ticket {
		w.log.Debug("discarding stale counter orders", "stock_id", t.Key.StockID, "side", t.Key.Side)
		return false
	}
	if err != nil {
		w.log.Warn("counter orders failed", "stock_id", t.Key.StockID, "err", err)
		w.counters = nil
	} else {
		w.counters = append([]market.CounterOrder(nil), orders...)
	}
	if w.state == Selecting {
		w.state = Composing
	}
	return true
}

// SetQuantity stores raw quantity input.
func (w *Workflow) SetQuantity(s string) {
	w.mu.Lock()
	w.quantity = s
	w.mu.Unlock()
}

// SetPrice stores raw price input.
func (w *Workflow) SetPrice(s string) {
	w.mu.Lock()
	w.price = s
	w.mu.Unlock()
}

// Prepare validates the current input and builds the request.
func (w *Workflow) Prepare() (market.OrderRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prepareLocked()
}

func (w *Workflow) prepareLocked() (market.OrderRequest, error) {
	if w.state == Idle {
		return market.OrderRequest{}, ErrNoSelection
	}
	qty, err := ParseQuantity(w.quantity)
	if err != nil {
		return market.OrderRequest{}, err
	}
	price, err := ParsePrice(w.price)
	if err != nil {
		return market.OrderRequest{}, err
	}
	return market.OrderRequest{
		StockID:  w.stock.ID,
		Side:     w.side,
		Quantity: qty,
		Price:    price,
	}, nil
}

// ParseQuantity accepts a positive whole number.
func ParseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "quantity", Reason: "is required"}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "quantity", Reason: "must be a whole number"}
	}
	if n <= 0 {
		return 0, &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	return n, nil
}

// ParsePrice accepts a positive decimal with at most two places.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "price", Reason: "is required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "price", Reason: "must be a number"}
	}
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Zero, &ValidationError{Field: "price", Reason: "must have at most two decimal places"}
	}
	return d, nil
}

// Submit validates and places the order. Invalid input returns a
// *ValidationError without touching the network. On success the instrument
// list is re-fetched exactly once; a failed refresh is logged only.
func (w *Workflow) Submit(ctx context.Context) (market.PlacedOrder, error) {
	w.mu.Lock()
	if w.state == Submitting {
		w.mu.Unlock()
		return market.PlacedOrder{}, ErrBusy
	}
	req, err := w.prepareLocked()
	if err != nil {
		w.lastErr = err
		w.mu.Unlock()
		return market.PlacedOrder{}, err
	}
	w.state = Submitting
	w.lastErr = nil
	gen := w.gen
	w.mu.Unlock()

	placed, err := w.api.PlaceOrder(ctx, req)

	w.mu.Lock()
	current := gen == w.gen
	if err != nil {
		if current {
			w.state = Composing
			w.lastErr = err
		}
		w.mu.Unlock()
		w.log.Warn("place order failed", "stock_id", req.StockID, "side", req.Side, "err", err)
		return market.PlacedOrder{}, err
	}
	if current {
		w.state = Settled
	}
	w.mu.Unlock()

	w.log.Info("order placed", "order_id", placed.OrderID, "stock_id", req.StockID,
		"side", req.Side, "quantity", req.Quantity, "price", req.Price.StringFixed(2))

	if _, err := w.refresh.List(ctx); err != nil {
		w.log.Warn("refresh after order failed", "err", err)
	}
	return placed, nil
}

// Close dismisses the dialog. Responses for the old selection are discarded.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.state = Idle
	w.stock = market.Stock{}
	w.side = ""
	w.quantity = ""
	w.price = ""
	w.counters = nil
	w.lastErr = nil
	w.ticket = Ticket{}
}

// Ticket identifies the open dialog. It is the zero Ticket when idle.
func (w *Workflow) Ticket() Ticket {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticket
}

// Snapshot returns a copy of the dialog state.
func (w *Workflow) Snapshot() DialogState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return DialogState{
		State:         w.state,
		Stock:         w.stock,
		Side:          w.side,
		Quantity:      w.quantity,
		Price:         w.price,
		CounterOrders: append([]market.CounterOrder(nil), w.counters...),
		LastError:     w.lastErr,
	}
}

// LastError returns the most recent validation or submission error.
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// State returns the current lifecycle state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}
