package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ID identifies a server-owned record. The server sends ids either as JSON
// strings or as JSON numbers; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("market: invalid id %s", string(b))
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the side a counter-order sits on.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Valid reports whether s is buy or sell.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Title returns "Buy" or "Sell".
func (s Side) Title() string {
	if s == SideSell {
		return "Sell"
	}
	return "Buy"
}

// OrderStatus is owned by the server; the client only reads it.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Statuses lists the statuses in tab order.
var Statuses = []OrderStatus{StatusPending, StatusCompleted, StatusCancelled}

// Stock is a tradable instrument. Identity is immutable; price fields are
// only ever replaced by a re-fetch.
type Stock struct {
	ID           ID              `json:"id"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	PriceChange  decimal.Decimal `json:"price_change"` // percent, signed
}

// CounterOrder is an outstanding order on the opposite side of the book.
type CounterOrder struct {
	ID       ID              `json:"id"`
	StockID  ID              `json:"stock_id"`
	Side     Side            `json:"type"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderRequest is the body of a new order.
type OrderRequest struct {
	StockID  ID
	Side     Side
	Quantity int64
	Price    decimal.Decimal
}

// MarshalJSON writes quantity and price as JSON numbers.
func (r OrderRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StockID  ID          `json:"stock_id"`
		Side     Side        `json:"type"`
		Quantity int64       `json:"quantity"`
		Price    json.Number `json:"price"`
	}{
		StockID:  r.StockID,
		Side:     r.Side,
		Quantity: r.Quantity,
		Price:    json.Number(r.Price.StringFixed(2)),
	})
}

// PlacedOrder is the acknowledgement of a new order.
type PlacedOrder struct {
	Message string `json:"message"`
	OrderID ID     `json:"order_id"`
}

// MyOrder is one of the caller's own orders.
type MyOrder struct {
	ID          ID              `json:"id"`
	StockSymbol string          `json:"stock_symbol"`
	Side        Side            `json:"type"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   Timestamp       `json:"created_at"`
}

// Timestamp decodes the server's ISO-8601 timestamps, with or without zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// UnmarshalJSON accepts RFC 3339 and naive ISO-8601 strings.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
			t.Time = time.Time{}
			return nil
		}
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("market: unrecognised timestamp %q", s)
}

// MarshalJSON writes RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Date renders the timestamp as a calendar date, or "-" when unknown.
func (t Timestamp) Date() string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}
