package devserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// num writes a decimal as a JSON number with two places.
func num(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.stocks))
	for _, st := range s.stocks {
		out = append(out, map[string]any{
			"id":            st.ID,
			"symbol":        st.Symbol,
			"name":          st.Name,
			"current_price": num(st.Price),
			"price_change":  num(st.PriceChange),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleOrders serves both the counter-order lookup (stock_id and type given)
// and the caller's own order history.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stockID, side := q.Get("stock_id"), q.Get("type")

	s.mu.Lock()
	defer s.mu.Unlock()

	if stockID != "" || side != "" {
		out := make([]map[string]any, 0)
		for _, o := range s.orders {
			if o.Status != "pending" || (stockID != "" && o.StockID != stockID) || (side != "" && o.Side != side) {
				continue
			}
			out = append(out, map[string]any{
				"id":       o.ID,
				"stock_id": o.StockID,
				"type":     o.Side,
				"quantity": o.Quantity,
				"price":    num(o.Price),
			})
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	claims := claimsFrom(r.Context())
	out := make([]map[string]any, 0)
	for _, o := range s.orders {
		if o.UserID != claims.UserID {
			continue
		}
		symbol := ""
		if st := s.stockLocked(o.StockID); st != nil {
			symbol = st.Symbol
		}
		out = append(out, map[string]any{
			"id":           o.ID,
			"stock_symbol": symbol,
			"type":         o.Side,
			"quantity":     o.Quantity,
			"price":        num(o.Price),
			"status":       o.Status,
			"created_at":   o.CreatedAt.Format("2006-01-02T15:04:05.999999"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StockID  json.RawMessage  `json:"stock_id"`
		Type     string           `json:"type"`
		Quantity *int64           `json:"quantity"`
		Price    *decimal.Decimal `json:"price"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.marketOpen {
		writeError(w, http.StatusForbidden, "Market is currently closed. Orders cannot be placed.")
		return
	}
	stockID := strings.Trim(string(body.StockID), `"`)
	if stockID == "" || body.Type == "" || body.Quantity == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if body.Type != "buy" && body.Type != "sell" {
		writeError(w, http.StatusBadRequest, "Invalid order type")
		return
	}
	if *body.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "Quantity must be positive")
		return
	}
	st := s.stockLocked(stockID)
	if st == nil {
		writeError(w, http.StatusNotFound, "Stock not found")
		return
	}

	price := st.Price
	if body.Price != nil && body.Price.IsPositive() {
		price = *body.Price
	}
	o := &order{
		ID:        uuid.NewString(),
		UserID:    claimsFrom(r.Context()).UserID,
		StockID:   st.ID,
		Side:      body.Type,
		Quantity:  *body.Quantity,
		Price:     price,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	s.orders = append(s.orders, o)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Order placed successfully",
		"order_id": o.ID,
	})
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByIDLocked(claimsFrom(r.Context()).UserID)
	out := make([]map[string]any, 0, len(u.Holdings))
	for _, st := range s.stocks {
		qty, ok := u.Holdings[st.ID]
		if !ok || qty == 0 {
			continue
		}
		out = append(out, map[string]any{
			"stock_id":      st.ID,
			"stock_name":    st.Name,
			"stock_symbol":  st.Symbol,
			"quantity":      qty,
			"current_price": num(st.Price),
			"total_value":   num(st.Price.Mul(decimal.NewFromInt(qty))),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByIDLocked(claimsFrom(r.Context()).UserID)
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":               num(u.Balance),
		"total_portfolio_value": num(s.accountValueLocked(u)),
	})
}

func (s *Server) handleMarketState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := s.marketOpen
	s.mu.Unlock()

	msg := "Market is currently inactive"
	if active {
		msg = "Market is currently active"
	}
	writeJSON(w, http.StatusOK, map[string]any{"is_active": active, "message": msg})
}

func (s *Server) handleMarketControl(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := decodeBody(r, &body); err != nil || body.IsActive == nil {
		writeError(w, http.StatusBadRequest, "Missing is_active field")
		return
	}

	s.mu.Lock()
	s.marketOpen = *body.IsActive
	s.mu.Unlock()

	verb := "stopped"
	if *body.IsActive {
		verb = "started"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Market " + verb + " successfully",
		"is_active": *body.IsActive,
	})
}

func (s *Server) handleAddStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symbol       string           `json:"symbol"`
		Name         string           `json:"name"`
		CurrentPrice *decimal.Decimal `json:"current_price"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}
	switch {
	case body.Symbol == "":
		writeError(w, http.StatusBadRequest, "Missing required field: symbol")
		return
	case body.Name == "":
		writeError(w, http.StatusBadRequest, "Missing required field: name")
		return
	case body.CurrentPrice == nil:
		writeError(w, http.StatusBadRequest, "Missing required field: current_price")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.stocks {
		if st.Symbol == strings.ToUpper(body.Symbol) {
			writeError(w, http.StatusBadRequest, "Stock symbol already exists")
			return
		}
	}
	st := s.addStockLocked(body.Symbol, body.Name, *body.CurrentPrice, decimal.Zero)
	if u := s.userByIDLocked(claimsFrom(r.Context()).UserID); u != nil {
		u.Holdings[st.ID] += s.cfg.AdminAllotment
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":          "Stock added successfully",
		"initial_quantity": s.cfg.AdminAllotment,
		"stock": map[string]any{
			"id":            st.ID,
			"symbol":        st.Symbol,
			"name":          st.Name,
			"current_price": num(st.Price),
		},
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.sortedUsersLocked()
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, map[string]any{
			"user_id":     u.ID,
			"email":       u.Email,
			"total_value": num(s.accountValueLocked(u)),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// newest first; items are appended in creation order
	out := make([]map[string]any, 0, len(s.news))
	for i := len(s.news) - 1; i >= 0; i-- {
		n := s.news[i]
		out = append(out, map[string]any{
			"id":         n.ID,
			"title":      n.Title,
			"content":    n.Content,
			"created_at": n.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateNews(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil || body.Title == "" || body.Content == "" {
		writeError(w, http.StatusBadRequest, "Title and content are required")
		return
	}

	s.mu.Lock()
	s.news = append(s.news, &newsItem{
		ID:        uuid.NewString(),
		Title:     body.Title,
		Content:   body.Content,
		CreatedAt: time.Now().UTC(),
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "News created successfully"})
}
