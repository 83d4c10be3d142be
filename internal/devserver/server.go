// Package devserver is an in-memory stand-in for the trading server. It speaks
// the same HTTP contract as the real one but does not match orders: every
// order stays pending.
package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// RecordedRequest is one request seen by the server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Auth   string
}

type user struct {
	ID       string
	Email    string
	Hash     []byte
	Role     string
	Balance  decimal.Decimal
	Holdings map[string]int64
}

type stock struct {
	ID          string
	Symbol      string
	Name        string
	Price       decimal.Decimal
	PriceChange decimal.Decimal
}

type order struct {
	ID        string
	UserID    string
	StockID   string
	Side      string
	Quantity  int64
	Price     decimal.Decimal
	Status    string
	CreatedAt time.Time
}

type newsItem struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
}

type failure struct {
	status  int
	message string
}

// Server holds all state in memory behind one mutex.
type Server struct {
	cfg    Config
	router chi.Router

	mu         sync.Mutex
	users      map[string]*user // by email
	stocks     []*stock
	orders     []*order
	news       []*newsItem
	marketOpen bool
	nextStock  int
	requests   []RecordedRequest
	failures   map[string]failure
}

// New creates a Server seeded from cfg.
func New(cfg Config) *Server {
	def := DefaultConfig()
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = def.JWTSecret
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.AdminAllotment <= 0 {
		cfg.AdminAllotment = def.AdminAllotment
	}

	s := &Server{
		cfg:        cfg,
		users:      make(map[string]*user),
		marketOpen: cfg.MarketOpen,
		failures:   make(map[string]failure),
	}
	for _, seed := range cfg.Stocks {
		s.addStockLocked(seed.Symbol, seed.Name, seed.Price, seed.PriceChange)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/stocks", s.handleStocks)
			r.Get("/orders", s.handleOrders)
			r.Post("/orders", s.handlePlaceOrder)
			r.Get("/portfolio/holdings", s.handleHoldings)
			r.Get("/portfolio/profile", s.handleProfile)
			r.Get("/news", s.handleListNews)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth, requireAdmin)
			r.Get("/market/state", s.handleMarketState)
			r.Post("/market/control", s.handleMarketControl)
			r.Post("/admin/stocks/add", s.handleAddStock)
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Post("/news", s.handleCreateNews)
		})
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Requests returns every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountRequests counts requests matching method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// FailNext makes the next request to method+path fail with status and message.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	s.failures[method+" "+path] = failure{status: status, message: message}
	s.mu.Unlock()
}

// SeedUser registers a user directly and returns its id.
func (s *Server) SeedUser(email, password, role string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.createUserLocked(email, password, role)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// SeedOrder places a pending order on behalf of the user with email.
func (s *Server) SeedOrder(email, stockID, side string, quantity int64, price decimal.Decimal) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[strings.ToLower(email)]
	uid := ""
	if u != nil {
		uid = u.ID
	}
	o := &order{
		ID:        uuid.NewString(),
		UserID:    uid,
		StockID:   stockID,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	s.orders = append(s.orders, o)
	return o.ID
}

// SeedNews publishes an announcement without going through the API.
func (s *Server) SeedNews(title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.news = append(s.news, &newsItem{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

// SetOrderStatus moves an order to status, as the matching engine would.
func (s *Server) SetOrderStatus(orderID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == orderID {
			o.Status = status
		}
	}
}

// SetHolding credits quantity of stockID to the user with email.
func (s *Server) SetHolding(email, stockID string, quantity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.users[strings.ToLower(email)]; u != nil {
		u.Holdings[stockID] = quantity
	}
}

// SetPrice replaces a stock's quote, as the pricing engine would.
func (s *Server) SetPrice(stockID string, price, change decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.stockLocked(stockID); st != nil {
		st.Price = price
		st.PriceChange = change
	}
}

// MarketOpen reports the current market flag.
func (s *Server) MarketOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marketOpen
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
			Auth:   r.Header.Get("Authorization"),
		})
		key := r.Method + " " + r.URL.Path
		f, fail := s.failures[key]
		if fail {
			delete(s.failures, key)
		}
		s.mu.Unlock()

		if fail {
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createUserLocked(email, password, role string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u := &user{
		ID:       uuid.NewString(),
		Email:    email,
		Hash:     hash,
		Role:     role,
		Balance:  s.cfg.StartingBalance,
		Holdings: make(map[string]int64),
	}
	s.users[strings.ToLower(email)] = u
	return u, nil
}

func (s *Server) addStockLocked(symbol, name string, price, change decimal.Decimal) *stock {
	s.nextStock++
	st := &stock{
		ID:          strconv.Itoa(s.nextStock),
		Symbol:      strings.ToUpper(symbol),
		Name:        name,
		Price:       price,
		PriceChange: change,
	}
	s.stocks = append(s.stocks, st)
	return st
}

func (s *Server) stockLocked(id string) *stock {
	for _, st := range s.stocks {
		if st.ID == id {
			return st
		}
	}
	return nil
}

func (s *Server) userByIDLocked(id string) *user {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// accountValueLocked is cash plus holdings at current prices.
func (s *Server) accountValueLocked(u *user) decimal.Decimal {
	total := u.Balance
	for stockID, qty := range u.Holdings {
		if st := s.stockLocked(stockID); st != nil {
			total = total.Add(st.Price.Mul(decimal.NewFromInt(qty)))
		}
	}
	return total
}

func (s *Server) sortedUsersLocked() []*user {
	users := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return s.accountValueLocked(users[i]).GreaterThan(s.accountValueLocked(users[j]))
	})
	return users
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
