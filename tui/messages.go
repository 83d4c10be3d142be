package tui

import (
	"github.com/zappabad/stockdesk/internal/market"
	newsview "github.com/zappabad/stockdesk/internal/news/view"
	"github.com/zappabad/stockdesk/internal/orderflow"
	"github.com/zappabad/stockdesk/internal/portfolio"
	"github.com/zappabad/stockdesk/internal/session"
)

// Results of commands. Each carries the error of the request that produced
// it so the model can route 401s back to the login screen.

type sessionEventMsg struct {
	event session.Event
}

type newsEventMsg struct {
	event newsview.NewsEvent
}

type loginResultMsg struct {
	sess session.Session
	err  error
}

type registerResultMsg struct {
	err error
}

type loggedOutMsg struct{}

type stocksMsg struct {
	err error
}

type holdingsMsg struct {
	holdings []portfolio.Holding
	err      error
}

type profileMsg struct {
	profile portfolio.Profile
	err     error
}

type myOrdersMsg struct {
	orders []market.MyOrder
	err    error
}

type newsFetchedMsg struct {
	err error
}

type newsPublishedMsg struct {
	err error
}

type adminMsg struct {
	err        error
	stockAdded bool
}

type counterOrdersMsg struct {
	ticket orderflow.Ticket
	orders []market.CounterOrder
	err    error
}

type orderSubmittedMsg struct {
	ticket orderflow.Ticket
	placed market.PlacedOrder
	err    error
}
