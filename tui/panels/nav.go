package panels

import (
	"strings"

	"github.com/zappabad/stockdesk/internal/session"
	"github.com/zappabad/stockdesk/tui/styles"
)

// Page identifies a top-level view.
type Page int

const (
	PageMarket Page = iota
	PagePortfolio
	PageOrders
	PageNews
	PageAdmin
)

// NavEntry is one item of the navigation bar.
type NavEntry struct {
	Page  Page
	Label string
	Key   string
}

// NavEntries returns the navigation for role. Admin only appears for admins;
// the server still enforces every admin route.
func NavEntries(role session.Role) []NavEntry {
	entries := []NavEntry{
		{Page: PageMarket, Label: "Market", Key: "f1"},
		{Page: PagePortfolio, Label: "Portfolio", Key: "f2"},
		{Page: PageOrders, Label: "Orders", Key: "f3"},
		{Page: PageNews, Label: "News", Key: "f4"},
	}
	if role == session.RoleAdmin {
		entries = append(entries, NavEntry{Page: PageAdmin, Label: "Admin", Key: "f5"})
	}
	return entries
}

// RenderNav draws the navigation bar with active highlighted.
func RenderNav(entries []NavEntry, active Page) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		label := strings.ToUpper(e.Key) + " " + e.Label
		if e.Page == active {
			parts = append(parts, styles.ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, styles.TabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}
