package news

import "github.com/zappabad/stockdesk/internal/market"

// NewsItem is a market announcement.
type NewsItem struct {
	ID        market.ID        `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	CreatedAt market.Timestamp `json:"created_at"`
}

// Draft is an announcement being written by an admin.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
