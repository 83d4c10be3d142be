package view

import (
	"sync"

	"github.com/zappabad/stockdesk/internal/news"
)

// NewsEvent is emitted after the feed is replaced.
type NewsEvent struct {
	Items []news.NewsItem
}

// NewsView maintains a bounded ring buffer of news items.
type NewsView struct {
	mu    sync.RWMutex
	buf   []news.NewsItem
	size  int
	start int
	count int
}

// NewNewsView creates a new NewsView with the given capacity.
func NewNewsView(capacity int) *NewsView {
	if capacity <= 0 {
		capacity = 100
	}
	return &NewsView{
		buf:  make([]news.NewsItem, capacity),
		size: capacity,
	}
}

// Apply adds a news item to the view, overwriting the oldest when full.
func (v *NewsView) Apply(item news.NewsItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.applyLocked(item)
}

func (v *NewsView) applyLocked(item news.NewsItem) {
	if v.count < v.size {
		v.buf[(v.start+v.count)%v.size] = item
		v.count++
		return
	}
	// overwrite oldest
	v.buf[v.start] = item
	v.start = (v.start + 1) % v.size
}

// Replace swaps the whole feed. items arrive newest first, as the server
// sends them; when they exceed capacity the oldest are dropped.
func (v *NewsView) Replace(items []news.NewsItem) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.start, v.count = 0, 0
	for i := len(items) - 1; i >= 0; i-- {
		v.applyLocked(items[i])
	}
}

// Newest returns up to n items, newest first. Returns a copy.
func (v *NewsView) Newest(n int) []news.NewsItem {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if n <= 0 || v.count == 0 {
		return nil
	}
	if n > v.count {
		n = v.count
	}

	out := make([]news.NewsItem, n)
	last := v.start + v.count - 1
	for i := 0; i < n; i++ {
		out[i] = v.buf[(last-i)%v.size]
	}
	return out
}

// Count returns the number of news items in the view.
func (v *NewsView) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.count
}
