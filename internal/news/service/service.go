package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zappabad/stockdesk/internal/api"
	"github.com/zappabad/stockdesk/internal/news"
	newsview "github.com/zappabad/stockdesk/internal/news/view"
)

var ErrEmptyDraft = errors.New("title and content are required")

// NewsAPI is the news part of the server contract.
type NewsAPI interface {
	ListNews(ctx context.Context) ([]news.NewsItem, error)
	CreateNews(ctx context.Context, d news.Draft) (api.Ack, error)
}

// NewsService fetches and publishes announcements.
type NewsService struct {
	cfg  Config
	api  NewsAPI
	view *newsview.NewsView
	log  *slog.Logger

	mu             sync.Mutex
	closed         bool
	externalEvents chan newsview.NewsEvent
	droppedEvents  atomic.Int64
}

// NewNewsService creates a new NewsService.
func NewNewsService(a NewsAPI, cfg Config) *NewsService {
	if cfg.TapeSize <= 0 {
		cfg.TapeSize = DefaultConfig().TapeSize
	}
	if cfg.ExternalEventBuffer <= 0 {
		cfg.ExternalEventBuffer = DefaultConfig().ExternalEventBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &NewsService{
		cfg:            cfg,
		api:            a,
		view:           newsview.NewNewsView(cfg.TapeSize),
		log:            cfg.Logger.With("component", "news"),
		externalEvents: make(chan newsview.NewsEvent, cfg.ExternalEventBuffer),
	}
}

// List fetches the feed. On failure the previous feed is kept.
func (s *NewsService) List(ctx context.Context) ([]news.NewsItem, error) {
	items, err := s.api.ListNews(ctx)
	if err != nil {
		s.log.Warn("list news failed", "err", err)
		return nil, err
	}
	s.view.Replace(items)
	latest := s.view.Newest(s.cfg.TapeSize)
	s.emit(newsview.NewsEvent{Items: latest})
	return latest, nil
}

// Publish posts an announcement and re-fetches the feed once.
func (s *NewsService) Publish(ctx context.Context, d news.Draft) error {
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	if d.Title == "" || d.Content == "" {
		return ErrEmptyDraft
	}
	if _, err := s.api.CreateNews(ctx, d); err != nil {
		s.log.Warn("publish news failed", "err", err)
		return err
	}
	s.log.Info("news published", "title", d.Title)
	if _, err := s.List(ctx); err != nil {
		s.log.Warn("refresh after publish failed", "err", err)
	}
	return nil
}

// Latest returns up to n items, newest first.
func (s *NewsService) Latest(n int) []news.NewsItem {
	return s.view.Newest(n)
}

// Events returns the external events channel for subscribers.
func (s *NewsService) Events() <-chan newsview.NewsEvent {
	return s.externalEvents
}

// DroppedEvents returns the count of dropped external events.
func (s *NewsService) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

func (s *NewsService) emit(ev newsview.NewsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.cfg.DropExternalEvents {
		select {
		case s.externalEvents <- ev:
		default:
			s.droppedEvents.Add(1)
		}
		return
	}
	s.externalEvents <- ev
}

// Close shuts down the news service.
func (s *NewsService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.externalEvents)
}
