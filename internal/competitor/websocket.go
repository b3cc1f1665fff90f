package competitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"pricescout/internal/model"
)

const (
	messageScrape   = "scrape"
	messageProgress = "progress"
	messageDataset  = "dataset"
	messageError    = "error"
)

type scrapeRequest struct {
	Type string `json:"type"`
	model.CompetitorQuery
}

type streamMessage struct {
	Type        string           `json:"type"`
	ProductID   string           `json:"productId"`
	Marketplace string           `json:"marketplace"`
	Message     string           `json:"message"`
	Data        model.RawDataset `json:"data"`
}

// WebSocketProvider subscribes to the scraper's streaming endpoint and waits
// for the final dataset message. Progress messages are discarded so a
// partially scraped dataset is never returned.
type WebSocketProvider struct {
	logger  *slog.Logger
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
}

// NewWebSocketProvider creates a WebSocketProvider for the given ws:// or wss:// url.
func NewWebSocketProvider(logger *slog.Logger, url string, timeout time.Duration) *WebSocketProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebSocketProvider{
		logger:  logger,
		url:     url,
		timeout: timeout,
		dialer:  websocket.DefaultDialer,
	}
}

func (p *WebSocketProvider) Name() string {
	return "websocket"
}

// Fetch sends a scrape request and blocks until the dataset arrives, the
// scraper reports an error, or the timeout or ctx expires.
func (p *WebSocketProvider) Fetch(ctx context.Context, query model.CompetitorQuery) (model.RawDataset, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.logger.Debug("WebSocketProvider: connecting", "url", p.url, "productId", query.ProductID)
	c, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrFetch, err)
	}
	defer c.Close()

	// Unblock ReadMessage when ctx ends before the deadline is reached.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.SetReadDeadline(time.Now())
		case <-done:
		}
	}()
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.SetReadDeadline(deadline)
		_ = c.SetWriteDeadline(deadline)
	}

	if err := c.WriteJSON(scrapeRequest{Type: messageScrape, CompetitorQuery: query}); err != nil {
		return nil, fmt.Errorf("%w: send request: %v", ErrFetch, err)
	}

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrFetch, ctx.Err())
			}
			return nil, fmt.Errorf("%w: read: %v", ErrFetch, err)
		}

		var msg streamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			p.logger.Warn("WebSocketProvider: failed to parse message", "error", err)
			continue
		}
		if msg.ProductID != "" && msg.ProductID != query.ProductID.String() {
			continue
		}

		switch msg.Type {
		case messageProgress:
			p.logger.Debug("WebSocketProvider: scrape progress", "marketplace", msg.Marketplace, "message", msg.Message)
		case messageError:
			return nil, fmt.Errorf("%w: scraper: %s", ErrFetch, msg.Message)
		case messageDataset:
			_ = c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if msg.Data == nil {
				return model.RawDataset{}, nil
			}
			return msg.Data, nil
		default:
			p.logger.Debug("WebSocketProvider: ignoring message", "type", msg.Type)
		}
	}
}
