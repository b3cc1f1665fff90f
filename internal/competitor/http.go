package competitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pricescout/internal/model"
)

// scrapeResponse is the envelope returned by the scraper service.
type scrapeResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    model.RawDataset `json:"data"`
}

// HTTPProvider requests a dataset from the scraper service with a single POST.
type HTTPProvider struct {
	logger *slog.Logger
	url    string
	client *http.Client
}

// NewHTTPProvider creates an HTTPProvider posting to url.
func NewHTTPProvider(logger *slog.Logger, url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProvider{
		logger: logger,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string {
	return "http"
}

// Fetch posts the query and decodes the dataset from the response envelope.
func (p *HTTPProvider) Fetch(ctx context.Context, query model.CompetitorQuery) (model.RawDataset, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	p.logger.Debug("HTTPProvider: requesting competitor data", "url", p.url, "productId", query.ProductID)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrFetch, err)
	}

	var envelope scrapeResponse
	decodeErr := json.Unmarshal(payload, &envelope)
	if resp.StatusCode != http.StatusOK {
		msg := envelope.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrFetch, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFetch, decodeErr)
	}
	if envelope.Data == nil {
		return model.RawDataset{}, nil
	}
	return envelope.Data, nil
}
