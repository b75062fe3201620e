package recommendation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"biteme-be/internal/logger"

	"go.uber.org/zap"
)

const (
	recommendPath  = "/recommend/"
	maxAttempts    = 3
	requestTimeout = 15 * time.Second
)

// Client talks to the recommendation microservice.
type Client interface {
	Recommend(ctx context.Context, req Request) (*Recommendation, error)
}

type httpClient struct {
	baseURL    string
	httpClient *http.Client
	backoff    time.Duration
}

// ----------------- Constructor -----------------

func NewClient(baseURL string) Client {
	if baseURL == "" {
		logger.L().Warn("recommender URL is empty")
	}

	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		backoff: 200 * time.Millisecond,
	}
}

// ----------------- Recommend -----------------

// Recommend posts the menu and history. Network errors and 5xx replies are
// retried up to maxAttempts; everything else fails at once.
func (c *httpClient) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "client"),
		zap.String("method", "Recommend"),
		zap.Int("menu_items", len(req.RestaurantMenu)),
	)

	body, err := json.Marshal(req)
	if err != nil {
		log.Error("failed to marshal recommendation request", zap.Error(err))
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			case <-time.After(c.backoff * time.Duration(attempt-1)):
			}
		}

		rec, retry, err := c.do(ctx, body)
		if err == nil {
			log.Info("recommendation received",
				zap.Int("attempt", attempt),
				zap.Int("recommended", len(rec.RecommendedItems)),
			)
			return rec, nil
		}

		lastErr = err
		log.Warn("recommendation attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if !retry {
			break
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

// do performs one round trip and reports whether a failure is worth retrying.
func (c *httpClient) do(ctx context.Context, body []byte) (*Recommendation, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+recommendPath, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		httpReq.Header.Set(logger.RequestIDHeader, reqID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 200))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var rec Recommendation
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return &rec, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
