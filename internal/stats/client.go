package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lpYield/internal/model"
)

// Client fetches liquidity pool statistics from the monitoring API.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a statistics client with the given request timeout.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchAssets returns the pool statistics served at url.
func (c *Client) FetchAssets(ctx context.Context, url string) ([]model.AssetStatistics, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch statistics: %w: %w", model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %w", model.ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch statistics: status %d: %w", resp.StatusCode, model.ErrUnexpectedStatus)
	}

	var result struct {
		Assets *[]model.AssetStatistics `json:"assets"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal statistics: %w: %w", model.ErrMalformedPayload, err)
	}
	if result.Assets == nil {
		return nil, fmt.Errorf("statistics response has no assets: %w", model.ErrMalformedPayload)
	}

	c.logger.Debug("statistics loaded", zap.String("url", url), zap.Int("assets", len(*result.Assets)))

	return *result.Assets, nil
}
