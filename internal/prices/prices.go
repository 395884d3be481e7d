package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lpYield/internal/model"
)

// ErrPriceNotFound is returned when a requested key is absent from the price response.
var ErrPriceNotFound = fmt.Errorf("price not found: %w", model.ErrMissingKey)

// Coin is one entry of the current price response.
type Coin struct {
	Price      decimal.Decimal `json:"price"`
	Symbol     string          `json:"symbol"`
	Decimals   int             `json:"decimals"`
	Timestamp  int64           `json:"timestamp"`
	Confidence float64         `json:"confidence"`
}

type currentPricesResponse struct {
	Coins map[string]Coin `json:"coins"`
}

// PriceMap maps normalized "<network>:<address>" keys to USD prices.
type PriceMap map[string]Coin

// Key builds the normalized price key for a token on a network.
func Key(network, address string) string {
	return strings.ToLower(strings.TrimSpace(network) + ":" + strings.TrimSpace(address))
}

// Price returns the USD price of a token, or ErrPriceNotFound.
func (m PriceMap) Price(network, address string) (decimal.Decimal, error) {
	return m.PriceByKey(Key(network, address))
}

// PriceByKey returns the USD price for an already built key.
func (m PriceMap) PriceByKey(key string) (decimal.Decimal, error) {
	coin, ok := m[strings.ToLower(key)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w", key, ErrPriceNotFound)
	}
	return coin.Price, nil
}

// Client fetches current token prices from the coins price API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a price client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchPrices requests all keys in one call. Keys are lower-cased and de-duplicated
// in first-seen order before being comma-joined into the request path.
func (c *Client) FetchPrices(ctx context.Context, keys []string) (PriceMap, error) {
	keys = NormalizeKeys(keys)
	if len(keys) == 0 {
		return PriceMap{}, nil
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, strings.Join(keys, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w: %w", model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %w", model.ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch prices: status %d: %w", resp.StatusCode, model.ErrUnexpectedStatus)
	}

	var result currentPricesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal prices: %w: %w", model.ErrMalformedPayload, err)
	}
	if result.Coins == nil {
		return nil, fmt.Errorf("prices response has no coins: %w", model.ErrMalformedPayload)
	}

	out := make(PriceMap, len(result.Coins))
	for key, coin := range result.Coins {
		out[strings.ToLower(key)] = coin
	}

	if missing := len(keys) - countPresent(out, keys); missing > 0 {
		c.logger.Warn("prices missing from response", zap.Int("requested", len(keys)), zap.Int("missing", missing))
	}

	return out, nil
}

// NormalizeKeys lower-cases keys and drops blanks and duplicates, keeping order.
func NormalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// IsNotFound reports whether err is a missing price.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPriceNotFound)
}

func countPresent(m PriceMap, keys []string) int {
	n := 0
	for _, key := range keys {
		if _, ok := m[key]; ok {
			n++
		}
	}
	return n
}
