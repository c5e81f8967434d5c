package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/digitalme/backend/internal/metrics"
	"go.uber.org/zap"
)

type Unspent struct {
	TxID  string  `json:"txid"`
	N     uint16  `json:"n"`
	Value float64 `json:"value"`
}

type AssetBalance struct {
	AssetHash string    `json:"asset_hash"`
	Asset     string    `json:"asset"`
	Amount    float64   `json:"amount"`
	Unspent   []Unspent `json:"unspent"`
}

type Balance struct {
	Address string         `json:"address"`
	Assets  []AssetBalance `json:"balance"`
}

// NeoscanClient reads address balances and unspent coins from a neoscan-style
// indexer. It is used only to fund invocation transactions.
type NeoscanClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewNeoscanClient(baseURL string, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *NeoscanClient {
	return &NeoscanClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		log:        log,
	}
}

func (c *NeoscanClient) GetBalance(ctx context.Context, address string) (*Balance, error) {
	start := time.Now()
	u := fmt.Sprintf("%s/v1/get_balance/%s", c.baseURL, url.PathEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRPC("get_balance", "error", time.Since(start))
		return nil, fmt.Errorf("balance service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ObserveRPC("get_balance", "error", time.Since(start))
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("balance service returned %d: %s", resp.StatusCode, string(body))
	}

	var b Balance
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		c.metrics.ObserveRPC("get_balance", "error", time.Since(start))
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	c.metrics.ObserveRPC("get_balance", "ok", time.Since(start))
	c.log.Debug("balance fetched", zap.String("address", address), zap.Int("assets", len(b.Assets)))
	return &b, nil
}
