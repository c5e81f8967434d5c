package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/digitalme/backend/internal/metrics"
	"go.uber.org/zap"
)

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCClient talks JSON-RPC 2.0 to a node. Calls are never retried.
type RPCClient struct {
	url        string
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        *zap.Logger
	nextID     atomic.Uint64
}

func NewRPCClient(url string, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *RPCClient {
	return &RPCClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		log:        log,
	}
}

// InvokeFunction runs operation read-only against the contract and returns
// the VM result. Nothing is persisted on chain.
func (c *RPCClient) InvokeFunction(ctx context.Context, scriptHash, operation string, params ...ContractParam) (*InvokeResult, error) {
	if params == nil {
		params = []ContractParam{}
	}
	var res InvokeResult
	if err := c.call(ctx, "invokefunction", []any{scriptHash, operation, params}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SendRawTransaction broadcasts a serialized signed transaction and reports
// whether the node accepted it.
func (c *RPCClient) SendRawTransaction(ctx context.Context, rawTx string) (bool, error) {
	var ok bool
	if err := c.call(ctx, "sendrawtransaction", []any{rawTx}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	start := time.Now()
	status := "error"
	defer func() { c.metrics.ObserveRPC(method, status, time.Since(start)) }()

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID.Add(1)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc node unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("rpc node returned %d: %s", resp.StatusCode, string(b))
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	status = "ok"
	c.log.Debug("rpc call", zap.String("method", method), zap.Duration("latency", time.Since(start)))
	return nil
}
