package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/corvid-labs/lamplight/service/metrics"
)

// ErrNotFound indicates the requested transaction record does not exist.
// It is distinct from transport failures so callers can render a "not
// found" state instead of a network error.
var ErrNotFound = errors.New("transaction not found")

// APIError is an application-level rejection from the backend (any
// non-success HTTP response). Transport-level failures (timeout,
// unreachable host) are returned as plain wrapped errors instead, so the
// orchestrator can report a precise cause.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// HealthStatus is the backend's health check response.
type HealthStatus struct {
	Status string `json:"status"`
}

// TransactionRecord is a previously submitted transaction as stored by the
// backend. The payload is kept opaque; this client never mutates records.
type TransactionRecord struct {
	Hash        string          `json:"hash"`
	Transaction json.RawMessage `json:"transaction"`
}

// SubmitResponse is the backend's acknowledgement of a submitted
// transaction, echoing the checkpoint validity window.
type SubmitResponse struct {
	Hash                 string `json:"hash"`
	Accepted             bool   `json:"accepted"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight,omitempty"`
}

// Client is the HTTP client for the rollup backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new backend API client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithMetrics attaches a metrics recorder to the client and returns it.
// Without one, no call metrics are recorded.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// do executes the request and records the call under the given method
// label. Transport failures are recorded with status "error"; responses
// are recorded under their HTTP status code.
func (c *Client) do(req *http.Request, method string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		c.metrics.RecordAPICall(method, status, time.Since(start).Seconds())
	}
	return resp, err
}

// Health checks whether the backend is reachable and healthy.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req, "health")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("health check ok", "status", status.Status)
	return &status, nil
}

// ListTransactions retrieves one page of submitted transactions.
// Pages are 1-indexed.
func (c *Client) ListTransactions(ctx context.Context, page, pageSize int) ([]TransactionRecord, error) {
	u := fmt.Sprintf("%s/api/v1/transactions?page=%d&page_size=%d", c.baseURL, page, pageSize)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req, "list_transactions")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var response struct {
		Transactions []TransactionRecord `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Transactions, nil
}

// GetTransaction retrieves a single transaction record by hash.
// Returns ErrNotFound if the backend has no record of it.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*TransactionRecord, error) {
	u := fmt.Sprintf("%s/api/v1/transactions/%s", c.baseURL, url.PathEscape(hash))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req, "get_transaction")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var record TransactionRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &record, nil
}

// SubmitTransaction posts a signed, base64-serialized transaction to the
// backend for settlement on the base layer.
func (c *Client) SubmitTransaction(ctx context.Context, senderLabel, signedTxBase64 string) (*SubmitResponse, error) {
	reqBody := map[string]interface{}{
		"sender":      senderLabel,
		"transaction": signedTxBase64,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, "submit_transaction")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseErrorResponse(resp)
	}

	var result SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("transaction submitted",
		"sender", senderLabel,
		"hash", result.Hash,
		"accepted", result.Accepted,
	)
	return &result, nil
}

// parseErrorResponse turns a non-success HTTP response into an *APIError.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &APIError{Status: resp.StatusCode, Message: string(body)}
	}

	return &APIError{Status: resp.StatusCode, Message: errResp.Error}
}
