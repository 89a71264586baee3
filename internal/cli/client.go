package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/internal/server"
)

// Client calls a running clausegate server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL (e.g. http://localhost:8000).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Query asks a question. A 502 response carries an ERROR decision, which is returned
// with a non-nil error.
func (c *Client) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	var resp models.QueryResponse
	status, err := c.do(ctx, http.MethodPost, "/api/v1/query", req, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadGateway {
		return &resp, fmt.Errorf("server reported a boundary failure: %s", resp.Error)
	}
	return &resp, nil
}

// Retrieve returns the raw retrieval view for question.
func (c *Client) Retrieve(ctx context.Context, req models.QueryRequest) (*models.RetrievalDebug, error) {
	var dbg models.RetrievalDebug
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/debug/retrieval", req, &dbg); err != nil {
		return nil, err
	}
	return &dbg, nil
}

// AuditLogs returns every audit record.
func (c *Client) AuditLogs(ctx context.Context) ([]models.AuditRecord, error) {
	var records []models.AuditRecord
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/audit/logs", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Status returns corpus and index status.
func (c *Client) Status(ctx context.Context) (*server.Status, error) {
	var st server.Status
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// do sends body as JSON and decodes the reply into out. 2xx and 502 replies are decoded;
// anything else becomes an error carrying the server's message.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode/100 == 2 || resp.StatusCode == http.StatusBadGateway && path == "/api/v1/query"
	if !ok {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return resp.StatusCode, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
