package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledgerlock/ledgerlock/internal/client/models"
	"github.com/ledgerlock/ledgerlock/internal/common"
)

// HTTPClient talks to the remote store over HTTP+JSON.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPClient builds a client for the store at baseURL. The timeout bounds
// every request end to end; it is what guarantees the sync engine's Syncing
// state cannot last forever on a hung transport.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

// Ping checks server liveness.
func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	return statusError(resp)
}

// PushBatch sends a full-state snapshot. The operation is idempotent: the
// server replaces the whole bundle, so resending after a partial failure is
// always safe.
func (c *HTTPClient) PushBatch(ctx context.Context, batch *models.SyncBatch) (*models.SyncReceipt, error) {
	resp, err := c.do(ctx, http.MethodPost, "/sync", batch)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if err := statusError(resp); err != nil {
		return nil, err
	}

	receipt := &models.SyncReceipt{}
	if err := json.NewDecoder(resp.Body).Decode(receipt); err != nil {
		return nil, fmt.Errorf("%w: decoding receipt: %v", common.ErrTransport, err)
	}
	return receipt, nil
}

// FetchBundle retrieves the current remote bundle; a never-synced account
// yields structurally valid empty groups.
func (c *HTTPClient) FetchBundle(ctx context.Context, accountID string) (*RemoteBundle, error) {
	resp, err := c.do(ctx, http.MethodGet, "/data/"+accountID, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if err := statusError(resp); err != nil {
		return nil, err
	}

	bundle := &RemoteBundle{}
	if err := json.NewDecoder(resp.Body).Decode(bundle); err != nil {
		return nil, fmt.Errorf("%w: decoding bundle: %v", common.ErrTransport, err)
	}
	return bundle, nil
}

// DeleteBundle irreversibly removes the account's remote data. The literal
// confirmation string is passed through to the server, which enforces it.
func (c *HTTPClient) DeleteBundle(ctx context.Context, accountID, confirm string) error {
	body := map[string]string{"confirm": confirm}
	resp, err := c.do(ctx, http.MethodDelete, "/data/"+accountID, body)
	if err != nil {
		return err
	}
	defer drain(resp)
	return statusError(resp)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	return resp, nil
}

// statusError maps a non-2xx response onto the error taxonomy. The response
// body is expected to be {"error": "..."} but is optional.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := serverMessage(resp)
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", common.ErrValidation, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", common.ErrRateLimited, msg)
	default:
		return fmt.Errorf("%w: server returned %d: %s", common.ErrInternal, resp.StatusCode, msg)
	}
}

func serverMessage(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return resp.Status
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
