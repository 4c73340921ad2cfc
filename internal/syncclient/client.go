// Package syncclient ships the device's snapshot and pending queue to the
// backend and applies the authoritative merge it gets back. A failed call is
// all-or-nothing: the local store stays untouched and the next trigger
// retries the same full payload.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stargrid/stargrid/internal/localstate"
	"github.com/stargrid/stargrid/internal/progress"
)

type TokenFunc func(ctx context.Context) (string, error)

type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Token    TokenFunc
	ClientID string

	store *localstate.Store
}

func NewClient(baseURL string, store *localstate.Store, token TokenFunc) *Client {
	return &Client{
		BaseURL:  baseURL,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		Token:    token,
		ClientID: uuid.NewString(),
		store:    store,
	}
}

// Sync performs one round trip. The snapshot captures the aggregate and the
// full queue up front, so gameplay mutations issued while the request is in
// flight simply wait for the next cycle.
func (c *Client) Sync(ctx context.Context) error {
	state, pending := c.store.Snapshot()
	body := progress.SyncRequest{
		ClientID: c.ClientID,
		State:    state,
		Pending:  pending,
	}

	var resp progress.SyncResponse
	if err := c.post(ctx, "/api/v1/sync", body, &resp); err != nil {
		return err
	}

	c.store.ApplyServer(&resp)
	return nil
}

// ResetRemote asks the server to wipe the account, then clears the local
// store. When the call fails the device keeps its state: the account is
// split until a retry succeeds, and the caller must surface the error.
func (c *Client) ResetRemote(ctx context.Context) error {
	var state progress.Aggregate
	if err := c.post(ctx, "/api/v1/sync/reset", nil, &state); err != nil {
		return err
	}
	c.store.Reset()
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != nil {
		token, err := c.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("sync endpoint %s returned status %d", path, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
