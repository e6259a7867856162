// Package store is the HTTP client for the external document store that
// holds the site's content documents and image assets.
//
// The store is treated as a black box with three operations: fetch a
// document, upload an image, and replace a document wholesale. There is no
// retry logic and no concurrency token: the single create-or-replace call
// is the only mutating operation, and concurrent editors overwrite each
// other last-write-wins.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliphany/siteadmin/internal/content"
)

// Config holds client configuration.
type Config struct {
	// Endpoint is the store's base URL, e.g. "https://content.example.com".
	Endpoint string

	// Dataset selects the content dataset, e.g. "production".
	Dataset string

	// Capability authorizes mutating calls.
	Capability Capability

	// Timeout bounds each request (default 30s).
	Timeout time.Duration

	// Logger for request activity (nil disables logging).
	Logger *zap.SugaredLogger
}

// Client talks to the document store.
type Client struct {
	endpoint string
	dataset  string
	cap      Capability
	http     *http.Client
	logger   *zap.SugaredLogger
}

// New creates a store client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("dataset cannot be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		dataset:  cfg.Dataset,
		cap:      cfg.Capability,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   cfg.Logger,
	}, nil
}

// Capability returns the write capability the client was built with.
func (c *Client) Capability() Capability {
	return c.cap
}

// Fetch retrieves the latest document with the given id, or nil if no such
// document exists yet. A nil result is not an error: a singleton that has
// never been saved simply does not exist.
func (c *Client) Fetch(ctx context.Context, docType, id string) (map[string]any, error) {
	u := fmt.Sprintf("%s/v1/documents/%s/%s", c.endpoint, c.dataset, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{DocType: docType, Err: err}
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{DocType: docType, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{DocType: docType, Err: httpError(resp)}
	}

	var body struct {
		Document map[string]any `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{DocType: docType, Err: fmt.Errorf("failed to decode document: %w", err)}
	}

	c.logger.Debugw("fetched document", "type", docType, "id", id)
	return body.Document, nil
}

// FetchAll retrieves the documents of a type, optionally restricted to a
// fixed id set (the buttons panel loads all six CTA documents this way).
// Documents that do not exist are simply absent from the result.
func (c *Client) FetchAll(ctx context.Context, docType string, ids []string) ([]map[string]any, error) {
	q := url.Values{"type": {docType}}
	if len(ids) > 0 {
		q.Set("ids", strings.Join(ids, ","))
	}
	u := fmt.Sprintf("%s/v1/documents/%s?%s", c.endpoint, c.dataset, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{DocType: docType, Err: err}
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{DocType: docType, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{DocType: docType, Err: httpError(resp)}
	}

	var body struct {
		Documents []map[string]any `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{DocType: docType, Err: fmt.Errorf("failed to decode documents: %w", err)}
	}

	c.logger.Debugw("fetched documents", "type", docType, "count", len(body.Documents))
	return body.Documents, nil
}

// Upload stores an image and returns its durable asset reference. The
// caller treats uploads as potentially slow; cancellation comes from ctx.
func (c *Client) Upload(ctx context.Context, kind, filename string, r io.Reader) (content.AssetRef, error) {
	q := url.Values{"filename": {filename}}
	u := fmt.Sprintf("%s/v1/assets/%s/%s?%s", c.endpoint, url.PathEscape(kind), c.dataset, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, r)
	if err != nil {
		return "", &UploadError{Filename: filename, Err: err}
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &UploadError{Filename: filename, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &UploadError{Filename: filename, Err: httpError(resp)}
	}

	var body struct {
		AssetID string `json:"assetId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &UploadError{Filename: filename, Err: fmt.Errorf("failed to decode upload response: %w", err)}
	}
	if body.AssetID == "" {
		return "", &UploadError{Filename: filename, Err: fmt.Errorf("store returned no asset id")}
	}

	c.logger.Debugw("uploaded asset", "filename", filename, "asset", body.AssetID)
	return content.AssetRef(body.AssetID), nil
}

// CreateOrReplace writes a document wholesale under its fixed identifier.
// The document body must carry the same identifier; the write creates the
// document if it does not exist and replaces it entirely if it does.
func (c *Client) CreateOrReplace(ctx context.Context, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return &WriteError{DocID: id, Err: fmt.Errorf("failed to marshal document: %w", err)}
	}

	u := fmt.Sprintf("%s/v1/documents/%s/%s", c.endpoint, c.dataset, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(payload))
	if err != nil {
		return &WriteError{DocID: id, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &WriteError{DocID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &WriteError{DocID: id, Err: httpError(resp)}
	}

	c.logger.Infow("replaced document", "id", id)
	return nil
}

// ListProducts returns every product document.
func (c *Client) ListProducts(ctx context.Context) ([]map[string]any, error) {
	return c.FetchAll(ctx, content.TypeProduct, nil)
}

// Delete removes a document by id. Only the product collection is ever
// deleted through the console; settings singletons are never deleted.
func (c *Client) Delete(ctx context.Context, id string) error {
	u := fmt.Sprintf("%s/v1/documents/%s/%s", c.endpoint, c.dataset, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return &WriteError{DocID: id, Err: err}
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &WriteError{DocID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &WriteError{DocID: id, Err: httpError(resp)}
	}

	c.logger.Infow("deleted document", "id", id)
	return nil
}

// authorize attaches the write token when one is configured.
func (c *Client) authorize(req *http.Request) {
	if c.cap.Authorized() {
		req.Header.Set("Authorization", "Bearer "+c.cap.Token())
	}
}

// httpError summarizes a non-success response, including a short prefix of
// the body when the store sent one.
func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("store returned %s", resp.Status)
	}
	return fmt.Errorf("store returned %s: %s", resp.Status, msg)
}
