// Package apiadapter implements the HTTP/API-style provider family
// (Storj, Lighthouse, Akash): each submits an allocation over a REST
// call and reports status via a gateway probe rather than a JSON-RPC
// receipt. Grounded on the teacher's chain.NodeClient httpGet helper
// (chain/node.go): a bounded-timeout client wrapping a JSON envelope.
package apiadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client is a small timeout-bounded HTTP helper shared by the
// API-style adapters.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a Client scoped to baseURL, optionally
// authenticated with apiKey (sent as a Bearer token).
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Get issues a GET request and decodes the JSON response body into
// result.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// PostJSON issues a POST request with a JSON body and decodes the JSON
// response body into result.
func (c *Client) PostJSON(ctx context.Context, path string, body, result interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	return c.do(ctx, http.MethodPost, path, &buf, result)
}

// Head issues a HEAD request and reports whether it returned 2xx. Used
// as the gateway liveness/confirmation probe for content-addressed
// backends.
func (c *Client) Head(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url(path), nil)
	if err != nil {
		return false, err
	}
	c.applyAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request %s %s failed with status %d: %s", method, path, resp.StatusCode, string(b))
	}

	if result == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) applyAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, path)
}
