package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient is a thin REST implementation of Client. Every request is
// bounded by the configured timeout.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient returns a client for the provider REST API. timeout bounds
// each individual request; zero falls back to 10s.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

func (c *HTTPClient) ListActiveProducts(ctx context.Context) ([]Product, error) {
	var out listResponse[Product]
	if err := c.do(ctx, http.MethodGet, "/products?active=true&limit=100", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetPrice(ctx context.Context, id string) (*Price, error) {
	var p Price
	if err := c.do(ctx, http.MethodGet, "/prices/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string, expand []string) (*Session, error) {
	q := url.Values{}
	for _, e := range expand {
		q.Add("expand[]", e)
	}
	path := "/checkout/sessions/" + url.PathEscape(id)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var s Session
	if err := c.do(ctx, http.MethodGet, path, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	var out listResponse[LineItem]
	path := "/checkout/sessions/" + url.PathEscape(sessionID) + "/line_items"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var wire struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if b, rerr := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); rerr == nil {
			if json.Unmarshal(b, &wire) == nil {
				apiErr.Code = wire.Error.Code
				apiErr.Message = wire.Error.Message
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
