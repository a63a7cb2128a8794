// Package client is a typed Go client for the Scrum Board gateway's /api
// surface. Request and response payloads stay opaque JSON; only the config
// endpoints are decoded, into scrumconfig.Values.
package client

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

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the gateway's API root on a developer machine.
const DefaultBaseURL = "http://localhost:3000/api"

// APIError is a non-2xx gateway response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Detail)
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithBearerToken sends token in the Authorization header of every request.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// New returns a client for the gateway rooted at baseURL ("" means
// DefaultBaseURL).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse gateway url %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway url %q must be http or https", baseURL)
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// endpoint joins escaped path segments onto the base URL.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.base
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.RawPath = u.EscapedPath() + "/" + strings.Join(escaped, "/")
	u.Path, _ = url.PathUnescape(u.RawPath)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, target, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// send performs req and returns the response if it is 2xx. Anything else is
// drained into an *APIError.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return nil, &APIError{Status: resp.StatusCode, Detail: errorDetail(resp.StatusCode, body)}
}

// do sends a JSON request and returns the raw JSON response. An empty
// response body (204) yields nil.
func (c *Client) do(ctx context.Context, method string, query url.Values, payload any, segments ...string) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, method, c.endpoint(query, segments...), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s %s: response is not JSON", method, req.URL.Path)
	}
	return json.RawMessage(data), nil
}

func (c *Client) get(ctx context.Context, query url.Values, segments ...string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, query, nil, segments...)
}

func (c *Client) post(ctx context.Context, payload any, segments ...string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, nil, payload, segments...)
}

func (c *Client) patch(ctx context.Context, payload any, segments ...string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, nil, payload, segments...)
}

func (c *Client) delete(ctx context.Context, query url.Values, segments ...string) error {
	_, err := c.do(ctx, http.MethodDelete, query, nil, segments...)
	return err
}

// errorDetail prefers FastAPI's "detail", then the gateway's "error".
func errorDetail(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, field := range []string{"detail", "error"} {
			v := gjson.GetBytes(body, field)
			if !v.Exists() {
				continue
			}
			if v.Type == gjson.String {
				return v.String()
			}
			return v.Raw
		}
	}
	return fmt.Sprintf("Request failed: %d", status)
}

func id(n int64) string {
	return fmt.Sprint(n)
}
