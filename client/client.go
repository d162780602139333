// Package client is the Go SDK for the memorial backend.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client talks to the memorial backend. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	rest     *resty.Client
	log      zerolog.Logger
	validate *validator.Validate

	mu    sync.RWMutex
	token string
}

// New constructs a Client for baseURL. Requests are never retried.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL cannot be empty")
	}

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      zerolog.Nop(),
		validate: validator.New(),
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.rest = resty.NewWithClient(c.http).
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json")
	return c, nil
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token sent on every request. An empty token
// disables the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// call describes one backend request.
type call struct {
	op     string
	method string
	path   string
	params map[string]string
	query  map[string]string
	body   any
}

// do executes a call and decodes a 2xx JSON body into out (when non-nil).
// The raw body is returned for callers that need bytes.
func (c *Client) do(ctx context.Context, cl call, out any) ([]byte, error) {
	req := c.rest.R().SetContext(ctx)
	if tok := c.Token(); tok != "" {
		req.SetAuthToken(tok)
	}
	if len(cl.params) > 0 {
		req.SetPathParams(cl.params)
	}
	if len(cl.query) > 0 {
		req.SetQueryParams(cl.query)
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}

	start := time.Now()
	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		observe(cl.op, "network", time.Since(start))
		return nil, &NetworkError{Op: cl.op, Err: err}
	}
	observe(cl.op, strconv.Itoa(resp.StatusCode()), time.Since(start))

	body := resp.Body()
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, newAPIError(cl.op, resp.StatusCode(), body)
	}
	if out == nil {
		return body, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, &DecodeError{Op: cl.op, Err: err}
	}
	if err := c.validate.Struct(out); err != nil {
		return nil, &DecodeError{Op: cl.op, Err: err}
	}
	c.log.Debug().Str("op", cl.op).Int("status", resp.StatusCode()).Dur("took", time.Since(start)).Msg("backend call")
	return body, nil
}
