// Package estrapi is the typed client of the remote eSTR core REST API.
package estrapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const statusSuccess = "success"

// envelope is the response wrapper used by every core API endpoint
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Observer receives the outcome of each remote call, e.g. for metrics
type Observer func(operation string, duration time.Duration, err error)

// Client implements port.CoreAPI over fasthttp
type Client struct {
	http     *fasthttp.Client
	baseURL  string
	timeout  time.Duration
	logger   *zap.Logger
	observer Observer
}

// Option configures the client
type Option func(*Client)

// WithObserver reports every call to obs
func WithObserver(obs Observer) Option {
	return func(c *Client) {
		c.observer = obs
	}
}

// NewClient creates a client for the core API at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		http: &fasthttp.Client{
			Name:                "estr-backoffice",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 90 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call performs one request and decodes the envelope's data into out (if non-nil)
func (c *Client) call(ctx context.Context, operation, method, path string, query url.Values, userID string, body, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer(operation, time.Since(start), err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Error("Core API call failed",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrRemote, method, path, err)
	}

	status := resp.StatusCode()
	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	c.logger.Debug("Core API call",
		zap.String("operation", operation),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)))

	if status < 200 || status >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: status, Message: env.Message, kind: kindForStatus(status)}
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s %s: invalid response: %v", ErrRemote, method, path, decodeErr)
	}
	if env.Status != statusSuccess {
		return &APIError{Method: method, Path: path, StatusCode: status, Message: env.Message, kind: ErrRemote}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: %s %s: failed to decode data: %v", ErrRemote, method, path, err)
		}
	}
	return nil
}
