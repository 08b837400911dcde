// Package api is the HTTP client for the temple-management backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"golang.org/x/time/rate"
)

// Default transport settings.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 10
)

// Request headers set on every call.
const (
	HeaderTenant    = "X-Tenant-ID"
	HeaderRequestID = "X-Request-ID"
)

// maxErrorBody caps how much of a non-JSON error body is kept.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	BaseURL           string
	Token             string
	Tenant            string
	Timeout           time.Duration
	RequestsPerSecond float64
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the backend REST API. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	token   string
	tenant  string
	http    *http.Client
	limiter *rate.Limiter
}

// New returns a client for the API rooted at opts.BaseURL
// (e.g. "https://temple.example.com/api/v1").
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("api base url is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	return &Client{
		base:    base,
		token:   opts.Token,
		tenant:  opts.Tenant,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}, nil
}

// envelope is the response wrapper used by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != nil {
		return e.Error.Message
	}
	return ""
}

func (c *Client) endpoint(p string) string {
	u := *c.base
	u.Path = path.Join(c.base.Path, p)
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, p string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(p), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.tenant != "" {
		req.Header.Set(HeaderTenant, c.tenant)
	}
	return req, nil
}

// do sends req and decodes the envelope. out receives the data member and
// may be nil. The returned envelope is only set on success.
func (c *Client) do(req *http.Request, out any) (*envelope, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("%s %s failed: %v", req.Method, req.URL.Path, err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	logger.Debug("%s %s -> %d (%s)", req.Method, req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.message()
			if env.Error != nil {
				apiErr.Code = env.Error.Code
			}
		} else {
			apiErr.Body = truncate(strings.TrimSpace(string(raw)), maxErrorBody)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	if !env.Success {
		return nil, &Error{Status: resp.StatusCode, Message: env.message()}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decoding %s data: %w", req.URL.Path, err)
		}
	}
	return &env, nil
}

func (c *Client) get(ctx context.Context, p string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, p, nil)
	if err != nil {
		return err
	}
	_, err = c.do(req, out)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
