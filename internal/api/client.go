package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/five82/veriaccess/internal/session"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second

	LoginPath   = "/auth/login/"
	RefreshPath = "/auth/refresh/"

	defaultUserAgent = "veriaccess/0.1"
	maxBodyBytes     = 8 << 20
)

// Options configures a Client. Everything is fixed at construction.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string

	Session *session.Store
	Logger  logrus.FieldLogger
	Metrics *Metrics

	// Limiter throttles outbound requests when set.
	Limiter *rate.Limiter

	// Fallbacks replaces the default rules when non-nil.
	Fallbacks        []FallbackRule
	DisableFallbacks bool
}

// Client sends requests to the API through the hook pipeline. It is safe for
// concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	session   *session.Store
	log       logrus.FieldLogger
	metrics   *Metrics
	fallbacks []FallbackRule
	refresher *refresher

	requestHooks  []RequestHook
	responseHooks []ResponseHook
}

// New builds a client. A nil Session is treated as an unavailable store.
func New(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	log := opts.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	store := opts.Session
	if store == nil {
		store = session.NewStore(nil)
	}

	fallbacks := DefaultFallbacks()
	if opts.Fallbacks != nil {
		fallbacks = opts.Fallbacks
	}
	if opts.DisableFallbacks {
		fallbacks = nil
	}

	c := &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: ua,
		session:   store,
		log:       log.WithField("component", "api"),
		metrics:   opts.Metrics,
		fallbacks: fallbacks,
	}
	c.refresher = &refresher{
		http:      httpClient,
		url:       c.resolve(RefreshPath),
		userAgent: ua,
		session:   store,
		log:       c.log,
		metrics:   opts.Metrics,
	}

	c.requestHooks = []RequestHook{requestID, c.bearer}
	if opts.Limiter != nil {
		c.requestHooks = append(c.requestHooks, rateLimit(opts.Limiter))
	}
	c.responseHooks = []ResponseHook{c.observe, c.refresh, c.normalize, c.fallback}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the token store the client reads and refreshes.
func (c *Client) Session() *session.Store { return c.session }

// Do sends req through the pipeline. On failure the error is the original
// *ResponseError or *NetworkError, or a refresh failure wrapping
// ErrSessionExpired; Normalize turns any of them into a NormalizedError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c == nil {
		return nil, errors.New("api client is nil")
	}
	if req == nil {
		return nil, errors.New("request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	return c.send(ctx, req)
}

// Get fetches path and decodes the JSON response into dest.
func (c *Client) Get(ctx context.Context, path string, query url.Values, dest any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, dest)
}

// Post sends body and decodes the response into dest.
func (c *Client) Post(ctx context.Context, path string, body, dest any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, dest)
}

// Patch partially updates a resource.
func (c *Client) Patch(ctx context.Context, path string, body, dest any) error {
	return c.call(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, dest)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) call(ctx context.Context, req *Request, dest any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(dest)
}

// send runs one full pass of the pipeline. A replay after refresh is another
// call to send with the same descriptor.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, hook := range c.requestHooks {
		if err := hook(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("prepare request: %w", err)
		}
	}

	call := &Call{Request: req, HTTPRequest: httpReq, Started: time.Now()}
	resp, err := c.roundTrip(httpReq, req)
	for _, hook := range c.responseHooks {
		resp, err = hook(ctx, call, resp, err)
		if call.Settled() {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	target := c.resolve(req.Path)
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	for k, vals := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

func (c *Client) roundTrip(httpReq *http.Request, req *Request) (*Response, error) {
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("read response: %w", err)}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Request:    req,
	}
	if httpResp.StatusCode >= http.StatusBadRequest {
		return resp, &ResponseError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: httpResp.StatusCode,
			Header:     httpResp.Header,
			Body:       body,
		}
	}
	return resp, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func parseBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("parse api url: missing host in %q", raw)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return strings.TrimRight(parsed.String(), "/"), nil
}
