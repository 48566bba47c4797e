// Package api is a thin client for the articles backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "articles-client"

// Client issues requests against the articles REST API
type Client struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
	userAgent string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimit caps the outgoing request rate. A zero rate disables limiting.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:9000/api)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{},
		logger:    slog.New(slog.DiscardHandler),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts credentials to /login.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/login", "", creds)
}

// ListArticles fetches /articles.
func (c *Client) ListArticles(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/articles", token, nil)
}

// CreateArticle posts a new article.
func (c *Client) CreateArticle(ctx context.Context, token string, in ArticleInput) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/articles", token, in)
}

// UpdateArticle replaces the article with the given id.
func (c *Client) UpdateArticle(ctx context.Context, token string, id int, in ArticleInput) (*Response, error) {
	return c.do(ctx, http.MethodPut, articlePath(id), token, in)
}

// DeleteArticle removes the article with the given id.
func (c *Client) DeleteArticle(ctx context.Context, token string, id int) (*Response, error) {
	return c.do(ctx, http.MethodDelete, articlePath(id), token, struct{}{})
}

func articlePath(id int) string {
	return "/articles/" + strconv.Itoa(id)
}

// do performs one request. The returned error is only set when the server
// could not be reached or the body could not be read; HTTP status handling is
// left to the caller.
func (c *Client) do(ctx context.Context, method, path, token string, payload any) (*Response, error) {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("building request %s %s: %w", method, url, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request", "method", method, "url", url, "request_id", requestID, "authenticated", token != "")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("api response", "method", method, "url", url, "request_id", requestID, "status", resp.StatusCode)

	return &Response{Status: resp.StatusCode, URL: url, Body: data}, nil
}
