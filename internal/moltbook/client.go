package moltbook

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

	"github.com/failsafe-go/failsafe-go"

	"github.com/mereck/moltbook/pkg/clients"
	"github.com/mereck/moltbook/pkg/logging"
)

// DefaultBaseURL is the production moltbook API root.
const DefaultBaseURL = "https://www.moltbook.com/api"

const requestTimeout = 15 * time.Second

// APIError is a non-2xx, non-429 response from the moltbook API. These are
// never retried by the client; callers log them and treat the enclosing
// operation as a no-op for the cycle.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("moltbook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("moltbook returned status %d: %s", e.StatusCode, e.Body)
}

// Client is a typed client for the moltbook content API. Rate-limit (429)
// responses are retried up to 3 attempts per call, honoring Retry-After;
// exhaustion degrades to a "no data" result instead of an error.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
	logger   logging.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// WithRateLimitConfig replaces the retry/backoff configuration.
func WithRateLimitConfig(cfg clients.RateLimitConfig) Option {
	return func(c *Client) {
		c.executor = clients.NewRateLimitExecutor(cfg)
	}
}

func NewClient(baseURL, apiKey string, logger logging.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	retryCfg := clients.DefaultRateLimitConfig()
	retryCfg.Logger = logger
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: clients.DefaultTransport(),
		},
		executor: clients.NewRateLimitExecutor(retryCfg),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Me fetches the authenticated agent's profile. Used at startup to verify
// the API key. Returns (nil, nil) when rate limiting exhausted the call.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	ok, err := c.get(ctx, "/agents/me", nil, &profile)
	if err != nil || !ok {
		return nil, err
	}
	return &profile, nil
}

// Search runs a keyword search. A rate-limited-out call yields an empty list.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Post, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var list postList
	ok, err := c.get(ctx, "/search", params, &list)
	if err != nil || !ok {
		return nil, err
	}
	return list.Posts, nil
}

// Feed fetches a submolt feed with the given sort ("hot", "new").
func (c *Client) Feed(ctx context.Context, submolt, sort string, limit int) ([]Post, error) {
	params := url.Values{}
	params.Set("submolt", submolt)
	params.Set("sort", sort)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var list postList
	ok, err := c.get(ctx, "/feed", params, &list)
	if err != nil || !ok {
		return nil, err
	}
	return list.Posts, nil
}

// CreateComment posts a comment on the given post.
func (c *Client) CreateComment(ctx context.Context, postID, body string) error {
	_, err := c.post(ctx, "/posts/"+postID+"/comments", commentRequest{Body: body}, nil)
	return err
}

// Upvote upvotes the given post.
func (c *Client) Upvote(ctx context.Context, postID string) error {
	_, err := c.post(ctx, "/posts/"+postID+"/upvote", struct{}{}, nil)
	return err
}

// CreatePost publishes an original post to a submolt.
func (c *Client) CreatePost(ctx context.Context, title, body, submolt string) error {
	_, err := c.post(ctx, "/posts", createPostRequest{Title: title, Body: body, Submolt: submolt}, nil)
	return err
}

// get issues a GET and decodes the JSON response into out. The boolean is
// false when the call was rate-limited out (no data, not an error).
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (bool, error) {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// post issues a JSON POST. Same rate-limit semantics as get.
func (c *Client) post(ctx context.Context, path string, body any, out any) (bool, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload []byte, out any) (bool, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	resp, err := clients.ExecuteHTTP(ctx, c.executor, func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, target, reader)
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := c.client.Do(req)
		// Drop the body of an attempt the policy will retry
		if clients.IsRateLimited(resp, doErr) {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		return resp, doErr
	})
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		// Body already drained by the attempt closure
		c.logger.WithFields(logging.Fields{
			"method": method,
			"path":   path,
		}).Warn("Gave up after rate-limit retries")
		return false, nil
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return true, nil
}
