package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kovalyov-valentin/news-aggregator/internal/metrics"
)

const (
	apiKeyHeader    = "X-Api-Key"
	userAgent       = "news-aggregator/1.0"
	codeRateLimited = "rateLimited"
	maxBodySize     = 8 << 20
)

var (
	// ErrKeysExhausted means every key after the starting cursor was rate limited.
	// Callers treat it as "no data this cycle".
	ErrKeysExhausted = errors.New("api key pool exhausted")
	// ErrNoKeys is returned by NewClient when the pool is empty.
	ErrNoKeys = errors.New("no api keys configured")
)

// Response is the part of a news API reply the pipeline consumes.
type Response struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	// Articles stays nil when the field is absent or null.
	Articles []json.RawMessage `json:"articles"`
}

// RateLimited reports whether the server asked us to back off this key.
func (r *Response) RateLimited() bool {
	return r.Code == codeRateLimited
}

// Client issues news API requests, moving through the key pool on rate limits.
// It holds no state besides the immutable pool.
type Client struct {
	http    *http.Client
	keys    []string
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewClient(keys []string, timeout time.Duration, log *zap.SugaredLogger, m *metrics.Metrics) (*Client, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	pool := make([]string, len(keys))
	copy(pool, keys)

	return &Client{
		http:    &http.Client{Timeout: timeout},
		keys:    pool,
		log:     log,
		metrics: m,
	}, nil
}

// WithHTTPClient swaps the transport, used by tests and custom proxies.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Fetch performs one logical request starting from the first key of the pool.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	return c.FetchAfter(ctx, url, "")
}

// FetchAfter performs one logical request starting with the key that follows
// currentKey in pool order. An empty or unknown currentKey starts at the first key.
//
// Only rate-limit replies move on to the next key. Transport and decoding
// errors end the call immediately.
func (c *Client) FetchAfter(ctx context.Context, url, currentKey string) (*Response, error) {
	for i := c.nextIndex(currentKey); i < len(c.keys); i++ {
		resp, err := c.do(ctx, url, c.keys[i])
		if err != nil {
			c.metrics.ObserveRequest(metrics.OutcomeError)
			return nil, err
		}

		if !resp.RateLimited() {
			c.metrics.ObserveRequest(metrics.OutcomeOK)
			return resp, nil
		}

		c.metrics.ObserveRequest(metrics.OutcomeRateLimited)
		if i+1 < len(c.keys) {
			c.metrics.ObserveKeyRotation()
			c.log.Debugw("api key rate limited, rotating", "key_index", i, "next_index", i+1)
		}
	}

	c.log.Warnw("all api keys rate limited", "url", url)

	return nil, ErrKeysExhausted
}

func (c *Client) nextIndex(currentKey string) int {
	if currentKey == "" {
		return 0
	}

	for i, key := range c.keys {
		if key == currentKey {
			return i + 1
		}
	}

	return 0
}

func (c *Client) do(ctx context.Context, url, key string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, key)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, maxBodySize)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response (status %s): %w", httpResp.Status, err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest && !resp.RateLimited() {
		return nil, fmt.Errorf("news api returned %s: %s: %s", httpResp.Status, resp.Code, resp.Message)
	}

	return &resp, nil
}
