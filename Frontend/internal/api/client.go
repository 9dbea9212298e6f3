package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "bookstore_api_request_duration_seconds",
	Help:    "Latency of calls to the bookstore API.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "status"})

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RetryMax  int
	CacheSize int
	CacheTTL  time.Duration
}

// Client talks to the bookstore API. GETs go through a retrying client;
// writes are sent once so a slow checkout is never submitted twice.
type Client struct {
	baseURL string
	get     *retryablehttp.Client
	http    *http.Client
	cache   *expirable.LRU[string, []byte]
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = zerologAdapter{}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: opts.BaseURL,
		get:     rc,
		http:    &http.Client{Timeout: opts.Timeout},
		cache:   expirable.NewLRU[string, []byte](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// PurgeCache drops every cached catalog list.
func (c *Client) PurgeCache() {
	c.cache.Purge()
	log.Debug().Msg("api cache purged")
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	body, err := c.send(ctx, method, path, token, in)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// cached serves public GETs from the LRU, filling it on a miss.
func (c *Client) cached(ctx context.Context, path string, out any) error {
	if body, ok := c.cache.Get(path); ok {
		return decode(body, out)
	}
	body, err := c.send(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	c.cache.Add(path, body)
	return decode(body, out)
}

func (c *Client) send(ctx context.Context, method, path, token string, in any) ([]byte, error) {
	url := c.baseURL + path
	start := time.Now()

	var resp *http.Response
	var err error
	if method == http.MethodGet {
		req, rerr := retryablehttp.NewRequestWithContext(ctx, method, url, nil)
		if rerr != nil {
			return nil, rerr
		}
		setHeaders(req.Header, token, false)
		resp, err = c.get.Do(req)
	} else {
		var reader io.Reader
		if in != nil {
			b, merr := json.Marshal(in)
			if merr != nil {
				return nil, fmt.Errorf("encode %s %s: %w", method, path, merr)
			}
			reader = bytes.NewReader(b)
		}
		req, rerr := http.NewRequestWithContext(ctx, method, url, reader)
		if rerr != nil {
			return nil, rerr
		}
		setHeaders(req.Header, token, in != nil)
		resp, err = c.http.Do(req)
	}
	if err != nil {
		apiDuration.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("api call failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	apiDuration.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode, Message: errorMessage(body)}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		log.Warn().Int("status", resp.StatusCode).Str("method", method).Str("path", path).
			Str("message", apiErr.Message).Msg("api error")
		return nil, apiErr
	}
	log.Debug().Int("status", resp.StatusCode).Str("method", method).Str("path", path).
		Dur("took", time.Since(start)).Msg("api call")
	return body, nil
}

func setHeaders(h http.Header, token string, hasBody bool) {
	h.Set("Accept", "application/json")
	if hasBody {
		h.Set("Content-Type", "application/json")
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// zerologAdapter satisfies retryablehttp.LeveledLogger.
type zerologAdapter struct{}

func (zerologAdapter) Error(msg string, kv ...interface{}) { log.Error().Fields(kv).Msg(msg) }
func (zerologAdapter) Info(msg string, kv ...interface{})  { log.Debug().Fields(kv).Msg(msg) }
func (zerologAdapter) Debug(msg string, kv ...interface{}) { log.Trace().Fields(kv).Msg(msg) }
func (zerologAdapter) Warn(msg string, kv ...interface{})  { log.Warn().Fields(kv).Msg(msg) }
