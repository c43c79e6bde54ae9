package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxBodySize = 4 << 20 // 4MB
)

// PageFetcher returns the raw body of a page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// FetchError reports a failed page fetch. StatusCode is 0 when no response
// was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("collector: fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("collector: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode extracts the transport status code from err, if any.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// HTTPFetcher fetches pages with a browser-like header set and retries
// once with an alternate header set before giving up.
type HTTPFetcher struct {
	timeout    time.Duration
	maxBody    int
	headerSets []http.Header
	limiter    *rate.Limiter
	transport  http.RoundTripper
	logger     *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRate limits requests per second across all sources; 0 disables limiting.
func WithRate(perSecond float64) Option {
	return func(f *HTTPFetcher) {
		if perSecond <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithHeaderSets replaces the header sets tried in order.
func WithHeaderSets(sets ...http.Header) Option {
	return func(f *HTTPFetcher) {
		if len(sets) > 0 {
			f.headerSets = sets
		}
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *HTTPFetcher) {
		if rt != nil {
			f.transport = rt
		}
	}
}

// WithLogger sets the logger used for failed attempts.
func WithLogger(l *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewHTTPFetcher builds a fetcher with the default header sets, a 15s
// timeout, one request per second and an instrumented transport.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		timeout:    defaultTimeout,
		maxBody:    defaultMaxBodySize,
		headerSets: []http.Header{BrowserHeaders(), AlternateHeaders()},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		transport:  otelhttp.NewTransport(http.DefaultTransport),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchPage tries each header set in order and returns the first successful
// body. The last attempt's error is returned as a *FetchError.
func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for i, headers := range f.headerSets {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}

		body, err := f.visit(url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if i < len(f.headerSets)-1 {
			f.logger.Warn("fetch attempt failed, retrying with alternate headers",
				"url", url, "attempt", i+1, "status", StatusCode(err), "error", err)
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) visit(url string, headers http.Header) ([]byte, error) {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.MaxBodySize(f.maxBody),
	)
	c.SetRequestTimeout(f.timeout)
	c.WithTransport(f.transport)

	var (
		body    []byte
		status  int
		failure error
	)

	c.OnRequest(func(r *colly.Request) {
		for k, vs := range headers {
			for i, v := range vs {
				if i == 0 {
					r.Headers.Set(k, v)
				} else {
					r.Headers.Add(k, v)
				}
			}
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		failure = err
	})

	if err := c.Visit(url); err != nil {
		if failure == nil {
			failure = err
		}
		return nil, &FetchError{URL: url, StatusCode: status, Err: failure}
	}
	if failure != nil {
		return nil, &FetchError{URL: url, StatusCode: status, Err: failure}
	}
	if status < 200 || status > 299 {
		return nil, &FetchError{URL: url, StatusCode: status, Err: errors.New("unexpected status")}
	}
	return body, nil
}

// BrowserHeaders is the primary desktop-browser header set.
func BrowserHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	return h
}

// AlternateHeaders is the header set used for the retry.
func AlternateHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15")
	h.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-IN,en;q=0.8")
	h.Set("Referer", "https://www.google.com/")
	return h
}
