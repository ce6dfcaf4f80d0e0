package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/splunk-upgrade-cli/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// Retry controls re-attempts of throttled or failed downloads. A zero
	// value makes a single attempt.
	Retry resilience.Retrier
	// RequestsPerSecond seeds the adaptive limiter. Zero uses 5.
	RequestsPerSecond float64
	// Jar carries session cookies, e.g. from a Splunkbase login.
	Jar                http.CookieJar
	InsecureSkipVerify bool
}

// AdaptiveLimiter is a rate limiter that backs off when the server answers
// 429 and recovers on success. The rate stays between a quarter of and twice
// the initial rate.
type AdaptiveLimiter struct {
	lim *rate.Limiter

	mu       sync.Mutex
	cur      rate.Limit
	min, max rate.Limit
}

// NewAdaptiveLimiter creates an AdaptiveLimiter starting at rps.
func NewAdaptiveLimiter(rps float64) *AdaptiveLimiter {
	r := rate.Limit(rps)
	return &AdaptiveLimiter{
		lim: rate.NewLimiter(r, max(1, int(rps))),
		cur: r,
		min: r / 4,
		max: r * 2,
	}
}

// Wait blocks until a request may be sent.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.lim.Wait(ctx)
}

// Limit returns the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cur
}

func (a *AdaptiveLimiter) recover() { a.scale(1.2) }

func (a *AdaptiveLimiter) throttle() {
	a.scale(0.5)
	zap.L().Warn("fetcher: throttled, lowering request rate", zap.Float64("rps", float64(a.Limit())))
}

func (a *AdaptiveLimiter) scale(f float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur = min(a.max, max(a.min, a.cur*rate.Limit(f)))
	a.lim.SetLimit(a.cur)
}

// HTTPFetcher implements Fetcher over net/http with rate limiting and retries.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *AdaptiveLimiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "splunk-upgrade/1.0"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for intercepting proxies
	}

	return &HTTPFetcher{
		client:  &http.Client{Timeout: opts.Timeout, Transport: transport, Jar: opts.Jar},
		opts:    opts,
		limiter: NewAdaptiveLimiter(opts.RequestsPerSecond),
	}
}

// get sends one rate-limited GET. Throttling and server errors come back as
// transient errors; any other non-200 status is a *StatusError.
func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: GET %s", req.URL.Redacted())
	}
	if resp.StatusCode == http.StatusOK {
		f.limiter.recover()
		return resp, nil
	}

	_ = resp.Body.Close()
	serr := &StatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted()}
	if resp.StatusCode == http.StatusTooManyRequests {
		f.limiter.throttle()
	}
	if resilience.TransientStatus(resp.StatusCode) {
		return nil, resilience.Transient(serr, resp.StatusCode)
	}
	return nil, serr
}

// Download fetches the URL and returns the response body.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := resilience.Retry(ctx, f.opts.Retry, func(ctx context.Context) (*http.Response, error) {
		return f.get(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// DownloadToFile fetches the URL and writes it to the given path. The parent
// directory is created if needed and a partial file is removed on failure.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrap(err, "fetcher: create directory")
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}

	n, err := io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d from %s", e.StatusCode, e.URL)
}
