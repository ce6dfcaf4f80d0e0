// Package splunkbase provides a client for the Splunkbase app catalog:
// account login, app lookup and release downloads.
package splunkbase

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/splunk-upgrade-cli/internal/fetcher"
	"github.com/sells-group/splunk-upgrade-cli/internal/resilience"
)

// DefaultBaseURL is the public Splunkbase endpoint.
const DefaultBaseURL = "https://splunkbase.splunk.com"

// appIncludes are the related objects requested with every app lookup.
const appIncludes = "support,created_by,categories,icon,screenshots,rating,releases,documentation," +
	"releases.content,releases.splunk_compatibility,releases.cim_compatibility," +
	"releases.install_method_single,releases.install_method_distributed," +
	"release,release.content,release.cim_compatibility,release.install_method_single," +
	"release.install_method_distributed,release.splunk_compatibility"

// ErrNotFound is returned when an app cannot be located in the catalog.
var ErrNotFound = eris.New("splunkbase: app not found")

// Client defines the Splunkbase catalog operations.
type Client interface {
	// Login authenticates the session used for release downloads.
	Login(ctx context.Context, username, password string) error
	// ResolveApp follows the inventory details link and returns the catalog app id.
	ResolveApp(ctx context.Context, detailsURL string) (string, error)
	// GetApp fetches the catalog record including all releases.
	GetApp(ctx context.Context, appID string) (*App, error)
	// ReleaseURL returns the download link of one release.
	ReleaseURL(uid, version string) string
	// DownloadRelease writes the release archive to dest and returns bytes written.
	DownloadRelease(ctx context.Context, uid, version, dest string) (int64, error)
}

// Option configures the Splunkbase client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.timeout = d
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		c.maxRetries = n
	}
}

// WithRateLimit caps catalog requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.rps = rps
	}
}

// WithInsecureSkipVerify disables TLS verification for intercepting proxies.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *httpClient) {
		c.insecure = skip
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

type httpClient struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	rps        float64
	insecure   bool
	userAgent  string

	http     *http.Client
	noFollow *http.Client
	limiter  *rate.Limiter
	policy   resilience.Policy
	breaker  *resilience.Breaker
	fetch    fetcher.Fetcher
}

// NewClient creates a new Splunkbase client. Session cookies from Login are
// shared by catalog requests and release downloads.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:    DefaultBaseURL,
		timeout:    60 * time.Second,
		maxRetries: 3,
		rps:        5,
		userAgent:  "splunk-upgrade/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	// Non-positive limits fall back to the defaults.
	if c.rps <= 0 {
		c.rps = 5
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}

	// cookiejar.New only fails on a bad PublicSuffixList, and none is passed.
	jar, _ := cookiejar.New(nil)

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if c.insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for intercepting proxies
	}

	c.http = &http.Client{Timeout: c.timeout, Transport: transport, Jar: jar}
	c.noFollow = &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	c.limiter = rate.NewLimiter(rate.Limit(c.rps), max(1, int(c.rps)))
	c.policy = resilience.CatalogPolicy(c.maxRetries)
	c.breaker = resilience.NewBreaker(c.policy.Breaker)
	c.fetch = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:          c.userAgent,
		Timeout:            c.timeout,
		Retry:              c.policy.Retry,
		RequestsPerSecond:  c.rps,
		Jar:                jar,
		InsecureSkipVerify: c.insecure,
	})
	return c
}

// do sends req through the rate limiter, retry policy and circuit breaker.
// Transient statuses are retried; the final body and status are returned.
func (c *httpClient) do(ctx context.Context, hc *http.Client, req *http.Request) (*http.Response, []byte, error) {
	type result struct {
		resp *http.Response
		body []byte
	}

	res, err := resilience.Call(ctx, c.breaker, func(ctx context.Context) (result, error) {
		return resilience.Retry(ctx, c.policy.Retry, func(ctx context.Context) (result, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return result{}, eris.Wrap(err, "splunkbase: rate limiter wait")
			}

			resp, err := hc.Do(req.Clone(ctx))
			if err != nil {
				return result{}, eris.Wrapf(err, "splunkbase: %s %s", req.Method, req.URL.Redacted())
			}
			body, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return result{}, resilience.Transient(eris.Wrap(readErr, "splunkbase: read response body"), resp.StatusCode)
			}

			if resilience.TransientStatus(resp.StatusCode) {
				return result{}, resilience.Transient(
					eris.Errorf("splunkbase: status %d from %s", resp.StatusCode, req.URL.Redacted()),
					resp.StatusCode,
				)
			}
			return result{resp: resp, body: body}, nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return res.resp, res.body, nil
}

func (c *httpClient) Login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/account:login/", strings.NewReader(form.Encode()))
	if err != nil {
		return eris.Wrap(err, "splunkbase: create login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	// Form bodies cannot be replayed by Clone, so login is sent once.
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "splunkbase: rate limiter wait")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "splunkbase: login request failed")
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("splunkbase: authentication failed with status %d", resp.StatusCode)
	}

	zap.L().Info("splunkbase: authentication successful", zap.String("username", username))
	return nil
}

func (c *httpClient) ResolveApp(ctx context.Context, detailsURL string) (string, error) {
	detailsURL = strings.TrimSpace(detailsURL)
	if detailsURL == "" || strings.EqualFold(detailsURL, "N/A") {
		return "", ErrNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailsURL, nil)
	if err != nil {
		return "", eris.Wrapf(err, "splunkbase: create resolve request for %q", detailsURL)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, _, err := c.do(ctx, c.noFollow, req)
	if err != nil {
		return "", err
	}

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return "", ErrNotFound
	}

	id := appIDFromLocation(resp.Header.Get("Location"))
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

// appIDFromLocation returns the last path segment of a redirect target.
func appIDFromLocation(loc string) string {
	if loc == "" {
		return ""
	}
	u, err := url.Parse(loc)
	if err != nil {
		return ""
	}
	base := path.Base(strings.TrimRight(u.Path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// AppURL returns the catalog API endpoint for appID.
func (c *httpClient) AppURL(appID string) string {
	return fmt.Sprintf("%s/api/v1/app/%s/?order=latest&include=%s", c.baseURL, url.PathEscape(appID), appIncludes)
}

func (c *httpClient) GetApp(ctx context.Context, appID string) (*App, error) {
	apiURL := c.AppURL(appID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "splunkbase: create app request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, body, err := c.do(ctx, c.http, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("splunkbase: unexpected status %d for app %s", resp.StatusCode, appID)
	}

	var app App
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, eris.Wrapf(err, "splunkbase: decode app %s", appID)
	}
	app.APIURL = apiURL
	return &app, nil
}

func (c *httpClient) ReleaseURL(uid, version string) string {
	return fmt.Sprintf("%s/app/%s/release/%s/download/", c.baseURL, url.PathEscape(uid), url.PathEscape(version))
}

func (c *httpClient) DownloadRelease(ctx context.Context, uid, version, dest string) (int64, error) {
	n, err := c.fetch.DownloadToFile(ctx, c.ReleaseURL(uid, version), dest)
	if err != nil {
		var se *fetcher.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return 0, ErrNotFound
		}
		return 0, eris.Wrapf(err, "splunkbase: download %s %s", uid, version)
	}
	return n, nil
}
