// Package fetch retrieves publication content over HTTP: passage text from a
// BioC-style structured API, and PDFs located by probing and scraping the
// publication landing page.
package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent mimics a desktop browser; several publishers reject
	// requests that look automated.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0 Safari/537.36"

	// DefaultStructuredURL is the NCBI BioC full-text endpoint.
	DefaultStructuredURL = "https://www.ncbi.nlm.nih.gov/research/bionlp/RESTful/pmcoa.cgi/BioC_json/{id}/unicode"

	DefaultTimeout         = 30 * time.Second
	DefaultProbeTimeout    = 15 * time.Second
	DefaultDownloadTimeout = 30 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultMaxPDFBytes     = 50 << 20

	// DefaultRateLimit is requests per second to the structured API.
	DefaultRateLimit = 3

	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf;q=0.9,*/*;q=0.8"
	acceptPDF  = "application/pdf,application/octet-stream;q=0.9,*/*;q=0.5"
	acceptJSON = "application/json"

	maxPageBytes = 10 << 20
	maxJSONBytes = 64 << 20
)

// Origin records where fetched text came from.
type Origin string

const (
	OriginStructuredAPI Origin = "StructuredAPI"
	OriginPDF           Origin = "PDF"
)

// Content is raw text obtained from a source.
// SourcePDFPath is set only when Origin is OriginPDF.
type Content struct {
	Origin        Origin
	RawText       string
	SourcePDFPath string
}

// Client fetches publication content.
type Client struct {
	httpClient      *http.Client
	userAgent       string
	structuredURL   string
	limiter         *rate.Limiter
	pdfDir          string
	probeTimeout    time.Duration
	downloadTimeout time.Duration
	maxRetries      int
	retryDelay      time.Duration
	maxPDFBytes     int64
	logger          zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithProbeTimeout bounds the "<link>/pdf" probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.probeTimeout = d
	}
}

// WithDownloadTimeout bounds each PDF download attempt.
func WithDownloadTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.downloadTimeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithStructuredURL sets the structured API URL template. The "{id}"
// placeholder is replaced by the publication's structured identifier.
func WithStructuredURL(tmpl string) Option {
	return func(c *Client) {
		c.structuredURL = tmpl
	}
}

// WithRateLimit sets requests per second for the structured API.
// Zero or less disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetries sets the number of download attempts and the pause between them.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = attempts
		c.retryDelay = delay
	}
}

// WithMaxPDFBytes bounds the size of a downloaded PDF.
func WithMaxPDFBytes(n int64) Option {
	return func(c *Client) {
		c.maxPDFBytes = n
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l.With().Str("component", "fetch").Logger()
	}
}

// NewClient creates a client that stores downloaded PDFs in pdfDir.
func NewClient(pdfDir string, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		userAgent:       DefaultUserAgent,
		structuredURL:   DefaultStructuredURL,
		limiter:         rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		pdfDir:          pdfDir,
		probeTimeout:    DefaultProbeTimeout,
		downloadTimeout: DefaultDownloadTimeout,
		maxRetries:      DefaultMaxRetries,
		retryDelay:      DefaultRetryDelay,
		maxPDFBytes:     DefaultMaxPDFBytes,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Timeout <= 0 || c.probeTimeout <= 0 || c.downloadTimeout <= 0 {
		return nil, ErrNoTimeout
	}
	if c.maxRetries < 1 {
		c.maxRetries = 1
	}
	return c, nil
}

// get issues a GET with browser-like headers.
// The caller is responsible for closing the response body.
func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidLink, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(url, err)
	}
	return resp, nil
}

// transportError maps a transport failure to a timeout or generic network error.
func transportError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindNetworkTimeout, URL: url, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindNetworkTimeout, URL: url, Err: err}
	}
	return &Error{Kind: KindNetwork, URL: url, Err: err}
}
