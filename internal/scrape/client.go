package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/leavex/mepsonx/internal/log"
)

// ErrStatus is returned, wrapped, for responses outside the 2xx range.
var ErrStatus = errors.New("unexpected HTTP status")

// ListPath is the path of the full MEP list page.
const ListPath = "/meps/en/full-list/all"

// maxPageSize caps how much of a response body is read.
const maxPageSize = 8 << 20

// progressEvery is how often ScrapeAll logs progress, in profiles.
const progressEvery = 10

// Options configures a Client. Zero values fall back to the defaults
// noted on each field.
type Options struct {
	// BaseURL of the Parliament website, https://www.europarl.europa.eu.
	BaseURL string
	// UserAgent sent with every request.
	UserAgent string
	// Delay between two requests; 200ms. Negative disables the limit.
	Delay time.Duration
	// Timeout per request; 15s.
	Timeout time.Duration
	// Concurrency is the number of profiles fetched at once; 4.
	Concurrency int
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client fetches and parses pages of the Parliament website.
type Client struct {
	base        *url.URL
	userAgent   string
	concurrency int
	http        *http.Client
	limiter     *rate.Limiter
	logger      *log.Logger
}

// New returns a Client for opts.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.europarl.europa.eu"
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "mepsonx/1.0 (+https://leavex.eu)"
	}
	if opts.Delay == 0 {
		opts.Delay = 200 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		base:        base,
		userAgent:   opts.UserAgent,
		concurrency: opts.Concurrency,
		http:        hc,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      opts.Logger,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// ListURL returns the URL of the full list page.
func (c *Client) ListURL() string {
	return c.base.ResolveReference(&url.URL{Path: ListPath}).String()
}

func (c *Client) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: %w: %s", pageURL, ErrStatus, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pageURL, err)
	}
	return body, nil
}

// List fetches the full list page and returns the MEPs it links to.
func (c *Client) List(ctx context.Context) ([]Entry, error) {
	listURL := c.ListURL()
	c.logger.Infof("fetching full list: %s", listURL)
	body, err := c.fetch(ctx, listURL)
	if err != nil {
		return nil, err
	}
	entries, err := ParseList(bytes.NewReader(body), c.base.String())
	if err != nil {
		return nil, err
	}
	c.logger.Infof("found %d unique MEP ids", len(entries))
	return entries, nil
}

// Profile fetches and parses the profile page of e.
func (c *Client) Profile(ctx context.Context, e Entry) (Profile, error) {
	c.logger.Printf("fetching MEP %s: %s", e.ID, e.URL)
	body, err := c.fetch(ctx, e.URL)
	if err != nil {
		return Profile{}, err
	}
	return ParseProfile(e.ID, e.URL, bytes.NewReader(body))
}

// ScrapeAll fetches the list and every profile on it. Failing to fetch
// the list is an error; a profile that fails is logged and left out. The
// result keeps list order. With onlyWithX, profiles without an X account
// are dropped.
func (c *Client) ScrapeAll(ctx context.Context, onlyWithX bool) ([]Profile, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*Profile, len(entries))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, e := range entries {
		g.Go(func() error {
			p, err := c.Profile(gctx, e)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.Warnf("skipping MEP %s: %v", e.ID, err)
			} else {
				results[i] = &p
			}
			if n := done.Add(1); n%progressEvery == 0 {
				c.logger.Infof("processed %d MEPs...", n)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(entries))
	for _, p := range results {
		if p == nil {
			continue
		}
		if onlyWithX && p.XURL == "" {
			c.logger.Printf("skipping %s (no X)", p.ID)
			continue
		}
		profiles = append(profiles, *p)
	}
	c.logger.Infof("scraping finished, collected %d MEPs", len(profiles))
	return profiles, nil
}
