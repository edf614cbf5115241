package playbill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/backstage/plugin/assistant/cache"
	"github.com/hrygo/backstage/plugin/assistant/chrono"
	"github.com/hrygo/backstage/plugin/assistant/timeout"
)

const (
	listingsCacheKey = "playbill:listings"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxBodyBytes     = 4 << 20
)

// Config configures a Client.
type Config struct {
	PlaybillURL string
	NewsURL     string
	UserAgent   string
	// Timeout bounds each page fetch.
	Timeout time.Duration
	// CacheTTL is how long a fetched playbill is reused.
	CacheTTL time.Duration
}

// Client fetches and parses the venue pages. Parsed listings are kept in the
// cache so week queries do not hit the site on every message.
type Client struct {
	cfg    Config
	http   *http.Client
	cache  cache.CacheService
	filter *Filter
}

// NewClient creates a playbill client. cache and filter may be nil.
func NewClient(cfg Config, c cache.CacheService, filter *Filter) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeout.FeedTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = timeout.ListingTTL
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		cache:  c,
		filter: filter,
	}
}

// ListEvents returns the filtered listings dated within [start, end], in
// page order. Excursions are never returned.
func (c *Client) ListEvents(ctx context.Context, start, end chrono.Date) ([]Listing, error) {
	all, err := c.Listings(ctx)
	if err != nil {
		return nil, err
	}

	week := chrono.Week{Start: start, End: end}
	var out []Listing
	for _, l := range all {
		if l.Kind == KindExcursion {
			continue
		}
		d, err := chrono.ParseDate(l.Date)
		if err != nil || !week.Contains(d) {
			continue
		}
		if !c.filter.Match(l) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// Listings returns the whole playbill, from cache when fresh.
func (c *Client) Listings(ctx context.Context) ([]Listing, error) {
	if c.cache != nil {
		if raw, ok := c.cache.Get(ctx, listingsCacheKey); ok {
			var listings []Listing
			if err := json.Unmarshal(raw, &listings); err == nil {
				return listings, nil
			}
			slog.Warn("discarding corrupt playbill cache entry")
		}
	}
	return c.Refresh(ctx)
}

// Refresh fetches the playbill and replaces the cached copy.
func (c *Client) Refresh(ctx context.Context) ([]Listing, error) {
	body, err := c.get(ctx, c.cfg.PlaybillURL)
	if err != nil {
		return nil, err
	}
	listings, err := ParsePlaybill(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		raw, err := json.Marshal(listings)
		if err == nil {
			err = c.cache.Set(ctx, listingsCacheKey, raw, c.cfg.CacheTTL)
		}
		if err != nil {
			slog.Warn("failed to cache playbill", slog.String("error", err.Error()))
		}
	}
	slog.Debug("playbill fetched", slog.Int("listings", len(listings)))
	return listings, nil
}

// News returns up to limit dated news items. An empty page is not an error.
func (c *Client) News(ctx context.Context, limit int) ([]string, error) {
	body, err := c.get(ctx, c.cfg.NewsURL)
	if err != nil {
		return nil, err
	}
	return ParseNews(bytes.NewReader(body), limit)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", url)
	}
	return body, nil
}

// String identifies the client in logs.
func (c *Client) String() string {
	return fmt.Sprintf("playbill(%s)", c.cfg.PlaybillURL)
}
