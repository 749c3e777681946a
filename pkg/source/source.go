package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/types"
)

// Loader loads the complete dataset.
type Loader interface {
	Load(ctx context.Context) (types.Dataset, error)
}

// LoadObserver is notified after every upstream request.
type LoadObserver func(endpoint string, took time.Duration, err error)

// Client fetches prices and load profiles from the upstream JSON API.
type Client struct {
	baseURL  string
	client   *http.Client
	cacheTTL time.Duration
	observer LoadObserver
}

// New returns a Client for the API at baseURL.
func New(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL:  baseURL,
		client:   client,
		cacheTTL: DefaultCacheTTL,
	}
}

// SetObserver registers a function called after every request.
func (c *Client) SetObserver(fn LoadObserver) {
	c.observer = fn
}

// CacheTTL returns how long a loaded dataset may be reused.
func (c *Client) CacheTTL() time.Duration {
	return c.cacheTTL
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.baseURL == "" {
		return fmt.Errorf("source-base-url is required")
	}
	if _, err := url.Parse(c.baseURL); err != nil {
		return fmt.Errorf("failed to parse source url (%s): %w", c.baseURL, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (_ []byte, err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer(path, time.Since(start), err)
		}
	}()

	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	log.Ctx(ctx).DebugContext(ctx, "fetching from source", slog.String("url", u))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: %d", path, ErrStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return body, nil
}

// FetchPrices returns the daily spot prices in cents/kWh.
func (c *Client) FetchPrices(ctx context.Context) ([]types.DailyPrices, error) {
	body, err := c.get(ctx, "/api/mongodb")
	if err != nil {
		return nil, err
	}
	prices, err := parsePrices(ctx, body)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "fetched prices", slog.Int("count", len(prices)))
	return prices, nil
}

// FetchProfile returns the household load profile of the given variant.
func (c *Client) FetchProfile(ctx context.Context, variant types.ProfileVariant) ([]types.ProfileDay, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("unknown profile variant: %q", string(variant))
	}
	body, err := c.get(ctx, "/api/"+string(variant))
	if err != nil {
		return nil, err
	}
	days, err := parseProfile(ctx, variant, body)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "fetched profile", slog.String("variant", string(variant)), slog.Int("count", len(days)))
	return days, nil
}

// Load fetches prices and both profiles concurrently. The load fails as a
// whole if any of them fails.
func (c *Client) Load(ctx context.Context) (types.Dataset, error) {
	var ds types.Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds.Prices, err = c.FetchPrices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.H0, err = c.FetchProfile(gctx, types.ProfileH0)
		return err
	})
	g.Go(func() error {
		var err error
		ds.H0PV, err = c.FetchProfile(gctx, types.ProfileH0PV)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load dataset", slog.Any("error", err))
		return types.Dataset{}, err
	}
	ds.LoadedAt = time.Now()
	return ds, nil
}
