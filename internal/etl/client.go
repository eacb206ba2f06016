package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/alstn9213/open-insight/internal/config"
	"github.com/alstn9213/open-insight/internal/resilience"
)

// StoreFigures is one commercial-district API record for a region and
// business category.
type StoreFigures struct {
	StoreCount   int     `json:"store_count"`
	AverageSales int64   `json:"average_sales"`
	GrowthRate   float64 `json:"growth_rate"`
	ClosingRate  float64 `json:"closing_rate"`
}

// PopulationFigures is one floating-population API record for a region.
type PopulationFigures struct {
	Floating int    `json:"floating_population"`
	Male     int    `json:"male_population"`
	Female   int    `json:"female_population"`
	AgeGroup string `json:"top_age_group"`
}

type storeResponse struct {
	Items []StoreFigures `json:"items"`
}

// Client calls the two public-data APIs that feed the nightly collection:
// the commercial-district store API and the floating-population API. A
// single limiter paces both since they share an API-key quota.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig

	storeURL string
	storeKey string
	popURL   string
	popKey   string
}

func NewClient(cfg config.IngestConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 10
	}

	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("open-data", "fetch")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:  rate.NewLimiter(rate.Limit(rps), int(rps)),
		retry:    retry,
		storeURL: cfg.StoreAPIURL,
		storeKey: cfg.StoreAPIKey,
		popURL:   cfg.PopulationAPIURL,
		popKey:   cfg.PopulationAPIKey,
	}
}

// FetchStoreFigures returns store count and sales figures for one region
// and category. A region with no businesses in the category yields zero
// figures, not an error.
func (c *Client) FetchStoreFigures(ctx context.Context, admCode, categoryName string) (*StoreFigures, error) {
	q := url.Values{}
	q.Set("serviceKey", c.storeKey)
	q.Set("admCode", admCode)
	q.Set("category", categoryName)

	var resp storeResponse
	if err := c.getJSON(ctx, c.storeURL, q, &resp); err != nil {
		return nil, eris.Wrapf(err, "etl: fetch store figures for %s/%s", admCode, categoryName)
	}
	if len(resp.Items) == 0 {
		return &StoreFigures{}, nil
	}
	return &resp.Items[0], nil
}

// FetchPopulation returns floating-population figures for one region.
func (c *Client) FetchPopulation(ctx context.Context, admCode string) (*PopulationFigures, error) {
	q := url.Values{}
	q.Set("serviceKey", c.popKey)
	q.Set("admCode", admCode)

	var figures PopulationFigures
	if err := c.getJSON(ctx, c.popURL, q, &figures); err != nil {
		return nil, eris.Wrapf(err, "etl: fetch population for %s", admCode)
	}
	return &figures, nil
}

func (c *Client) getJSON(ctx context.Context, baseURL string, query url.Values, out any) error {
	if baseURL == "" {
		return eris.New("etl: api url not configured")
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "etl: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+query.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "etl: create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("etl: http %d from %s", resp.StatusCode, baseURL)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "etl: decode response")
	}
	return nil
}
