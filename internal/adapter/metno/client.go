// Package metno fetches forecasts from the met.no Locationforecast 2.0 API and
// aggregates them to daily values.
package metno

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/adapter/cache"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/resilient"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	"github.com/harryeslick/weather-tools-sub000/internal/observability"
)

const (
	DefaultBaseURL = "https://api.met.no/weatherapi/locationforecast/2.0"
	maxDays        = 9
)

// Format selects the compact or complete product.
type Format string

const (
	FormatCompact  Format = "compact"
	FormatComplete Format = "complete"
)

var (
	// ErrUserAgent means met.no rejected the request's User-Agent (HTTP 403).
	ErrUserAgent = errors.New("met.no rejected the User-Agent; identify your application and contact address")
	// ErrRateLimited means met.no throttled the client (HTTP 429).
	ErrRateLimited = errors.New("met.no rate limit exceeded")
	// ErrInvalidDays is returned for day counts outside 1..9.
	ErrInvalidDays = fmt.Errorf("forecast days must be between 1 and %d", maxDays)
)

// APIError is any other non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("met.no API error: status %d: %s", e.StatusCode, e.Body)
}

// Query identifies one forecast request.
type Query struct {
	Lat      float64
	Lon      float64
	Altitude *int
	Format   Format
}

func (q Query) params() url.Values {
	v := url.Values{
		"lat": {strconv.FormatFloat(q.Lat, 'f', 4, 64)},
		"lon": {strconv.FormatFloat(q.Lon, 'f', 4, 64)},
	}
	if q.Altitude != nil {
		v.Set("altitude", strconv.Itoa(*q.Altitude))
	}
	return v
}

// Client implements the forecast source for the merge pipeline.
type Client struct {
	baseURL   string
	userAgent string
	http      *resilient.Client
	cache     cache.Cache
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewClient creates a met.no client. cache may be nil to disable caching.
func NewClient(baseURL, userAgent string, httpClient *resilient.Client, c cache.Cache, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      httpClient,
		cache:     c,
		metrics:   metrics,
		logger:    logger,
	}
}

// Forecast returns the raw forecast for q.
func (c *Client) Forecast(ctx context.Context, q Query) (Response, error) {
	if q.Format == "" {
		q.Format = FormatCompact
	}
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, q.Format)
	params := q.params()
	key := cacheKey(endpoint, params)

	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			c.metrics.ForecastCache.WithLabelValues("hit").Inc()
			return decode(body)
		}
		c.metrics.ForecastCache.WithLabelValues("miss").Inc()
	}

	body, err := c.fetch(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return Response{}, err
	}
	resp, err := decode(body)
	if err != nil {
		return Response{}, err
	}
	if c.cache != nil {
		c.cache.Set(key, body)
	}
	return resp, nil
}

// DailyForecast returns up to days daily summaries for q.
func (c *Client) DailyForecast(ctx context.Context, q Query, days int) ([]DailySummary, error) {
	if days < 1 || days > maxDays {
		return nil, ErrInvalidDays
	}
	resp, err := c.Forecast(ctx, q)
	if err != nil {
		return nil, err
	}
	daily := AggregateDaily(resp.Properties.Timeseries, c.logger)
	if len(daily) > days {
		daily = daily[:days]
	}
	return daily, nil
}

// FetchForecast returns the daily forecast for loc as a series in met.no naming.
func (c *Client) FetchForecast(ctx context.Context, loc domain.Location, days int) (domain.Series, error) {
	start := time.Now()
	daily, err := c.DailyForecast(ctx, Query{Lat: loc.Lat, Lon: loc.Lon, Altitude: loc.Altitude}, days)
	c.metrics.FetchDuration.WithLabelValues("metno").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("metno", "error").Inc()
		return domain.Series{}, fmt.Errorf("metno forecast for %s: %w", loc.Key(), err)
	}
	c.metrics.FetchRequests.WithLabelValues("metno", "success").Inc()
	return DailySeries(daily), nil
}

// ClearCache drops all cached responses.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("metno forecast fetched", "url", fullURL, "bytes", len(body))
	return body, nil
}

func classify(err error) error {
	var se *resilient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.StatusCode {
	case http.StatusForbidden:
		return ErrUserAgent
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return &APIError{StatusCode: se.StatusCode, Body: se.Body}
}

func decode(body []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return r, nil
}

// cacheKey hashes the endpoint plus its sorted query parameters.
func cacheKey(endpoint string, params url.Values) string {
	sum := md5.Sum([]byte(endpoint + "?" + params.Encode()))
	return hex.EncodeToString(sum[:])
}

// met.no Locationforecast response types.

type Response struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat, altitude]
	} `json:"geometry"`
	Properties struct {
		Meta struct {
			UpdatedAt time.Time `json:"updated_at"`
		} `json:"meta"`
		Timeseries []TimeStep `json:"timeseries"`
	} `json:"properties"`
}

type TimeStep struct {
	Time time.Time `json:"time"`
	Data struct {
		Instant struct {
			Details map[string]float64 `json:"details"`
		} `json:"instant"`
		Next1Hours  *Period `json:"next_1_hours,omitempty"`
		Next6Hours  *Period `json:"next_6_hours,omitempty"`
		Next12Hours *Period `json:"next_12_hours,omitempty"`
	} `json:"data"`
}

type Period struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details map[string]float64 `json:"details"`
}
