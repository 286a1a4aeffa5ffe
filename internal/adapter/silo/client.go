// Package silo fetches historical daily climate data from the SILO API.
package silo

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/adapter/cache"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/csvtable"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/resilient"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	"github.com/harryeslick/weather-tools-sub000/internal/observability"
)

const (
	DefaultBaseURL = "https://www.longpaddock.qld.gov.au/cgi-bin/silo"

	patchedPointPath = "PatchedPointDataset.php"
	dataDrillPath    = "DataDrillDataset.php"
	dateParam        = "20060102"
)

// DefaultVariables are requested when a query names none.
var DefaultVariables = []string{"daily", "radiation", "vp", "mslp"}

var (
	// ErrRequestRejected means SILO answered 200 with an error page.
	ErrRequestRejected = errors.New("silo rejected the request")
	// ErrInvalidQuery covers missing or inconsistent query fields.
	ErrInvalidQuery = errors.New("invalid silo query")
)

// Query selects a station or grid point and a date range. Variables may name
// presets.
type Query struct {
	StationCode string
	Lat         float64
	Lon         float64
	Start       time.Time
	End         time.Time
	Variables   []string
}

func (q Query) validate() error {
	if q.Start.IsZero() || q.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidQuery)
	}
	if q.End.Before(q.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidQuery,
			q.End.Format(domain.DateLayout), q.Start.Format(domain.DateLayout))
	}
	return nil
}

// Client implements the historical source for the merge pipeline.
type Client struct {
	baseURL string
	apiKey  string
	http    *resilient.Client
	cache   cache.Cache
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a SILO client. apiKey is the registered email address SILO
// uses as the username. cache may be nil.
func NewClient(baseURL, apiKey string, httpClient *resilient.Client, c cache.Cache, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		cache:   c,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch runs q and parses the CSV response into a series in canonical naming.
func (c *Client) Fetch(ctx context.Context, q Query) (domain.Series, error) {
	if err := q.validate(); err != nil {
		return domain.Series{}, err
	}
	vars := q.Variables
	if len(vars) == 0 {
		vars = DefaultVariables
	}
	names, err := domain.ExpandStrict(vars...)
	if err != nil {
		return domain.Series{}, err
	}
	for _, name := range names {
		if err := domain.CheckAvailability(name, q.Start.Year()); err != nil {
			return domain.Series{}, err
		}
	}

	endpoint, params := c.request(q, domain.CodesFor(names))
	key := cacheKey(endpoint, params)
	body, ok := c.cached(key)
	if !ok {
		body, err = c.fetch(ctx, endpoint+"?"+params.Encode())
		if err != nil {
			return domain.Series{}, err
		}
	}

	s, ignored, err := csvtable.Read(bytes.NewReader(body))
	if err != nil {
		return domain.Series{}, fmt.Errorf("parse silo response: %w", err)
	}
	if !ok && c.cache != nil {
		c.cache.Set(key, body)
	}
	c.logger.Debug("silo data parsed", "rows", s.Len(), "ignored_columns", len(ignored))
	s.SortByDate()
	return s, nil
}

// FetchHistorical returns DefaultVariables for loc over [start, end].
func (c *Client) FetchHistorical(ctx context.Context, loc domain.Location, start, end time.Time) (domain.Series, error) {
	began := time.Now()
	s, err := c.Fetch(ctx, Query{
		StationCode: loc.StationCode,
		Lat:         loc.Lat,
		Lon:         loc.Lon,
		Start:       start,
		End:         end,
	})
	c.metrics.FetchDuration.WithLabelValues("silo").Observe(time.Since(began).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("silo", "error").Inc()
		return domain.Series{}, fmt.Errorf("silo history for %s: %w", loc.Key(), err)
	}
	c.metrics.FetchRequests.WithLabelValues("silo", "success").Inc()
	return s, nil
}

// request picks the PatchedPoint endpoint for stations and DataDrill for grid points.
func (c *Client) request(q Query, codes string) (string, url.Values) {
	params := url.Values{
		"start":    {q.Start.Format(dateParam)},
		"finish":   {q.End.Format(dateParam)},
		"format":   {"csv"},
		"username": {c.apiKey},
		"comment":  {codes},
	}
	if q.StationCode != "" {
		params.Set("station", q.StationCode)
		return c.baseURL + "/" + patchedPointPath, params
	}
	params.Set("lat", strconv.FormatFloat(q.Lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(q.Lon, 'f', 4, 64))
	params.Set("password", "apirequest")
	return c.baseURL + "/" + dataDrillPath, params
}

func (c *Client) cached(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if reason, ok := rejection(body); ok {
		return nil, fmt.Errorf("%w: %s", ErrRequestRejected, reason)
	}
	return body, nil
}

// rejection recognises SILO's plain-text and HTML error pages. Only the start of the
// body is inspected so CSV data mentioning either phrase is accepted.
func rejection(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	switch {
	case bytes.HasPrefix(trimmed, []byte("Sorry")), bytes.HasPrefix(trimmed, []byte("Request Rejected")):
		return firstLine(trimmed), true
	case bytes.HasPrefix(trimmed, []byte("<")) && bytes.Contains(trimmed, []byte("Request Rejected")):
		return "Request Rejected", true
	}
	return "", false
}

func firstLine(body []byte) string {
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[:i]
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(bytes.TrimSpace(body))
}

func cacheKey(endpoint string, params url.Values) string {
	// The API key is not part of the identity of the data.
	p := url.Values{}
	for k, v := range params {
		if k != "username" {
			p[k] = v
		}
	}
	sum := md5.Sum([]byte(endpoint + "?" + p.Encode()))
	return hex.EncodeToString(sum[:])
}
