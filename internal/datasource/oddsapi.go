// Package datasource fetches priced selections from the upstream odds API
// and normalizes them into the internal selection model.
package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/config"
	"github.com/yourusername/acca-engine/internal/metrics"
	"github.com/yourusername/acca-engine/internal/models"
)

const (
	sportsCacheKey  = "sports"
	oddsCachePrefix = "odds:"
)

// apiEvent represents one event in the odds API response
type apiEvent struct {
	SportKey     string    `json:"sport_key"`
	SportNice    string    `json:"sport_nice"`
	Teams        []string  `json:"teams"`
	CommenceTime int64     `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	Sites        []apiSite `json:"sites"`
}

// apiSite represents one bookmaker's prices for an event
type apiSite struct {
	SiteKey    string  `json:"site_key"`
	SiteNice   string  `json:"site_nice"`
	LastUpdate int64   `json:"last_update"`
	Odds       apiOdds `json:"odds"`
}

// apiOdds holds the head-to-head price array: [home, away] or
// [home, away, draw] in American format.
type apiOdds struct {
	H2H []float64 `json:"h2h"`
}

// apiSport represents one entry of the sports listing endpoint
type apiSport struct {
	Key string `json:"key"`
}

// Client fetches odds from the odds API with rate limiting, retries, and a
// short-lived response cache. Without an API key the client serves canned
// development data instead of calling out.
type Client struct {
	httpClient *RateLimitedHTTPClient
	normalizer *Normalizer
	cache      *gocache.Cache
	baseURL    string
	apiKey     string
	region     string
	logger     *logrus.Logger
}

// NewClient creates an odds API client from configuration
func NewClient(cfg config.OddsAPIConfig, logger *logrus.Logger) *Client {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.MaxRetries
	httpCfg.RateLimit = cfg.RateLimitPerSecond
	httpCfg.RequestCap = cfg.MonthlyRequestCap

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	if cfg.MockMode() {
		logger.Warn("Odds API key not set, serving mock data")
	}

	return &Client{
		httpClient: NewRateLimitedHTTPClient(httpCfg, logger),
		normalizer: NewNormalizer(logger),
		cache:      gocache.New(ttl, ttl*2),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		region:     cfg.Region,
		logger:     logger,
	}
}

// FetchOdds retrieves the head-to-head selections for a sport. Responses are
// cached for the configured TTL so repeated UI refreshes do not burn through
// the provider's request quota.
func (c *Client) FetchOdds(ctx context.Context, sport string) ([]models.Selection, error) {
	if cached, found := c.cache.Get(oddsCachePrefix + sport); found {
		return cached.([]models.Selection), nil
	}

	start := time.Now()
	selections, err := c.fetchOdds(ctx, sport)
	metrics.RecordOddsFetch(time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	c.cache.Set(oddsCachePrefix+sport, selections, gocache.DefaultExpiration)
	return selections, nil
}

func (c *Client) fetchOdds(ctx context.Context, sport string) ([]models.Selection, error) {
	if c.apiKey == "" {
		return MockSelections(), nil
	}

	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, url.PathEscape(sport), url.Values{
		"apiKey":     {c.apiKey},
		"regions":    {c.region},
		"markets":    {"h2h"},
		"oddsFormat": {"american"},
	}.Encode())

	var events []apiEvent
	if err := c.getJSON(ctx, endpoint, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch odds for %s: %w", sport, err)
	}

	selections := c.normalizer.NormalizeEvents(events)

	c.logger.WithFields(logrus.Fields{
		"sport":      sport,
		"events":     len(events),
		"selections": len(selections),
	}).Info("Fetched odds")

	return selections, nil
}

// AvailableSports returns the provider's sport keys
func (c *Client) AvailableSports(ctx context.Context) ([]string, error) {
	if c.apiKey == "" {
		return []string{"soccer_epl", "basketball_nba"}, nil
	}

	if cached, found := c.cache.Get(sportsCacheKey); found {
		return cached.([]string), nil
	}

	endpoint := fmt.Sprintf("%s/sports?apiKey=%s", c.baseURL, url.QueryEscape(c.apiKey))

	var sports []apiSport
	if err := c.getJSON(ctx, endpoint, &sports); err != nil {
		return nil, fmt.Errorf("failed to fetch sports: %w", err)
	}

	keys := make([]string, 0, len(sports))
	for _, sp := range sports {
		keys = append(keys, sp.Key)
	}

	c.cache.Set(sportsCacheKey, keys, gocache.DefaultExpiration)
	return keys, nil
}

// getJSON executes a GET request and decodes the JSON response body
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("odds API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode odds API response: %w", err)
	}
	return nil
}

// RequestsUsed reports requests consumed from the provider quota
func (c *Client) RequestsUsed() int {
	return c.httpClient.RequestsUsed()
}

// Close releases the underlying HTTP client resources
func (c *Client) Close() error {
	return c.httpClient.Close()
}
