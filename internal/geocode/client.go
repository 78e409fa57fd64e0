// Package geocode turns free-text addresses into postal codes through a
// Nominatim-style search API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 10 * time.Second

// Result is the reduced answer of one search: the first hit's postal code.
type Result struct {
	PostalCode string
	Found      bool
}

// Geocoder resolves a free-text query.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Result, error)
}

// StatusError is a non-200 answer from the provider.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocode: status %d", e.StatusCode)
}

// Client queries GET {base}/search with an API key and a country filter.
type Client struct {
	baseURL    string
	apiKey     string
	country    string
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// WithCountry restricts results to one ISO 3166-1 alpha-2 country.
// An empty code searches worldwide.
func WithCountry(code string) Option {
	return func(c *Client) {
		c.country = strings.ToLower(strings.TrimSpace(code))
	}
}

// WithLogger sets the logger for request traces.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a provider client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("geocode: base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("geocode: api key is required")
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "marketplace-geocoder/1.0",
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchItem struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Postcode string `json:"postcode"`
	} `json:"address"`
}

// Geocode returns the postal code of the first search hit.
// No hits, or a first hit without a postcode, is a miss and not an error.
func (c *Client) Geocode(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("addressdetails", "1")
	params.Set("format", "json")
	if c.country != "" {
		params.Set("countrycodes", c.country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search", nil)
	if err != nil {
		return Result{}, err
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocode %q: %w", query, redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("query", query).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Geocode request")

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Result{}, fmt.Errorf("geocode %q: %w", query, &StatusError{StatusCode: resp.StatusCode})
	}

	var items []searchItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return Result{}, fmt.Errorf("geocode %q: decode response: %w", query, err)
	}
	if len(items) == 0 {
		return Result{}, nil
	}

	code := strings.TrimSpace(items[0].Address.Postcode)
	if code == "" {
		c.logger.Debug().Str("query", query).Str("match", items[0].DisplayName).Msg("First match has no postcode")
		return Result{}, nil
	}
	return Result{PostalCode: code, Found: true}, nil
}

// redactKey keeps the API key out of *url.Error messages, which embed the full URL.
func redactKey(err error, key string) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) || key == "" {
		return err
	}
	redacted := *uerr
	redacted.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(key), "REDACTED")
	return &redacted
}
