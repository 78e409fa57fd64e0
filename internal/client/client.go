// Package client is the authenticated HTTP client for the marketplace API.
//
// Every call, JSON or multipart, goes through the same transport: it adds
// the stored bearer token and clears the stored session when the backend
// answers 401. Network failures surface as ErrServerUnreachable, other
// non-2xx answers as *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultUploadTimeout = 60 * time.Second

	defaultUserAgent = "marketplace-client/1.0"
	maxResponseBytes = 4 << 20
)

// Config holds the client's connection settings.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
}

// Client calls the marketplace API on behalf of the stored session.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	upload    *http.Client
	storage   Storage
	logger    zerolog.Logger
	userAgent string
}

// Option configures a Client.
type Option func(*options)

type options struct {
	base      http.RoundTripper
	logger    *zerolog.Logger
	userAgent string
}

// WithHTTPClient uses hc's transport underneath the auth layer.
// Timeouts still come from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		if hc != nil && hc.Transport != nil {
			o.base = hc.Transport
		}
	}
}

// WithLogger sets the logger used for request and session events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithUserAgent overrides the User-Agent header. Blank values are ignored.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if strings.TrimSpace(ua) != "" {
			o.userAgent = ua
		}
	}
}

// New builds a Client for cfg.BaseURL backed by storage.
func New(cfg Config, storage Storage, opts ...Option) (*Client, error) {
	if storage == nil {
		return nil, errors.New("client: storage is required")
	}
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", cfg.BaseURL)
	}

	o := options{base: http.DefaultTransport, userAgent: defaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}
	logger = logger.With().Str("component", "api_client").Logger()

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}

	rt := &authTransport{base: o.base, origin: base, storage: storage, logger: logger}

	return &Client{
		baseURL:   base,
		http:      &http.Client{Transport: rt, Timeout: cfg.Timeout},
		upload:    &http.Client{Transport: rt, Timeout: cfg.UploadTimeout},
		storage:   storage,
		logger:    logger,
		userAgent: o.userAgent,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// doJSON sends body as JSON and decodes a 2xx response into out.
// A nil body sends no payload, a nil out discards the response.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(c.http, req, out)
}

func (c *Client) doMultipart(ctx context.Context, path, field, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return fmt.Errorf("read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.send(c.upload, req, out)
}

func (c *Client) send(hc *http.Client, req *http.Request, out any) error {
	ctx := req.Context()
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("Server unreachable")
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
