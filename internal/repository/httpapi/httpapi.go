// Package httpapi implements repository.CarRepository against the cars REST API.
//
// URL LAYOUT:
// The base URL points at the collection itself (default
// http://localhost:8080/api/cars). Single records live one segment below it:
//
//	GET    {base}        → []Car
//	GET    {base}/{id}   → Car, or 404 {"error":"Car not found"}
//	POST   {base}        → 201 Car
//	PUT    {base}/{id}   → Car
//	DELETE {base}/{id}   → 204
//
// ERROR MAPPING:
// Any non-2xx answer becomes apperror.Upstream carrying the body's "error"
// string when there is one. Failures before a status line arrives (refused
// connection, DNS, a body we could not decode) become apperror.Transport.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/car-listing/internal/apperror"
	"github.com/sakif/car-listing/internal/metrics"
	"github.com/sakif/car-listing/internal/model"
	"github.com/sakif/car-listing/internal/repository"
)

// DefaultBaseURL is where the original cars API listens.
const DefaultBaseURL = "http://localhost:8080/api/cars"

var _ repository.CarRepository = (*Client)(nil)

// Client talks to one cars API collection URL.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client (tests pass the one from
// httptest.Server).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records every call in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a client for baseURL. A trailing slash is ignored.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the collection URL in use.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) List(ctx context.Context) ([]model.Car, error) {
	var cars []model.Car
	if err := c.do(ctx, http.MethodGet, c.baseURL, nil, &cars); err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	if cars == nil {
		cars = []model.Car{}
	}
	return cars, nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (model.Car, error) {
	var car model.Car
	if err := c.do(ctx, http.MethodGet, c.itemURL(id), nil, &car); err != nil {
		return model.Car{}, fmt.Errorf("get car %d: %w", id, err)
	}
	return car, nil
}

func (c *Client) Create(ctx context.Context, in model.CarInput) (model.Car, error) {
	var car model.Car
	if err := c.do(ctx, http.MethodPost, c.baseURL, in, &car); err != nil {
		return model.Car{}, fmt.Errorf("create car: %w", err)
	}
	return car, nil
}

func (c *Client) Update(ctx context.Context, id int64, in model.CarInput) (model.Car, error) {
	var car model.Car
	if err := c.do(ctx, http.MethodPut, c.itemURL(id), in, &car); err != nil {
		return model.Car{}, fmt.Errorf("update car %d: %w", id, err)
	}
	return car, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil, nil); err != nil {
		return fmt.Errorf("delete car %d: %w", id, err)
	}
	return nil
}

func (c *Client) itemURL(id int64) string {
	return c.baseURL + "/" + strconv.FormatInt(id, 10)
}

// errorBody is the shape of every non-2xx response from the cars API.
type errorBody struct {
	Error string `json:"error"`
}

// do sends one request. body (if non-nil) is JSON-encoded; out (if non-nil)
// receives the decoded 2xx response.
func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	start := time.Now()
	outcome := metrics.OutcomeTransport
	defer func() {
		c.metrics.ObserveAPI(method, outcome, time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("cars api unreachable",
			slog.String("method", method),
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return apperror.Transport(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("cars api response",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = metrics.OutcomeUpstream
		var eb errorBody
		// The body is best effort: a missing or non-JSON body just means the
		// caller's default message is shown.
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
		return apperror.Upstream(resp.StatusCode, eb.Error)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return apperror.Transport(fmt.Errorf("decode response: %w", err))
		}
	}
	outcome = metrics.OutcomeOK
	return nil
}
