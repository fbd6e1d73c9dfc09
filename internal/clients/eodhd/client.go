// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
// EODHD answers "NA" for instruments without a live quote.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" || s == "NA" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements interfaces.QuoteClient
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig creates a client from the clients.eodhd config section.
func NewClientFromConfig(config *common.EODHDConfig, logger *common.Logger) *Client {
	opts := []ClientOption{
		WithLogger(logger),
		WithTimeout(config.GetTimeout()),
		WithRateLimit(config.RateLimit),
	}
	if config.BaseURL != "" {
		opts = append(opts, WithBaseURL(config.BaseURL))
	}
	return NewClient(config.APIKey, opts...)
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	// Add API key
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// realTimeResponse is the /real-time payload.
type realTimeResponse struct {
	Code          string      `json:"code"`
	Timestamp     flexFloat64 `json:"timestamp"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	Volume        flexFloat64 `json:"volume"`
	PreviousClose flexFloat64 `json:"previousClose"`
	Change        flexFloat64 `json:"change"`
	ChangePct     flexFloat64 `json:"change_p"`
}

// GetRealTimeQuote retrieves the live quote for a ticker such as "AAPL.US",
// "USDKRW.FOREX" or "GSPC.INDX". A quote without a price has Close 0.
func (c *Client) GetRealTimeQuote(ctx context.Context, ticker string) (*models.RealTimeQuote, error) {
	path := fmt.Sprintf("/real-time/%s", ticker)

	var resp realTimeResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	quote := &models.RealTimeQuote{
		Code:          resp.Code,
		Open:          float64(resp.Open),
		High:          float64(resp.High),
		Low:           float64(resp.Low),
		Close:         float64(resp.Close),
		PreviousClose: float64(resp.PreviousClose),
		Change:        float64(resp.Change),
		ChangePct:     float64(resp.ChangePct),
		Volume:        int64(resp.Volume),
	}
	if quote.Code == "" {
		quote.Code = ticker
	}
	if resp.Timestamp > 0 {
		quote.Timestamp = time.Unix(int64(resp.Timestamp), 0)
	}

	return quote, nil
}

// Ensure Client implements QuoteClient
var _ interfaces.QuoteClient = (*Client)(nil)
