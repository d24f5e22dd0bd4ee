package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrUpstream           = errors.New("weather service unavailable")
)

// Client for the weatherapi.com current conditions endpoint
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	userAgent  string
	backoff    time.Duration
}

func New(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		// free plan allows roughly one call per second
		limiter:   rate.NewLimiter(rate.Limit(1), 5),
		logger:    logger,
		userAgent: "SearchWork/1.0",
		backoff:   time.Second,
	}
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %v,%v", ErrInvalidCoordinates, lat, lon)
	}
	return nil
}

// Current returns the provider's JSON for the current weather at the point,
// unchanged.
func (c *Client) Current(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("aqi", "no")

	body, err := c.get(ctx, "/current.json", params)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: malformed response", ErrUpstream)
	}

	return json.RawMessage(body), nil
}

// get performs a GET with retries on transport errors, 429 and 5xx.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.backoff
			c.logger.Debug("retrying weather request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, status, err := c.do(ctx, fullURL)
		if err != nil {
			lastErr = err
			continue
		}

		if status >= 200 && status < 300 {
			c.logger.Debug("successful weather request",
				zap.String("path", path),
				zap.Int("status", status),
			)
			return body, nil
		}

		c.logger.Error("weather API error",
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("body", string(body)),
		)

		switch {
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limit exceeded")
			continue
		case status == http.StatusBadRequest:
			// weatherapi.com answers 400 for unknown locations
			var apiErr errorResponse
			if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
				return nil, fmt.Errorf("%w: %s", ErrUpstream, apiErr.Error.Message)
			}
			return nil, fmt.Errorf("%w: bad request", ErrUpstream)
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, fmt.Errorf("%w: status %d", ErrUpstream, status)
		default:
			lastErr = fmt.Errorf("unexpected status code: %d", status)
		}
	}

	return nil, fmt.Errorf("%w: request failed after retries: %v", ErrUpstream, lastErr)
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
