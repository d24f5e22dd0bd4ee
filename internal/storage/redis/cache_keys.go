package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/B1zn3/SearchWork-Website/internal/models"
)

const (
	WeatherCacheTTL      = 10 * time.Minute
	PublicJobsCacheTTL   = 1 * time.Minute
	ApplyRateLimitWindow = 1 * time.Minute
)

func WeatherKey(lat, lon float64) string {
	// two decimals is roughly a kilometre, close enough for current weather
	return fmt.Sprintf("weather:%s:%s",
		strconv.FormatFloat(lat, 'f', 2, 64),
		strconv.FormatFloat(lon, 'f', 2, 64),
	)
}

func PublicJobsKey() string {
	return "jobs:public"
}

func ApplyRateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:apply:%s", clientIP)
}

func (c *Cache) GetWeather(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, WeatherKey(lat, lon), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Cache) SetWeather(ctx context.Context, lat, lon float64, raw json.RawMessage) error {
	return c.Set(ctx, WeatherKey(lat, lon), raw, WeatherCacheTTL)
}

func (c *Cache) GetPublicJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := c.Get(ctx, PublicJobsKey(), &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Cache) SetPublicJobs(ctx context.Context, jobs []models.Job) error {
	return c.Set(ctx, PublicJobsKey(), jobs, PublicJobsCacheTTL)
}

func (c *Cache) InvalidatePublicJobs(ctx context.Context) error {
	return c.Delete(ctx, PublicJobsKey())
}

// IncrementApplyRateLimit counts an application attempt from clientIP in the
// current window and returns the running total.
func (c *Cache) IncrementApplyRateLimit(ctx context.Context, clientIP string) (int64, error) {
	return c.IncrementWithExpiry(ctx, ApplyRateLimitKey(clientIP), ApplyRateLimitWindow)
}
