package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/api/weather"
	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/metrics"
)

const (
	MsgCoordinates        = "Некорректные координаты"
	MsgWeatherUnavailable = "Сервис погоды временно недоступен"
)

type WeatherService struct {
	provider WeatherProvider
	cache    WeatherCache
	logger   *zap.Logger
}

// NewWeatherService builds a cache-through lookup. cache may be nil.
func NewWeatherService(provider WeatherProvider, cache WeatherCache, logger *zap.Logger) *WeatherService {
	return &WeatherService{provider: provider, cache: cache, logger: logger}
}

func (s *WeatherService) Current(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		return nil, apperr.Validation("coordinates", MsgCoordinates)
	}

	if s.cache != nil {
		if raw, err := s.cache.GetWeather(ctx, lat, lon); err == nil {
			metrics.CacheHit("weather")
			return raw, nil
		}
		metrics.CacheMiss("weather")
	}

	raw, err := s.provider.Current(ctx, lat, lon)
	if err != nil {
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			return nil, apperr.Validation("coordinates", MsgCoordinates)
		}
		return nil, apperr.Wrap(err, apperr.CodeUnavailable, MsgWeatherUnavailable)
	}

	if s.cache != nil {
		if err := s.cache.SetWeather(ctx, lat, lon, raw); err != nil {
			s.logger.Warn("failed to cache weather", zap.Error(err))
		}
	}

	return raw, nil
}
