package service

import (
	"context"

	"github.com/B1zn3/SearchWork-Website/internal/models"
	"github.com/B1zn3/SearchWork-Website/internal/validation"
)

type SettingsService struct {
	repo      SettingsRepository
	validator *validation.Validator
}

func NewSettingsService(repo SettingsRepository, v *validation.Validator) *SettingsService {
	return &SettingsService{repo: repo, validator: v}
}

// Get returns the settings, creating the row with defaults on first access.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	return s.repo.GetOrCreateSettings(ctx)
}

// Public returns the settings for the public site without creating a row.
// Defaults are returned while nothing has been saved.
func (s *SettingsService) Public(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repo.FindSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		defaults := models.DefaultSettings()
		return &defaults, nil
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, in models.SettingsInput) (*models.Settings, error) {
	in, err := s.validator.Settings(in)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateSettings(ctx, in)
}
