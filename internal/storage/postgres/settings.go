package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"

	"github.com/B1zn3/SearchWork-Website/internal/models"
)

const lockSettings = `LOCK TABLE settings IN SHARE ROW EXCLUSIVE MODE`

// FindSettings returns the first settings row, or nil when none exists.
func (s *Store) FindSettings(ctx context.Context) (*models.Settings, error) {
	settings, err := firstSettings(ctx, s.sess)
	if err != nil {
		s.logger.Error("failed to find settings", zap.Error(err))
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return settings, nil
}

// GetOrCreateSettings returns the first settings row, inserting the defaults
// when the table is empty.
func (s *Store) GetOrCreateSettings(ctx context.Context) (*models.Settings, error) {
	var settings *models.Settings

	err := s.inTx(ctx, func(tx *dbr.Tx) error {
		// serialize first-time creation so concurrent callers see one row
		if _, err := tx.ExecContext(ctx, lockSettings); err != nil {
			return err
		}

		var err error
		settings, err = firstSettings(ctx, tx)
		if err != nil || settings != nil {
			return err
		}

		defaults := models.DefaultSettings()
		settings = &defaults
		return insertSettings(ctx, tx, settings)
	})
	if err != nil {
		s.logger.Error("failed to get or create settings", zap.Error(err))
		return nil, fmt.Errorf("get or create settings: %w", err)
	}

	return settings, nil
}

// UpdateSettings overwrites the first row, creating it if absent.
func (s *Store) UpdateSettings(ctx context.Context, in models.SettingsInput) (*models.Settings, error) {
	settings := &models.Settings{
		SiteEmail:   in.SiteEmail,
		SitePhone:   in.SitePhone,
		SiteAddress: in.SiteAddress,
	}

	err := s.inTx(ctx, func(tx *dbr.Tx) error {
		if _, err := tx.ExecContext(ctx, lockSettings); err != nil {
			return err
		}

		current, err := firstSettings(ctx, tx)
		if err != nil {
			return err
		}
		if current == nil {
			return insertSettings(ctx, tx, settings)
		}

		settings.ID = current.ID
		_, err = tx.Update("settings").
			Set("site_email", settings.SiteEmail).
			Set("site_phone", settings.SitePhone).
			Set("site_address", settings.SiteAddress).
			Where("id = ?", current.ID).
			ExecContext(ctx)
		return mapDBError(err)
	})
	if err != nil {
		s.logger.Error("failed to update settings", zap.Error(err))
		return nil, fmt.Errorf("update settings: %w", err)
	}

	s.logger.Info("settings updated", zap.Int64("settings_id", settings.ID))

	return settings, nil
}

func firstSettings(ctx context.Context, r dbr.SessionRunner) (*models.Settings, error) {
	var settings models.Settings

	err := r.Select("*").
		From("settings").
		OrderBy("id").
		Limit(1).
		LoadOneContext(ctx, &settings)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

func insertSettings(ctx context.Context, r dbr.SessionRunner, settings *models.Settings) error {
	query := `
		INSERT INTO settings (site_email, site_phone, site_address)
		VALUES (?, ?, ?)
		RETURNING id
	`
	err := r.SelectBySql(query,
		settings.SiteEmail,
		settings.SitePhone,
		settings.SiteAddress,
	).LoadOneContext(ctx, &settings.ID)
	return mapDBError(err)
}
