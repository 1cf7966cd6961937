package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/feedhaven/feedhaven/models"
)

// GetAppSettings returns the settings singleton, creating the row with
// defaults on the first read of an empty store
func (s *Store) GetAppSettings(ctx context.Context) *models.AppSettings {
	if !s.IsInitialized() {
		return nil
	}

	settings := &models.AppSettings{}
	err := s.db.GetContext(ctx, settings, "SELECT * FROM app_settings LIMIT 1")
	if err == nil {
		return settings
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.fail("get app settings", err)
		return nil
	}

	// First read: insert the default row
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO app_settings (last_updated, theme, language) VALUES (?, ?, ?)",
		settings.LastUpdated, settings.Theme, settings.Language)
	if err != nil {
		s.fail("create app settings", err)
		return nil
	}
	settings.ID, err = res.LastInsertId()
	if err != nil {
		s.fail("create app settings", err)
		return nil
	}
	return settings
}

// UpdateAppSettings updates the settings singleton. Reports whether at least
// one row was affected.
func (s *Store) UpdateAppSettings(ctx context.Context, settings *models.AppSettings) bool {
	if !s.IsInitialized() {
		return false
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE app_settings SET last_updated = ?, theme = ?, language = ? WHERE id = ?",
		settings.LastUpdated, settings.Theme, settings.Language, settings.ID)
	if err != nil {
		s.fail("update app settings", err)
		return false
	}

	n, err := res.RowsAffected()
	return err == nil && n > 0
}
