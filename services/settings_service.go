package services

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// Setting names recognized by the settings store.
const SettingAutoApproval = "auto_approval"

// SettingsService is the narrow store behind process-wide configuration
// values, most importantly whether new establishment registrations are
// auto-approved. The value lives in the database, not in module state, so
// every instance observes the same toggle.
type SettingsService struct {
	db *DatabaseService
}

// NewSettingsService creates a new settings service.
func NewSettingsService(db *DatabaseService) *SettingsService {
	return &SettingsService{db: db}
}

// GetAutoApproval reads the auto-approval toggle. A missing row means the
// toggle was never set and defaults to false.
func (s *SettingsService) GetAutoApproval() (bool, error) {
	var value string
	err := s.db.db.QueryRow(`SELECT value FROM settings WHERE name = ?`, SettingAutoApproval).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s setting: %w", SettingAutoApproval, err)
	}
	return value == "1", nil
}

// SetAutoApproval writes the auto-approval toggle.
func (s *SettingsService) SetAutoApproval(enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}

	_, err := s.db.db.Exec(`INSERT INTO settings (name, value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = ?`,
		SettingAutoApproval, value, value)
	if err != nil {
		return fmt.Errorf("failed to write %s setting: %w", SettingAutoApproval, err)
	}

	log.Infof("Auto-approval toggle set to %v", enabled)
	return nil
}
