package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/unihub/internal/model"
)

// SettingsService reads and writes application-wide settings.
type SettingsService struct {
	db                DB
	defaultSignupMode model.SignupMode
}

func NewSettingsService(db DB, defaultSignupMode model.SignupMode) *SettingsService {
	if !defaultSignupMode.Valid() {
		defaultSignupMode = model.SignupOpen
	}
	return &SettingsService{db: db, defaultSignupMode: defaultSignupMode}
}

// SignupMode returns the configured signup mode. A missing or unrecognised
// row yields the default.
func (s *SettingsService) SignupMode(ctx context.Context) (model.SignupMode, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM app_settings WHERE key = $1`, model.SettingSignupMode,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaultSignupMode, nil
	}
	if err != nil {
		return "", fmt.Errorf("get signup mode: %w", err)
	}

	mode := model.SignupMode(value)
	if !mode.Valid() {
		return s.defaultSignupMode, nil
	}
	return mode, nil
}

func (s *SettingsService) SetSignupMode(ctx context.Context, mode model.SignupMode) error {
	if !mode.Valid() {
		return invalid("signup_mode must be one of open, approval, disabled")
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		model.SettingSignupMode, string(mode))
	if err != nil {
		return fmt.Errorf("set signup mode: %w", err)
	}
	return nil
}
