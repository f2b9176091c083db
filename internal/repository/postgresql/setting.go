package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingRepository struct {
	db *database.DB
}

func NewSettingRepository(db *database.DB) setting.SettingRepository {
	return &settingRepository{db: db}
}

// Get implements setting.SettingRepository.
func (r *settingRepository) Get(ctx context.Context, key string) (setting.Setting, error) {
	q := GetQuerier(ctx, r.db)

	var s setting.Setting
	err := q.QueryRow(ctx, `SELECT key, value, updated_at FROM system_settings WHERE key = $1`, key).
		Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return setting.Setting{}, setting.ErrSettingNotFound
		}
		return setting.Setting{}, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return s, nil
}

// Set implements setting.SettingRepository.
func (r *settingRepository) Set(ctx context.Context, s setting.Setting) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := q.Exec(ctx, query, s.Key, s.Value, s.UpdatedAt); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", s.Key, err)
	}
	return nil
}
