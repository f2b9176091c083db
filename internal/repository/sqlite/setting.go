package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormSettingRepository struct {
	db *DB
}

func NewGormSettingRepository(db *DB) (*GormSettingRepository, error) {
	if err := db.gorm.AutoMigrate(&settingModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate system_settings: %w", err)
	}
	return &GormSettingRepository{db: db}, nil
}

// Get implements setting.SettingRepository.
func (r *GormSettingRepository) Get(ctx context.Context, key string) (setting.Setting, error) {
	var m settingModel
	err := r.db.conn(ctx).Where("`key` = ?", key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return setting.Setting{}, setting.ErrSettingNotFound
	}
	if err != nil {
		return setting.Setting{}, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return setting.Setting{Key: m.Key, Value: m.Value, UpdatedAt: m.UpdatedAt}, nil
}

// Set implements setting.SettingRepository.
func (r *GormSettingRepository) Set(ctx context.Context, s setting.Setting) error {
	m := settingModel{Key: s.Key, Value: s.Value, UpdatedAt: s.UpdatedAt}
	err := r.db.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", s.Key, err)
	}
	return nil
}
