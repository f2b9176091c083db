package memory

import (
	"context"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
)

type settingRepository struct {
	db *DB
}

func NewSettingRepository(db *DB) setting.SettingRepository {
	return &settingRepository{db: db}
}

// Get implements setting.SettingRepository.
func (r *settingRepository) Get(ctx context.Context, key string) (setting.Setting, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.settings[key]
	if !ok {
		return setting.Setting{}, setting.ErrSettingNotFound
	}
	return s, nil
}

// Set implements setting.SettingRepository.
func (r *settingRepository) Set(ctx context.Context, s setting.Setting) error {
	r.db.mu.RLock()
	prev, existed := r.db.settings[s.Key]
	r.db.mu.RUnlock()

	r.db.write(ctx, func() {
		r.db.settings[s.Key] = s
	}, func() {
		if existed {
			r.db.settings[s.Key] = prev
			return
		}
		delete(r.db.settings, s.Key)
	})
	return nil
}
