package setting

import "context"

type SettingRepository interface {
	// Get returns ErrSettingNotFound when key has never been set.
	Get(ctx context.Context, key string) (Setting, error)
	Set(ctx context.Context, s Setting) error
}
