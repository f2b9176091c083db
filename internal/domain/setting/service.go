package setting

import "context"

type SettingService interface {
	// PermissionDefaultMinutes returns the stored default or the configured fallback.
	PermissionDefaultMinutes(ctx context.Context) (int, error)

	GetPermissionDefault(ctx context.Context) (PermissionDefaultResponse, error)
	UpdatePermissionDefault(ctx context.Context, req UpdatePermissionDefaultRequest) (PermissionDefaultResponse, error)
}
