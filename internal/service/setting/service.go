package setting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type SettingServiceImpl struct {
	setting.SettingRepository
	fallbackPermissionMinutes int
	clock                     timeutil.Clock
}

// NewSettingService returns the settings service. fallbackPermissionMinutes is
// used until an administrator stores a value.
func NewSettingService(repo setting.SettingRepository, fallbackPermissionMinutes int, clock timeutil.Clock) setting.SettingService {
	if clock == nil {
		clock = timeutil.SystemClock()
	}
	return &SettingServiceImpl{
		SettingRepository:         repo,
		fallbackPermissionMinutes: fallbackPermissionMinutes,
		clock:                     clock,
	}
}

// PermissionDefaultMinutes implements setting.SettingService.
func (s *SettingServiceImpl) PermissionDefaultMinutes(ctx context.Context) (int, error) {
	minutes, _, err := s.permissionDefault(ctx)
	return minutes, err
}

func (s *SettingServiceImpl) permissionDefault(ctx context.Context) (int, *time.Time, error) {
	stored, err := s.SettingRepository.Get(ctx, setting.KeyPermissionDefaultMinutes)
	if err != nil {
		if errors.Is(err, setting.ErrSettingNotFound) {
			return s.fallbackPermissionMinutes, nil, nil
		}
		return 0, nil, fmt.Errorf("failed to get permission default: %w", err)
	}

	minutes, err := strconv.Atoi(stored.Value)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s=%q", setting.ErrCorruptSetting, stored.Key, stored.Value)
	}
	updatedAt := stored.UpdatedAt
	return minutes, &updatedAt, nil
}

// GetPermissionDefault implements setting.SettingService.
func (s *SettingServiceImpl) GetPermissionDefault(ctx context.Context) (setting.PermissionDefaultResponse, error) {
	minutes, updatedAt, err := s.permissionDefault(ctx)
	if err != nil {
		return setting.PermissionDefaultResponse{}, err
	}
	return newPermissionDefaultResponse(minutes, updatedAt), nil
}

// UpdatePermissionDefault implements setting.SettingService.
func (s *SettingServiceImpl) UpdatePermissionDefault(ctx context.Context, req setting.UpdatePermissionDefaultRequest) (setting.PermissionDefaultResponse, error) {
	if err := req.Validate(); err != nil {
		return setting.PermissionDefaultResponse{}, err
	}

	now := s.clock.Now()
	err := s.SettingRepository.Set(ctx, setting.Setting{
		Key:       setting.KeyPermissionDefaultMinutes,
		Value:     strconv.Itoa(req.Minutes),
		UpdatedAt: now,
	})
	if err != nil {
		return setting.PermissionDefaultResponse{}, fmt.Errorf("failed to update permission default: %w", err)
	}

	slog.Info("permission default updated", "minutes", req.Minutes)
	return newPermissionDefaultResponse(req.Minutes, &now), nil
}

func newPermissionDefaultResponse(minutes int, updatedAt *time.Time) setting.PermissionDefaultResponse {
	resp := setting.PermissionDefaultResponse{Minutes: minutes}
	if updatedAt != nil {
		formatted := updatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &formatted
	}
	return resp
}
