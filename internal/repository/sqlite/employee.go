package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormEmployeeDirectory struct {
	db *DB
}

func NewGormEmployeeDirectory(db *DB) (*GormEmployeeDirectory, error) {
	if err := db.gorm.AutoMigrate(&employeeModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate employees: %w", err)
	}
	return &GormEmployeeDirectory{db: db}, nil
}

// GetByUserID implements employee.Directory.
func (d *GormEmployeeDirectory) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	var m employeeModel
	err := d.db.conn(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", userID, err)
	}
	return m.toDomain(), nil
}

// ListByRole implements employee.Directory.
func (d *GormEmployeeDirectory) ListByRole(ctx context.Context, role user.Role) ([]employee.Employee, error) {
	var models []employeeModel
	if err := d.db.conn(ctx).Where("role = ?", string(role)).Order("user_id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees by role: %w", err)
	}
	out := make([]employee.Employee, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// Upsert adds or replaces directory entries.
func (d *GormEmployeeDirectory) Upsert(ctx context.Context, employees ...employee.Employee) error {
	if len(employees) == 0 {
		return nil
	}
	models := make([]employeeModel, 0, len(employees))
	for _, e := range employees {
		models = append(models, employeeModel{
			UserID:         e.UserID,
			FullName:       e.FullName,
			Email:          e.Email,
			ManagerID:      e.ManagerID,
			Role:           string(e.Role),
			JoinedAt:       e.JoinedAt.Format(timeutil.DateLayout),
			TelegramChatID: e.TelegramChatID,
		})
	}
	err := d.db.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&models).Error
	if err != nil {
		return fmt.Errorf("failed to upsert employees: %w", err)
	}
	return nil
}
