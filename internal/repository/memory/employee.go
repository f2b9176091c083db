package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
)

type employeeDirectory struct {
	db *DB
}

// NewEmployeeDirectory returns a directory backed by the in-memory store.
// Use SeedEmployees to populate it.
func NewEmployeeDirectory(db *DB) employee.Directory {
	return &employeeDirectory{db: db}
}

// SeedEmployees adds or replaces directory entries.
func (db *DB) SeedEmployees(employees ...employee.Employee) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range employees {
		db.employees[e.UserID] = e
	}
}

// GetByUserID implements employee.Directory.
func (d *employeeDirectory) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	d.db.mu.RLock()
	defer d.db.mu.RUnlock()

	e, ok := d.db.employees[userID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// ListByRole implements employee.Directory.
func (d *employeeDirectory) ListByRole(ctx context.Context, role user.Role) ([]employee.Employee, error) {
	d.db.mu.RLock()
	var out []employee.Employee
	for _, e := range d.db.employees {
		if e.Role == role {
			out = append(out, e)
		}
	}
	d.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
