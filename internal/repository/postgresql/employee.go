package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `user_id, full_name, email, manager_id, role, joined_at, telegram_chat_id`

type employeeDirectory struct {
	db *database.DB
}

// NewEmployeeDirectory reads the employees table. Rows are owned by the HR
// records system and synced in with SeedEmployees.
func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeDirectory{db: db}
}

// GetByUserID implements employee.Directory.
func (d *employeeDirectory) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, d.db)

	e, err := scanEmployee(q.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", userID, err)
	}
	return e, nil
}

// ListByRole implements employee.Directory.
func (d *employeeDirectory) ListByRole(ctx context.Context, role user.Role) ([]employee.Employee, error) {
	q := GetQuerier(ctx, d.db)

	rows, err := q.Query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE role = $1 ORDER BY user_id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list employees by role: %w", err)
	}
	defer rows.Close()

	var out []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employee rows: %w", err)
	}
	return out, nil
}

// SeedEmployees adds or replaces directory rows.
func SeedEmployees(ctx context.Context, db *database.DB, employees ...employee.Employee) error {
	q := GetQuerier(ctx, db)

	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			manager_id = EXCLUDED.manager_id,
			role = EXCLUDED.role,
			joined_at = EXCLUDED.joined_at,
			telegram_chat_id = EXCLUDED.telegram_chat_id`

	for _, e := range employees {
		if _, err := q.Exec(ctx, query,
			e.UserID, e.FullName, e.Email, e.ManagerID, string(e.Role), dayParam(e.JoinedAt), e.TelegramChatID,
		); err != nil {
			return fmt.Errorf("failed to upsert employee %s: %w", e.UserID, err)
		}
	}
	return nil
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var (
		e    employee.Employee
		role string
	)
	if err := row.Scan(&e.UserID, &e.FullName, &e.Email, &e.ManagerID, &role, &e.JoinedAt, &e.TelegramChatID); err != nil {
		return employee.Employee{}, err
	}
	e.Role = user.Role(role)
	return e, nil
}
