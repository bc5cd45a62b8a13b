// Package store holds the SQL access layer for the roster and the
// poll responses.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/pak-it/checkin/model"
	"github.com/pak-it/checkin/phone"
)

// ErrConflict signals an insert that collided with an existing primary
// key. Existing data is left untouched.
var ErrConflict = errors.New("store: row already exists")

type Employees struct {
	DB *sql.DB
}

// Find resolves a canonical phone to its roster record: exact key
// match first, then a normalized-match scan over the whole roster so
// differently prefixed spellings still land on the same employee.
// Returns nil when no record matches.
func (e *Employees) Find(ctx context.Context, canonical string) (*model.Employee, error) {
	var info string
	err := e.DB.QueryRowContext(ctx, `
		SELECT info FROM employees WHERE phone = ?`,
		canonical,
	).Scan(&info)
	if err == nil {
		return decodeEmployee(canonical, info)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	want := phone.NormalizeForMatch(canonical)

	rows, err := e.DB.QueryContext(ctx, `SELECT phone, info FROM employees`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p, &info); err != nil {
			return nil, err
		}
		if phone.NormalizeForMatch(p) == want {
			return decodeEmployee(p, info)
		}
	}
	return nil, rows.Err()
}

func (e *Employees) All(ctx context.Context) ([]model.Employee, error) {
	rows, err := e.DB.QueryContext(ctx, `
		SELECT phone, info FROM employees ORDER BY phone`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []model.Employee{}
	for rows.Next() {
		var p, info string
		if err := rows.Scan(&p, &info); err != nil {
			return nil, err
		}
		emp, err := decodeEmployee(p, info)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func (e *Employees) Count(ctx context.Context) (int, error) {
	var n int
	err := e.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&n)
	return n, err
}

func (e *Employees) DeleteAll(ctx context.Context) error {
	_, err := e.DB.ExecContext(ctx, `DELETE FROM employees`)
	return err
}

func decodeEmployee(p, info string) (*model.Employee, error) {
	emp := model.Employee{Phone: p}
	if err := json.Unmarshal([]byte(info), &emp.Info); err != nil {
		return nil, err
	}
	return &emp, nil
}
