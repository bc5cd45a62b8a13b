package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pak-it/checkin/model"
	"github.com/pak-it/checkin/settings"
)

type Responses struct {
	DB *sql.DB
}

// Insert records a response. The primary key on phone is the final
// authority against double submission: a collision returns
// ErrConflict, it never overwrites.
func (r *Responses) Insert(ctx context.Context, phone string, choice model.Choice, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO poll_results (phone, response, timestamp) VALUES (?, ?, ?)`,
		phone,
		string(choice),
		at.Format(settings.TimeLayout),
	)

	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
		return ErrConflict
	}
	return err
}

func (r *Responses) Has(ctx context.Context, phone string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `
		SELECT 1 FROM poll_results WHERE phone = ?`,
		phone,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// All returns every response in submission order. Timestamps come back
// as wall-clock values in loc, the poll's configured zone.
func (r *Responses) All(ctx context.Context, loc *time.Location) ([]model.Response, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT phone, response, timestamp
		FROM poll_results
		ORDER BY timestamp`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var resp model.Response
		var choice, ts string
		if err := rows.Scan(&resp.Phone, &choice, &ts); err != nil {
			return nil, err
		}
		resp.Choice = model.Choice(choice)
		resp.SubmittedAt, err = time.ParseInLocation(settings.TimeLayout, ts, loc)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func (r *Responses) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM poll_results`).Scan(&n)
	return n, err
}

func (r *Responses) CountByChoice(ctx context.Context) (map[model.Choice]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT response, COUNT(*)
		FROM poll_results
		GROUP BY response`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.Choice]int{}
	for rows.Next() {
		var choice string
		var n int
		if err := rows.Scan(&choice, &n); err != nil {
			return nil, err
		}
		counts[model.Choice(choice)] = n
	}
	return counts, rows.Err()
}

func (r *Responses) DeleteAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM poll_results`)
	return err
}
