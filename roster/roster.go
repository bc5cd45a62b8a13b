// Package roster handles employee roster ingestion and the derived
// voted / not-voted reporting views.
package roster

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pak-it/checkin/phone"
)

// Row is one uploaded roster record: the raw phone cell plus every
// other column, nil for empty cells.
type Row struct {
	Phone string
	Attrs map[string]*string
}

// Rejected describes an upload row that failed phone validation.
type Rejected struct {
	Line   int    `json:"line"` // 1-based sheet line, header excluded
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

// Replace atomically swaps the entire roster for rows. Phones are
// canonicalized then validated under mode; invalid rows are reported
// in rejected and not stored. A duplicate phone within the batch is
// dropped silently, first occurrence wins. On error the prior roster
// is left intact.
func Replace(ctx context.Context, db *sql.DB, mode phone.Mode, rows []Row) (accepted int, rejected []Rejected, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM employees`)
	if err != nil {
		return 0, nil, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO employees (phone, info) VALUES (?, ?)`)
	if err != nil {
		return 0, nil, err
	}
	defer stmt.Close()

	rejected = []Rejected{}
	for i, row := range rows {
		p := phone.Canonicalize(row.Phone)
		if !phone.Validate(p, mode) {
			rejected = append(rejected, Rejected{
				Line:   i + 1,
				Phone:  row.Phone,
				Reason: "invalid phone number format",
			})
			continue
		}

		info, err := json.Marshal(row.Attrs)
		if err != nil {
			return 0, nil, err
		}

		res, err := stmt.ExecContext(ctx, p, string(info))
		if err != nil {
			return 0, nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, nil, err
		}
		accepted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}
	return accepted, rejected, nil
}
