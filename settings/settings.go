// Package settings owns the durable poll configuration and the admin
// editing flow around it: the key-value settings store, the pending
// draft, the reconciliation engine and the navigation gate.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pak-it/checkin/phone"
)

// TimeLayout is the wall-clock representation used for the persisted
// poll boundaries and response timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// Defaults applied when a settings key is absent.
const (
	DefaultTimezone       = "Asia/Karachi"
	DefaultPollStart      = "2026-01-01 09:00:00"
	DefaultPollEnd        = "2026-01-31 18:00:00"
	DefaultValidationMode = phone.ModeFlexible
	DefaultTimeFormat     = "12"
	DefaultPhoneColumn    = "Phone"
)

// Settings keys.
const (
	keyPollStart      = "poll_start"
	keyPollEnd        = "poll_end"
	keyTimezone       = "timezone"
	keyValidationMode = "validation_mode"
	keyTimeFormat     = "time_format"
	keyPhoneColumn    = "col_phone"
)

// Config is the effective poll configuration, defaults filled in.
type Config struct {
	Start          time.Time
	End            time.Time
	Timezone       string
	Location       *time.Location
	ValidationMode phone.Mode
	TimeFormat     string // "12" or "24"
	PhoneColumn    string
}

// FormatDisplay renders a poll boundary for presentation in the
// configured 12/24-hour preference.
func (c Config) FormatDisplay(t time.Time) string {
	if c.TimeFormat == "12" {
		return t.Format("January 02, 2006 at 03:04 PM")
	}
	return t.Format("January 02, 2006 at 15:04")
}

type Store struct {
	DB *sql.DB
}

// Get returns the value for key, or def when the key is absent.
func (s *Store) Get(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `
		SELECT value FROM settings WHERE key = ?`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Fields is the full set of persistable configuration values.
type Fields struct {
	PollStart      string // TimeLayout wall clock
	PollEnd        string
	Timezone       string
	ValidationMode string
	TimeFormat     string
	PhoneColumn    string
}

// SaveAll persists every configuration field in one transaction.
func (s *Store) SaveAll(ctx context.Context, f Fields) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, kv := range [][2]string{
		{keyPollStart, f.PollStart},
		{keyPollEnd, f.PollEnd},
		{keyTimezone, f.Timezone},
		{keyValidationMode, f.ValidationMode},
		{keyTimeFormat, f.TimeFormat},
		{keyPhoneColumn, f.PhoneColumn},
	} {
		if _, err := stmt.ExecContext(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Reset drops every stored key, reverting the poll to defaults.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM settings`)
	return err
}

// PollConfig loads the effective configuration. Absent keys fall back
// to defaults; an unloadable timezone falls back to the default zone.
func (s *Store) PollConfig(ctx context.Context) (Config, error) {
	cfg := Config{}

	tzName, err := s.Get(ctx, keyTimezone, DefaultTimezone)
	if err != nil {
		return cfg, err
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		tzName = DefaultTimezone
		loc, err = time.LoadLocation(tzName)
		if err != nil {
			return cfg, err
		}
	}
	cfg.Timezone = tzName
	cfg.Location = loc

	startStr, err := s.Get(ctx, keyPollStart, DefaultPollStart)
	if err != nil {
		return cfg, err
	}
	cfg.Start, err = time.ParseInLocation(TimeLayout, startStr, loc)
	if err != nil {
		return cfg, err
	}

	endStr, err := s.Get(ctx, keyPollEnd, DefaultPollEnd)
	if err != nil {
		return cfg, err
	}
	cfg.End, err = time.ParseInLocation(TimeLayout, endStr, loc)
	if err != nil {
		return cfg, err
	}

	mode, err := s.Get(ctx, keyValidationMode, string(DefaultValidationMode))
	if err != nil {
		return cfg, err
	}
	cfg.ValidationMode = phone.Mode(mode)

	cfg.TimeFormat, err = s.Get(ctx, keyTimeFormat, DefaultTimeFormat)
	if err != nil {
		return cfg, err
	}

	cfg.PhoneColumn, err = s.Get(ctx, keyPhoneColumn, DefaultPhoneColumn)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}
