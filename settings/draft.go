package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pak-it/checkin/phone"
)

// ErrEndNotAfterStart rejects poll windows that are empty or inverted.
var ErrEndNotAfterStart = errors.New("end date/time must be after start date/time")

// ValidationError marks a draft that cannot be committed. The wrapped
// error carries the specific field problem.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid settings: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Clock24 is a time of day in 24-hour form.
type Clock24 struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (c Clock24) validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("time %02d:%02d out of range", c.Hour, c.Minute)
	}
	return nil
}

// Clock12 is a time of day in 12-hour form with an AM/PM period.
type Clock12 struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Period string `json:"period"` // "AM" or "PM"
}

func (c Clock12) validate() error {
	if c.Hour < 1 || c.Hour > 12 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("time %d:%02d out of range", c.Hour, c.Minute)
	}
	if c.Period != "AM" && c.Period != "PM" {
		return fmt.Errorf("period %q is not AM or PM", c.Period)
	}
	return nil
}

// To24 converts a 12-hour clock value: 12 AM maps to hour 0, 12 PM
// stays 12, any other PM hour gains 12.
func To24(c Clock12) Clock24 {
	switch {
	case c.Period == "PM" && c.Hour != 12:
		return Clock24{c.Hour + 12, c.Minute}
	case c.Period == "AM" && c.Hour == 12:
		return Clock24{0, c.Minute}
	default:
		return Clock24{c.Hour, c.Minute}
	}
}

// To12 converts a 24-hour clock value to its 12-hour spelling.
func To12(c Clock24) Clock12 {
	switch {
	case c.Hour == 0:
		return Clock12{12, c.Minute, "AM"}
	case c.Hour < 12:
		return Clock12{c.Hour, c.Minute, "AM"}
	case c.Hour == 12:
		return Clock12{12, c.Minute, "PM"}
	default:
		return Clock12{c.Hour - 12, c.Minute, "PM"}
	}
}

// Input modes for the draft's time-of-day fields.
const (
	Input12 = "12"
	Input24 = "24"
)

// Draft is the admin's unsaved working copy of the poll configuration.
// It keeps both clock representations so switching the input mode is
// lossless; only the representation named by TimeInput is
// authoritative when composing timestamps.
type Draft struct {
	Timezone       string
	TimeFormat     string // display preference, "12" or "24"
	TimeInput      string // active input representation
	ValidationMode phone.Mode
	PhoneColumn    string

	StartDate time.Time // date part only
	EndDate   time.Time

	Start12 Clock12
	End12   Clock12
	Start24 Clock24
	End24   Clock24
}

// NewDraft seeds a draft from the persisted configuration, populating
// both clock representations. The input mode follows the configured
// 12/24-hour display preference.
func NewDraft(cfg Config) *Draft {
	timeInput := Input12
	if cfg.TimeFormat == Input24 {
		timeInput = Input24
	}
	d := &Draft{
		Timezone:       cfg.Timezone,
		TimeFormat:     cfg.TimeFormat,
		TimeInput:      timeInput,
		ValidationMode: cfg.ValidationMode,
		PhoneColumn:    cfg.PhoneColumn,
		StartDate:      dateOnly(cfg.Start),
		EndDate:        dateOnly(cfg.End),
		Start24:        Clock24{cfg.Start.Hour(), cfg.Start.Minute()},
		End24:          Clock24{cfg.End.Hour(), cfg.End.Minute()},
	}
	d.Start12 = To12(d.Start24)
	d.End12 = To12(d.End24)
	return d
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SetTimeInput switches the active input representation, converting
// the current values so nothing is lost.
func (d *Draft) SetTimeInput(mode string) {
	if mode == d.TimeInput {
		return
	}
	if mode == Input24 {
		d.Start24 = To24(d.Start12)
		d.End24 = To24(d.End12)
	} else {
		d.Start12 = To12(d.Start24)
		d.End12 = To12(d.End24)
	}
	d.TimeInput = mode
}

func (d *Draft) clocks() (start, end Clock24) {
	if d.TimeInput == Input24 {
		return d.Start24, d.End24
	}
	return To24(d.Start12), To24(d.End12)
}

// validateClocks range-checks the active representation only; stale
// values left in the other one are never composed.
func (d *Draft) validateClocks() error {
	if d.TimeInput == Input24 {
		if err := d.Start24.validate(); err != nil {
			return fmt.Errorf("start: %w", err)
		}
		if err := d.End24.validate(); err != nil {
			return fmt.Errorf("end: %w", err)
		}
		return nil
	}
	if err := d.Start12.validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := d.End12.validate(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	return nil
}

// Compose resolves the draft's date, time-of-day and timezone fields
// into absolute poll boundaries. Out-of-range clock values are
// rejected rather than left to date normalization, which would
// silently roll them into the next day.
func (d *Draft) Compose() (start, end time.Time, err error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return start, end, &ValidationError{fmt.Errorf("unknown timezone %q", d.Timezone)}
	}
	if err := d.validateClocks(); err != nil {
		return start, end, &ValidationError{err}
	}

	sc, ec := d.clocks()
	start = time.Date(d.StartDate.Year(), d.StartDate.Month(), d.StartDate.Day(),
		sc.Hour, sc.Minute, 0, 0, loc)
	end = time.Date(d.EndDate.Year(), d.EndDate.Month(), d.EndDate.Day(),
		ec.Hour, ec.Minute, 0, 0, loc)
	return start, end, nil
}

// Engine reconciles a pending draft against the persisted
// configuration.
type Engine struct {
	Store *Store
}

// HasUnsavedChanges reports whether the draft differs from the
// persisted configuration on any field. Both sides of the boundary
// comparison are normalized to the same wall-clock string so the two
// input representations cannot produce false positives.
func (e *Engine) HasUnsavedChanges(ctx context.Context, d *Draft) (bool, error) {
	savedTz, err := e.Store.Get(ctx, keyTimezone, DefaultTimezone)
	if err != nil {
		return false, err
	}
	savedFormat, err := e.Store.Get(ctx, keyTimeFormat, DefaultTimeFormat)
	if err != nil {
		return false, err
	}
	savedMode, err := e.Store.Get(ctx, keyValidationMode, string(DefaultValidationMode))
	if err != nil {
		return false, err
	}
	savedColumn, err := e.Store.Get(ctx, keyPhoneColumn, DefaultPhoneColumn)
	if err != nil {
		return false, err
	}

	// cheap fields first
	if d.Timezone != savedTz ||
		d.TimeFormat != savedFormat ||
		string(d.ValidationMode) != savedMode ||
		trimmed(d.PhoneColumn) != savedColumn {
		return true, nil
	}

	start, end, err := d.Compose()
	if err != nil {
		// an uncomposable draft necessarily diverges
		return true, nil
	}

	savedStart, err := e.Store.Get(ctx, keyPollStart, DefaultPollStart)
	if err != nil {
		return false, err
	}
	savedEnd, err := e.Store.Get(ctx, keyPollEnd, DefaultPollEnd)
	if err != nil {
		return false, err
	}

	return start.Format(TimeLayout) != savedStart ||
		end.Format(TimeLayout) != savedEnd, nil
}

// Save validates and atomically persists every configuration field
// from the draft. The caller discards the draft on success.
func (e *Engine) Save(ctx context.Context, d *Draft) error {
	start, end, err := d.Compose()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return &ValidationError{ErrEndNotAfterStart}
	}

	return e.Store.SaveAll(ctx, Fields{
		PollStart:      start.Format(TimeLayout),
		PollEnd:        end.Format(TimeLayout),
		Timezone:       d.Timezone,
		ValidationMode: string(d.ValidationMode),
		TimeFormat:     d.TimeFormat,
		PhoneColumn:    trimmed(d.PhoneColumn),
	})
}

func trimmed(s string) string { return strings.TrimSpace(s) }
