package settings_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pak-it/checkin/config"
	"github.com/pak-it/checkin/database"
	"github.com/pak-it/checkin/settings"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(config.Config{
		DBUrl: filepath.Join(t.TempDir(), "test.sqlite"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestClockConversionRoundTrip(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute++ {
			c24 := settings.Clock24{Hour: hour, Minute: minute}
			back := settings.To24(settings.To12(c24))
			if back != c24 {
				t.Fatalf("24->12->24 mangles %02d:%02d into %02d:%02d",
					hour, minute, back.Hour, back.Minute)
			}
		}
	}
}

func TestClockConversionEdges(t *testing.T) {
	tests := []struct {
		in   settings.Clock12
		want settings.Clock24
	}{
		{settings.Clock12{12, 0, "AM"}, settings.Clock24{0, 0}},    // midnight
		{settings.Clock12{12, 30, "PM"}, settings.Clock24{12, 30}}, // half past noon
		{settings.Clock12{1, 0, "PM"}, settings.Clock24{13, 0}},
		{settings.Clock12{11, 59, "PM"}, settings.Clock24{23, 59}},
		{settings.Clock12{1, 0, "AM"}, settings.Clock24{1, 0}},
	}
	for _, tt := range tests {
		if got := settings.To24(tt.in); got != tt.want {
			t.Errorf("To24(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSetTimeInputLossless(t *testing.T) {
	d := &settings.Draft{
		TimeInput: settings.Input12,
		Start12:   settings.Clock12{Hour: 9, Minute: 15, Period: "PM"},
		End12:     settings.Clock12{Hour: 12, Minute: 0, Period: "AM"},
	}

	d.SetTimeInput(settings.Input24)
	if d.Start24 != (settings.Clock24{21, 15}) || d.End24 != (settings.Clock24{0, 0}) {
		t.Fatalf("12->24 conversion wrong: %+v / %+v", d.Start24, d.End24)
	}

	d.Start24 = settings.Clock24{Hour: 7, Minute: 45}
	d.SetTimeInput(settings.Input12)
	if d.Start12 != (settings.Clock12{7, 45, "AM"}) {
		t.Fatalf("24->12 conversion wrong: %+v", d.Start12)
	}

	// switching to the current mode is a no-op
	before := *d
	d.SetTimeInput(settings.Input12)
	if *d != before {
		t.Error("same-mode switch changed the draft")
	}
}

func TestComposeUsesActiveRepresentation(t *testing.T) {
	d := &settings.Draft{
		Timezone:  "Asia/Karachi",
		TimeInput: settings.Input12,
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		Start12:   settings.Clock12{Hour: 9, Minute: 0, Period: "AM"},
		End12:     settings.Clock12{Hour: 6, Minute: 0, Period: "PM"},
		// stale 24h values must be ignored in 12h input mode
		Start24: settings.Clock24{Hour: 23, Minute: 59},
		End24:   settings.Clock24{Hour: 23, Minute: 59},
	}

	start, end, err := d.Compose()
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if start.Format(settings.TimeLayout) != "2026-02-01 09:00:00" {
		t.Errorf("start = %v", start)
	}
	if end.Format(settings.TimeLayout) != "2026-02-02 18:00:00" {
		t.Errorf("end = %v", end)
	}
	if start.Location().String() != "Asia/Karachi" {
		t.Errorf("location = %v", start.Location())
	}
}

func TestComposeRejectsUnknownTimezone(t *testing.T) {
	d := &settings.Draft{Timezone: "Mars/Olympus", TimeInput: settings.Input24}
	_, _, err := d.Compose()
	var invalid *settings.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestComposeRejectsOutOfRangeClock(t *testing.T) {
	base := settings.Draft{
		Timezone:  "Asia/Karachi",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		Start12:   settings.Clock12{Hour: 9, Minute: 0, Period: "AM"},
		End12:     settings.Clock12{Hour: 6, Minute: 0, Period: "PM"},
		Start24:   settings.Clock24{Hour: 9, Minute: 0},
		End24:     settings.Clock24{Hour: 18, Minute: 0},
	}

	tests := map[string]func(*settings.Draft){
		"24h hour too big":   func(d *settings.Draft) { d.TimeInput = settings.Input24; d.Start24 = settings.Clock24{Hour: 25, Minute: 99} },
		"24h negative hour":  func(d *settings.Draft) { d.TimeInput = settings.Input24; d.End24.Hour = -1 },
		"24h minute too big": func(d *settings.Draft) { d.TimeInput = settings.Input24; d.End24.Minute = 60 },
		"12h hour zero":      func(d *settings.Draft) { d.TimeInput = settings.Input12; d.Start12.Hour = 0 },
		"12h hour thirteen":  func(d *settings.Draft) { d.TimeInput = settings.Input12; d.End12.Hour = 13 },
		"12h bad period":     func(d *settings.Draft) { d.TimeInput = settings.Input12; d.Start12.Period = "XX" },
	}

	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			d := base
			corrupt(&d)
			_, _, err := d.Compose()
			var invalid *settings.ValidationError
			if !errors.As(err, &invalid) {
				t.Fatalf("want ValidationError, got %v", err)
			}
		})
	}

	// stale values in the inactive representation do not block
	d := base
	d.TimeInput = settings.Input24
	d.Start12 = settings.Clock12{Hour: 99, Minute: 99, Period: "??"}
	if _, _, err := d.Compose(); err != nil {
		t.Errorf("inactive representation must not be validated: %v", err)
	}
}

func TestNewDraftFollowsTimeFormat(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Karachi")
	cfg := settings.Config{
		Timezone: "Asia/Karachi",
		Location: loc,
		Start:    time.Date(2026, 1, 1, 9, 0, 0, 0, loc),
		End:      time.Date(2026, 1, 31, 18, 0, 0, 0, loc),
	}

	cfg.TimeFormat = "12"
	if d := settings.NewDraft(cfg); d.TimeInput != settings.Input12 {
		t.Errorf("12h preference seeds input mode %q", d.TimeInput)
	}
	cfg.TimeFormat = "24"
	if d := settings.NewDraft(cfg); d.TimeInput != settings.Input24 {
		t.Errorf("24h preference seeds input mode %q", d.TimeInput)
	}
}

func TestPollConfigDefaults(t *testing.T) {
	db := openTestDB(t)
	store := &settings.Store{DB: db}
	ctx := context.Background()

	cfg, err := store.PollConfig(ctx)
	if err != nil {
		t.Fatalf("PollConfig: %v", err)
	}
	if cfg.Timezone != settings.DefaultTimezone {
		t.Errorf("timezone = %q", cfg.Timezone)
	}
	if cfg.Start.Format(settings.TimeLayout) != settings.DefaultPollStart {
		t.Errorf("start = %v", cfg.Start)
	}
	if cfg.PhoneColumn != settings.DefaultPhoneColumn {
		t.Errorf("phone column = %q", cfg.PhoneColumn)
	}
	if string(cfg.ValidationMode) != "flexible" {
		t.Errorf("validation mode = %q", cfg.ValidationMode)
	}
}

func TestSaveRejectsEmptyOrInvertedWindow(t *testing.T) {
	db := openTestDB(t)
	engine := settings.Engine{Store: &settings.Store{DB: db}}
	ctx := context.Background()

	base := settings.Draft{
		Timezone:    "Asia/Karachi",
		TimeFormat:  "12",
		TimeInput:   settings.Input24,
		PhoneColumn: "Phone",
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Start24:     settings.Clock24{Hour: 9, Minute: 0},
	}

	equal := base
	equal.End24 = settings.Clock24{Hour: 9, Minute: 0}

	inverted := base
	inverted.End24 = settings.Clock24{Hour: 8, Minute: 59}

	for name, d := range map[string]settings.Draft{"equal": equal, "inverted": inverted} {
		err := engine.Save(ctx, &d)
		var invalid *settings.ValidationError
		if !errors.As(err, &invalid) {
			t.Errorf("%s window: want ValidationError, got %v", name, err)
		}
	}

	// nothing persisted
	cfg, err := engine.Store.PollConfig(ctx)
	if err != nil {
		t.Fatalf("PollConfig: %v", err)
	}
	if cfg.Start.Format(settings.TimeLayout) != settings.DefaultPollStart {
		t.Error("failed save must leave persisted config unchanged")
	}
}

func TestSavePersistsAllFields(t *testing.T) {
	db := openTestDB(t)
	store := &settings.Store{DB: db}
	engine := settings.Engine{Store: store}
	ctx := context.Background()

	d := &settings.Draft{
		Timezone:       "Asia/Dubai",
		TimeFormat:     "24",
		TimeInput:      settings.Input12,
		ValidationMode: "strict",
		PhoneColumn:    " Mobile ",
		StartDate:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		Start12:        settings.Clock12{Hour: 12, Minute: 0, Period: "AM"},
		End12:          settings.Clock12{Hour: 12, Minute: 30, Period: "PM"},
	}
	if err := engine.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg, err := store.PollConfig(ctx)
	if err != nil {
		t.Fatalf("PollConfig: %v", err)
	}
	if cfg.Timezone != "Asia/Dubai" || cfg.TimeFormat != "24" {
		t.Errorf("tz/format = %q/%q", cfg.Timezone, cfg.TimeFormat)
	}
	if string(cfg.ValidationMode) != "strict" {
		t.Errorf("mode = %q", cfg.ValidationMode)
	}
	if cfg.PhoneColumn != "Mobile" {
		t.Errorf("column saved untrimmed: %q", cfg.PhoneColumn)
	}
	if cfg.Start.Format(settings.TimeLayout) != "2026-04-01 00:00:00" {
		t.Errorf("start = %v", cfg.Start)
	}
	if cfg.End.Format(settings.TimeLayout) != "2026-04-02 12:30:00" {
		t.Errorf("end = %v", cfg.End)
	}
}

func TestHasUnsavedChanges(t *testing.T) {
	db := openTestDB(t)
	store := &settings.Store{DB: db}
	engine := settings.Engine{Store: store}
	ctx := context.Background()

	cfg, err := store.PollConfig(ctx)
	if err != nil {
		t.Fatalf("PollConfig: %v", err)
	}

	pristine := settings.NewDraft(cfg)
	changed, err := engine.HasUnsavedChanges(ctx, pristine)
	if err != nil {
		t.Fatalf("HasUnsavedChanges: %v", err)
	}
	if changed {
		t.Error("pristine draft reported as changed")
	}

	// representation flip alone is not a change
	flipped := settings.NewDraft(cfg)
	flipped.SetTimeInput(settings.Input24)
	if changed, _ := engine.HasUnsavedChanges(ctx, flipped); changed {
		t.Error("lossless input-mode switch reported as changed")
	}

	edited := settings.NewDraft(cfg)
	edited.ValidationMode = "strict"
	if changed, _ := engine.HasUnsavedChanges(ctx, edited); !changed {
		t.Error("validation mode edit not detected")
	}

	shifted := settings.NewDraft(cfg)
	shifted.SetTimeInput(settings.Input24)
	shifted.End24.Minute++
	if changed, _ := engine.HasUnsavedChanges(ctx, shifted); !changed {
		t.Error("end time edit not detected")
	}
}

func TestReset(t *testing.T) {
	db := openTestDB(t)
	store := &settings.Store{DB: db}
	ctx := context.Background()

	err := store.SaveAll(ctx, settings.Fields{
		PollStart:      "2026-05-01 00:00:00",
		PollEnd:        "2026-05-02 00:00:00",
		Timezone:       "UTC",
		ValidationMode: "strict",
		TimeFormat:     "24",
		PhoneColumn:    "Cell",
	})
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	cfg, err := store.PollConfig(ctx)
	if err != nil {
		t.Fatalf("PollConfig: %v", err)
	}
	if cfg.Timezone != settings.DefaultTimezone || cfg.PhoneColumn != settings.DefaultPhoneColumn {
		t.Error("reset did not restore defaults")
	}
}

func TestFormatDisplay(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Karachi")
	at := time.Date(2026, 1, 5, 14, 30, 0, 0, loc)

	c12 := settings.Config{TimeFormat: "12"}
	if got := c12.FormatDisplay(at); got != "January 05, 2026 at 02:30 PM" {
		t.Errorf("12h display = %q", got)
	}
	c24 := settings.Config{TimeFormat: "24"}
	if got := c24.FormatDisplay(at); got != "January 05, 2026 at 14:30" {
		t.Errorf("24h display = %q", got)
	}
}
