package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pak-it/checkin/settings"
)

func newTestSession(t *testing.T) (*settings.Session, *settings.Engine) {
	t.Helper()
	engine := &settings.Engine{Store: &settings.Store{DB: openTestDB(t)}}
	return settings.NewSession(engine), engine
}

func TestNavigateWithoutDraftMovesFreely(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	moved, err := s.Navigate(ctx, settings.ViewUsers)
	if err != nil || !moved {
		t.Fatalf("Navigate = (%v, %v), want moved", moved, err)
	}
	if s.Active() != settings.ViewUsers {
		t.Errorf("active = %v", s.Active())
	}
}

func TestLeavingCleanSettingsDropsDraft(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if _, err := s.Navigate(ctx, settings.ViewSettings); err != nil {
		t.Fatalf("open settings: %v", err)
	}
	if s.Draft() == nil {
		t.Fatal("settings view should seed a draft")
	}

	moved, err := s.Navigate(ctx, settings.ViewResults)
	if err != nil || !moved {
		t.Fatalf("Navigate = (%v, %v), want moved", moved, err)
	}
	if s.Draft() != nil {
		t.Error("draft should be discarded when leaving without changes")
	}
}

func TestUnsavedChangesBlockNavigation(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if _, err := s.Navigate(ctx, settings.ViewSettings); err != nil {
		t.Fatalf("open settings: %v", err)
	}
	s.Draft().ValidationMode = "strict"

	moved, err := s.Navigate(ctx, settings.ViewResults)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if moved {
		t.Fatal("navigation should be blocked by unsaved changes")
	}
	if s.Active() != settings.ViewSettings {
		t.Error("session must stay on settings while blocked")
	}
	if dest, blocked := s.PendingNavigation(); !blocked || dest != settings.ViewResults {
		t.Errorf("pending = (%v, %v)", dest, blocked)
	}
}

func TestResolveSaveAndSwitch(t *testing.T) {
	s, engine := newTestSession(t)
	ctx := context.Background()

	s.Navigate(ctx, settings.ViewSettings)
	s.Draft().ValidationMode = "strict"
	s.Navigate(ctx, settings.ViewUsers)

	if err := s.Resolve(ctx, settings.SaveAndSwitch); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Active() != settings.ViewUsers || s.Draft() != nil {
		t.Error("save&switch should persist, clear draft and move")
	}
	if _, blocked := s.PendingNavigation(); blocked {
		t.Error("pending navigation should be cleared")
	}

	cfg, err := engine.Store.PollConfig(ctx)
	if err != nil {
		t.Fatalf("PollConfig: %v", err)
	}
	if string(cfg.ValidationMode) != "strict" {
		t.Error("draft edit was not persisted")
	}
}

func TestResolveSaveFailureRetainsDestination(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	s.Navigate(ctx, settings.ViewSettings)
	d := s.Draft()
	d.ValidationMode = "strict"
	d.SetTimeInput(settings.Input24)
	d.EndDate = d.StartDate
	d.End24 = d.Start24 // empty window, Save must fail
	s.Navigate(ctx, settings.ViewResults)

	err := s.Resolve(ctx, settings.SaveAndSwitch)
	var invalid *settings.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if s.Active() != settings.ViewSettings {
		t.Error("failed save must keep the session on settings")
	}
	if dest, blocked := s.PendingNavigation(); !blocked || dest != settings.ViewResults {
		t.Error("destination must be retained for retry")
	}

	// fix the draft and retry
	d.End24.Hour = d.Start24.Hour + 1
	if err := s.Resolve(ctx, settings.SaveAndSwitch); err != nil {
		t.Fatalf("retry Resolve: %v", err)
	}
	if s.Active() != settings.ViewResults {
		t.Error("retry should complete the navigation")
	}
}

func TestResolveDiscardAndSwitch(t *testing.T) {
	s, engine := newTestSession(t)
	ctx := context.Background()

	s.Navigate(ctx, settings.ViewSettings)
	s.Draft().ValidationMode = "strict"
	s.Navigate(ctx, settings.ViewUsers)

	if err := s.Resolve(ctx, settings.DiscardAndSwitch); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Active() != settings.ViewUsers || s.Draft() != nil {
		t.Error("discard&switch should drop draft and move")
	}

	cfg, _ := engine.Store.PollConfig(ctx)
	if string(cfg.ValidationMode) == "strict" {
		t.Error("discarded edit must not be persisted")
	}
}

func TestResolveCancel(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	s.Navigate(ctx, settings.ViewSettings)
	s.Draft().ValidationMode = "strict"
	s.Navigate(ctx, settings.ViewUsers)

	if err := s.Resolve(ctx, settings.Cancel); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Active() != settings.ViewSettings {
		t.Error("cancel should stay on settings")
	}
	if s.Draft() == nil || string(s.Draft().ValidationMode) != "strict" {
		t.Error("cancel must keep the draft intact")
	}
	if _, blocked := s.PendingNavigation(); blocked {
		t.Error("cancel clears only the pending navigation request")
	}
}

func TestResolveWithoutPendingNavigation(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Resolve(context.Background(), settings.Cancel); !errors.Is(err, settings.ErrNoPendingNavigation) {
		t.Errorf("want ErrNoPendingNavigation, got %v", err)
	}
}

func TestSaveDraftReseeds(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	s.Navigate(ctx, settings.ViewSettings)
	s.Draft().PhoneColumn = "Mobile"
	if err := s.SaveDraft(ctx); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if s.Draft() == nil || s.Draft().PhoneColumn != "Mobile" {
		t.Error("draft should be reseeded from the saved configuration")
	}

	// a reseeded draft is clean again
	moved, err := s.Navigate(ctx, settings.ViewResults)
	if err != nil || !moved {
		t.Errorf("clean reseeded draft should not block navigation: (%v, %v)", moved, err)
	}
}
