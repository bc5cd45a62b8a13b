package settings

import (
	"context"
	"errors"
)

// View identifies one admin dashboard tab.
type View string

const (
	ViewResults  View = "results"
	ViewUsers    View = "users"
	ViewSettings View = "settings"
)

// Resolution is the admin's answer to the unsaved-changes dialog.
type Resolution int

const (
	SaveAndSwitch Resolution = iota
	DiscardAndSwitch
	Cancel
)

var (
	// ErrNoPendingNavigation means Resolve was called without a
	// blocked navigation in flight.
	ErrNoPendingNavigation = errors.New("no pending navigation to resolve")

	// ErrNoDraft means no settings view is open in this session.
	ErrNoDraft = errors.New("no settings draft in this session")
)

// Session is the state of one admin's dashboard visit: the active
// view, the settings draft while the settings view is open, and any
// navigation request blocked on unsaved changes. One Session per
// editing session; it is never shared between admins.
type Session struct {
	engine *Engine

	active  View
	draft   *Draft
	pending View
	blocked bool
}

func NewSession(engine *Engine) *Session {
	return &Session{engine: engine, active: ViewResults}
}

func (s *Session) Active() View { return s.active }

// Draft returns the working copy while the settings view is open,
// nil otherwise.
func (s *Session) Draft() *Draft { return s.draft }

// PendingNavigation returns the destination of a blocked navigation
// request, if one is awaiting resolution.
func (s *Session) PendingNavigation() (View, bool) {
	return s.pending, s.blocked
}

// OpenSettings switches to the settings view, seeding the draft from
// the persisted configuration.
func (s *Session) OpenSettings(ctx context.Context) error {
	if s.active == ViewSettings && s.draft != nil {
		return nil
	}
	cfg, err := s.engine.Store.PollConfig(ctx)
	if err != nil {
		return err
	}
	s.active = ViewSettings
	s.draft = NewDraft(cfg)
	return nil
}

// Navigate requests a switch to dest. Leaving the settings view with
// unsaved changes blocks the switch until Resolve is called; there is
// no other way past the gate while a diverged draft exists.
func (s *Session) Navigate(ctx context.Context, dest View) (moved bool, err error) {
	if dest == ViewSettings {
		if err := s.OpenSettings(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	if s.active == ViewSettings && s.draft != nil {
		changed, err := s.engine.HasUnsavedChanges(ctx, s.draft)
		if err != nil {
			return false, err
		}
		if changed {
			s.pending = dest
			s.blocked = true
			return false, nil
		}
		s.draft = nil
	}

	s.active = dest
	return true, nil
}

// Resolve settles a blocked navigation. SaveAndSwitch persists the
// draft and moves on; a validation failure keeps the session on the
// settings view with the destination retained for retry.
// DiscardAndSwitch drops the draft and moves on. Cancel drops only the
// navigation request.
func (s *Session) Resolve(ctx context.Context, action Resolution) error {
	if !s.blocked {
		return ErrNoPendingNavigation
	}

	switch action {
	case SaveAndSwitch:
		if err := s.engine.Save(ctx, s.draft); err != nil {
			return err
		}
		s.active = s.pending
		s.draft = nil
	case DiscardAndSwitch:
		s.active = s.pending
		s.draft = nil
	case Cancel:
		// stay put, keep editing
	}

	s.pending = ""
	s.blocked = false
	return nil
}

// SaveDraft persists the current draft in place (the "Save All
// Settings" button). On success the draft is reseeded from the freshly
// persisted configuration.
func (s *Session) SaveDraft(ctx context.Context) error {
	if s.draft == nil {
		return ErrNoDraft
	}
	if err := s.engine.Save(ctx, s.draft); err != nil {
		return err
	}
	cfg, err := s.engine.Store.PollConfig(ctx)
	if err != nil {
		return err
	}
	s.draft = NewDraft(cfg)
	return nil
}
