package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pak-it/checkin/model"
	"github.com/pak-it/checkin/phone"
	"github.com/pak-it/checkin/settings"
	"github.com/pak-it/checkin/store"
)

var (
	// ErrAlreadyVoted rejects a second submission for one identity.
	ErrAlreadyVoted = errors.New("a response has already been recorded for this phone")

	// ErrUnknownEmployee means the phone resolved to no roster record.
	ErrUnknownEmployee = errors.New("phone number not found in employee database")

	// ErrInvalidChoice rejects a choice outside the three statuses.
	ErrInvalidChoice = errors.New("invalid response choice")
)

// NotOpenError reports a submission outside the poll window, carrying
// the boundary the caller should surface.
type NotOpenError struct {
	State    State
	Boundary time.Time // start when not yet open, end when closed
}

func (e *NotOpenError) Error() string {
	if e.State == NotStarted {
		return fmt.Sprintf("poll opens at %s", e.Boundary.Format(settings.TimeLayout))
	}
	return fmt.Sprintf("poll closed at %s", e.Boundary.Format(settings.TimeLayout))
}

// Service runs poll operations against the stores.
type Service struct {
	Employees *store.Employees
	Responses *store.Responses
	Settings  *settings.Store
}

// Status evaluates the poll window at now (converted to the poll's
// zone) and returns the effective configuration alongside.
func (s *Service) Status(ctx context.Context, now time.Time) (settings.Config, State, Remaining, error) {
	cfg, err := s.Settings.PollConfig(ctx)
	if err != nil {
		return cfg, Closed, Remaining{}, err
	}
	zoned := now.In(cfg.Location)
	state := StateOf(zoned, cfg.Start, cfg.End)
	var left Remaining
	if state == Open {
		left = TimeLeft(zoned, cfg.End)
	}
	return cfg, state, left, nil
}

// Lookup resolves a raw phone to its roster record, exact match first
// and normalized match second. Returns ErrUnknownEmployee when nothing
// matches.
func (s *Service) Lookup(ctx context.Context, rawPhone string) (*model.Employee, error) {
	emp, err := s.Employees.Find(ctx, phone.Canonicalize(rawPhone))
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrUnknownEmployee
	}
	return emp, nil
}

// Submit records one response. Preconditions in order: the window must
// be open, the phone must resolve to a known employee, and no response
// may exist for that employee. The response is keyed by the employee's
// stored roster phone, so the primary key constraint settles races
// between concurrent submissions. No failure path leaves a side
// effect.
func (s *Service) Submit(ctx context.Context, rawPhone string, choice model.Choice, now time.Time) error {
	if !choice.Valid() {
		return ErrInvalidChoice
	}

	cfg, err := s.Settings.PollConfig(ctx)
	if err != nil {
		return err
	}

	zoned := now.In(cfg.Location)
	switch StateOf(zoned, cfg.Start, cfg.End) {
	case NotStarted:
		return &NotOpenError{State: NotStarted, Boundary: cfg.Start}
	case Closed:
		return &NotOpenError{State: Closed, Boundary: cfg.End}
	}

	emp, err := s.Lookup(ctx, rawPhone)
	if err != nil {
		return err
	}

	err = s.Responses.Insert(ctx, emp.Phone, choice, zoned)
	if errors.Is(err, store.ErrConflict) {
		return ErrAlreadyVoted
	}
	return err
}
