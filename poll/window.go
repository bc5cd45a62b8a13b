// Package poll evaluates the poll window and runs the response
// submission flow.
package poll

import (
	"fmt"
	"time"
)

// State of the poll window for a given instant.
type State int

const (
	NotStarted State = iota // now < start
	Open                    // start <= now <= end
	Closed                  // now > end
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StateOf places now within the closed interval [start, end]. Pure;
// the caller is responsible for evaluating now in the poll's
// configured zone so evaluation and display cannot skew apart.
func StateOf(now, start, end time.Time) State {
	switch {
	case now.Before(start):
		return NotStarted
	case now.After(end):
		return Closed
	}
	return Open
}

// Remaining is the time left in an open poll, broken down for display.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// TimeLeft decomposes end - now. Meaningful only while the poll is
// open.
func TimeLeft(now, end time.Time) Remaining {
	left := end.Sub(now)
	if left < 0 {
		left = 0
	}
	return Remaining{
		Days:    int(left / (24 * time.Hour)),
		Hours:   int(left % (24 * time.Hour) / time.Hour),
		Minutes: int(left % time.Hour / time.Minute),
	}
}

func (r Remaining) String() string {
	if r.Days > 0 {
		return fmt.Sprintf("%dd %dh %dm", r.Days, r.Hours, r.Minutes)
	}
	return fmt.Sprintf("%dh %dm", r.Hours, r.Minutes)
}
