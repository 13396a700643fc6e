package graph

import (
	"github.com/lucagrillo/habitgrid/internal/core/calendar"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
)

// Status is the per-day adherence category of a habit cell.
type Status int

const (
	// StatusClear: the day lies before the current scheduled date (or is
	// skipped by the weekday set); nothing is expected.
	StatusClear Status = iota
	// StatusReady: the habit is on track for this day.
	StatusReady
	// StatusAlert: the deadline day has arrived and the habit is not done.
	StatusAlert
	// StatusOverdue: the deadline has passed without completion.
	StatusOverdue
)

func (s Status) String() string {
	switch s {
	case StatusClear:
		return "clear"
	case StatusReady:
		return "ready"
	case StatusAlert:
		return "alert"
	case StatusOverdue:
		return "overdue"
	default:
		return "unknown"
	}
}

// Face pairs a status with its intensity: Future selects the dimmed
// variant used for forecast (and muted past) cells.
type Face struct {
	Status Status
	Future bool
}

// Classifier evaluates the per-day decision table. It has no state between
// calls; the only knob is whether completed days stay green past their
// deadline.
type Classifier struct {
	DoneAlwaysGreen bool
}

// Classify returns the present- and future-intensity faces for day. When
// schedOverride is non-nil it replaces the record's own scheduled date and
// the deadline is re-projected from it; done marks a completion on day;
// skip marks a day outside the habit's weekday set.
func (c Classifier) Classify(h *domain.HabitRecord, day calendar.Day, schedOverride *calendar.Day, done, skip bool) (Face, Face) {
	scheduled := h.Scheduled
	deadline := EffectiveDeadline(h)
	if schedOverride != nil {
		scheduled = *schedOverride
		deadline = calendar.AdvanceToAllowed(scheduled, EffectiveDeadlineRepeat(h)-h.ScheduledRepeatDays, h.Weekdays)
	}

	var status Status
	switch {
	case skip || day.Number() < scheduled.Number():
		if schedOverride == nil && done {
			status = StatusReady
		} else {
			status = StatusClear
		}
	case day.Number() < deadline.Number():
		status = StatusReady
	case day.Number() == deadline.Number():
		if done {
			status = StatusReady
		} else {
			status = StatusAlert
		}
	case c.DoneAlwaysGreen && done:
		status = StatusReady
	default:
		status = StatusOverdue
	}

	return Face{Status: status}, Face{Status: status, Future: true}
}
