package graph

import (
	"github.com/lucagrillo/habitgrid/internal/core/calendar"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
)

// EffectiveDeadline resolves the deadline currently in force for a record.
// An explicit deadline wins; otherwise a configured deadline interval is
// projected from the scheduled day through the weekday set; otherwise the
// deadline coincides with the schedule.
func EffectiveDeadline(h *domain.HabitRecord) calendar.Day {
	if h.Deadline != nil {
		return *h.Deadline
	}
	if h.DeadlineRepeatDays > 0 {
		return calendar.AdvanceToAllowed(h.Scheduled, h.DeadlineRepeatDays-h.ScheduledRepeatDays, h.Weekdays)
	}
	return h.Scheduled
}

// EffectiveDeadlineRepeat returns the deadline interval in force, falling
// back to the scheduled interval when none is configured.
func EffectiveDeadlineRepeat(h *domain.HabitRecord) int {
	if h.DeadlineRepeatDays > 0 {
		return h.DeadlineRepeatDays
	}
	return h.ScheduledRepeatDays
}
