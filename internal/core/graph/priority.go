package graph

import (
	"github.com/lucagrillo/habitgrid/internal/core/calendar"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
)

// Priority scores a habit's urgency relative to ref. Higher is more urgent.
// The score grows 10 per day past the scheduled date, gets a one-time +50
// bump on the exact deadline day when a distinct deadline exists, and grows
// 100 per day of slip once the deadline has been missed.
func Priority(h *domain.HabitRecord, ref calendar.Day) int {
	base := 1000
	base += 10 * (ref.Number() - h.Scheduled.Number())

	deadline := EffectiveDeadline(h)
	if deadline.Number() != h.Scheduled.Number() && ref.Number() == deadline.Number() {
		base += 50
	}

	slip := ref.Number() - (deadline.Number() - 1)
	if slip > 0 {
		base += 100 * slip
	} else {
		base += 10 * slip
	}

	return base
}
