package graph

import (
	"github.com/lucagrillo/habitgrid/internal/core/calendar"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
)

// Glyph is the character class of a graph cell.
type Glyph int

const (
	GlyphBlank Glyph = iota
	GlyphDone
	GlyphToday
)

func (g Glyph) String() string {
	switch g {
	case GlyphDone:
		return "done"
	case GlyphToday:
		return "today"
	default:
		return "blank"
	}
}

// Cell is one day of the consistency graph.
type Cell struct {
	Day     calendar.Day `json:"-"`
	Date    string       `json:"date"`
	Glyph   Glyph        `json:"-"`
	Kind    string       `json:"kind"`
	Status  Status       `json:"-"`
	Face    string       `json:"face"`
	Future  bool         `json:"future"`
	Tooltip string       `json:"tooltip,omitempty"`
}

// Builder walks a display window and renders one cell per calendar day.
type Builder struct {
	Classifier Classifier
}

// catchUpState is the running anchor/offset pair for the "++" repeater.
// The projection it produces is a best-effort heuristic carried over from
// plain-text agenda habits: across several missed periods it can drift by up
// to a full repeat interval. Consumers rely on the exact behavior, so it is
// kept as is rather than corrected.
type catchUpState struct {
	seeded  bool
	incr    int
	elapsed int
}

func (s *catchUpState) seed(h *domain.HabitRecord, day calendar.Day, lastDone calendar.Day) {
	if h.ScheduledRepeatDays == 1 {
		s.incr = 1 + (lastDone.Number() - h.Scheduled.Number())
	} else {
		periods := (day.Number() - h.Scheduled.Number()) / h.ScheduledRepeatDays
		s.incr = periods * h.ScheduledRepeatDays
	}
	s.seeded = true
	s.elapsed = 0
}

func (s *catchUpState) tick(repeatDays int) {
	s.elapsed++
	if s.elapsed >= repeatDays {
		s.incr += repeatDays
		s.elapsed = 0
	}
}

// Build renders the window [start, end] inclusive for one record, with now
// splitting history from forecast. Every calendar day in the window gets
// exactly one cell, including days outside the habit's weekday set.
func (b Builder) Build(h *domain.HabitRecord, start, end, now calendar.Day) []Cell {
	// Duplicate same-day completions collapse to a single done day.
	done := make([]calendar.Day, 0, len(h.DoneDates))
	for _, d := range h.DoneDates {
		if len(done) == 0 || done[len(done)-1].Number() != d.Number() {
			done = append(done, d)
		}
	}

	var lastDone *calendar.Day
	idx := 0
	for idx < len(done) && done[idx].Number() < start.Number() {
		d := done[idx]
		lastDone = &d
		idx++
	}

	var catchUp catchUpState

	cells := make([]Cell, 0, end.Number()-start.Number()+1)
	for day := start; day.Number() <= end.Number(); day = day.AddDays(1) {
		isPast := day.Number() < now.Number()
		isToday := day.Number() == now.Number()
		isSkipped := !h.Weekdays.Contains(day.Weekday())
		isDone := idx < len(done) && done[idx].Number() == day.Number()

		var asOf *calendar.Day
		if isPast && lastDone != nil {
			switch h.Kind {
			case domain.RepeaterFixed:
				d := calendar.AdvanceToAllowed(*lastDone, h.ScheduledRepeatDays, h.Weekdays)
				asOf = &d
			case domain.RepeaterAccumulating:
				// Each remaining completion in the window pushed the stored
				// schedule one period forward, so back it out to recover the
				// schedule as it stood on this day.
				remaining := len(done) - idx
				d := calendar.AdvanceToAllowed(h.Scheduled, -(remaining * h.ScheduledRepeatDays), h.Weekdays)
				asOf = &d
			case domain.RepeaterCatchUp:
				if !catchUp.seeded {
					catchUp.seed(h, day, *lastDone)
				} else {
					catchUp.tick(h.ScheduledRepeatDays)
				}
				d := calendar.AdvanceToAllowed(h.Scheduled, catchUp.incr, calendar.AllWeekdays())
				asOf = &d
			}
		}

		present, future := b.Classifier.Classify(h, day, asOf, isDone, isSkipped)

		glyph := GlyphBlank
		tooltip := ""
		switch {
		case isDone:
			glyph = GlyphDone
			tooltip = day.Time().Format("2006-01-02")
			d := day
			lastDone = &d
			idx++
			if h.Kind == domain.RepeaterCatchUp && catchUp.seeded {
				catchUp.seed(h, day, *lastDone)
			}
		case isToday:
			glyph = GlyphToday
		}

		face := present
		if !isPast && !isToday {
			face = future
		}
		// Completed and overdue history keeps full intensity; the rest of
		// the past is dimmed so today and trouble spots stand out.
		if isPast && face.Status != StatusOverdue && glyph != GlyphDone {
			face = future
		}

		cells = append(cells, Cell{
			Day:     day,
			Date:    day.Time().Format("2006-01-02"),
			Glyph:   glyph,
			Kind:    glyph.String(),
			Status:  face.Status,
			Face:    face.Status.String(),
			Future:  face.Future,
			Tooltip: tooltip,
		})
	}

	return cells
}
