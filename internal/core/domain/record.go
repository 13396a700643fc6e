package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lucagrillo/habitgrid/internal/core/calendar"
)

var ErrMissingSchedule = errors.New("habit has no scheduled date")

// HabitRecord is the validated, immutable snapshot the graph and scoring
// code operates on. It is built once per request from a stored habit and its
// completions; nothing downstream mutates it, so every consumer can assume a
// well-formed record and stay total.
type HabitRecord struct {
	Title string

	Scheduled           calendar.Day
	ScheduledRepeatDays int
	Deadline            *calendar.Day
	DeadlineRepeatDays  int // 0 = not configured

	DoneDates []calendar.Day // ascending by day number, duplicates allowed

	Kind     RepeaterKind
	Weekdays calendar.WeekdaySet
}

// RecordInput carries the externally parsed item metadata a HabitRecord is
// validated from. Scheduled and Done timestamps arrive as wall-clock times;
// Repeater and WeekdaySpec arrive as raw property strings.
type RecordInput struct {
	Title       string
	Scheduled   *time.Time
	Deadline    *time.Time
	Repeater    string
	WeekdaySpec string
	Done        []time.Time
}

// NewHabitRecord validates input exhaustively and returns the snapshot.
// Every error wraps one of the sentinel errors and names the habit.
func NewHabitRecord(input RecordInput) (*HabitRecord, error) {
	if input.Scheduled == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingSchedule, input.Title)
	}

	repeater, err := ParseRepeater(input.Repeater)
	if err != nil {
		return nil, fmt.Errorf("habit %q: %w", input.Title, err)
	}

	weekdays, err := calendar.ParseWeekdaySet(input.WeekdaySpec)
	if err != nil {
		return nil, fmt.Errorf("habit %q: %w", input.Title, err)
	}

	done := make([]calendar.Day, 0, len(input.Done))
	for _, t := range input.Done {
		done = append(done, calendar.DayOf(t))
	}
	sort.Slice(done, func(i, j int) bool {
		return done[i].Number() < done[j].Number()
	})

	rec := &HabitRecord{
		Title:               input.Title,
		Scheduled:           calendar.DayOf(*input.Scheduled),
		ScheduledRepeatDays: repeater.ScheduledDays,
		DeadlineRepeatDays:  repeater.DeadlineDays,
		DoneDates:           done,
		Kind:                repeater.Kind,
		Weekdays:            weekdays,
	}

	if input.Deadline != nil {
		d := calendar.DayOf(*input.Deadline)
		rec.Deadline = &d
	}

	return rec, nil
}
