package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lucagrillo/habitgrid/internal/core/calendar"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/workers"
)

// ToggleTracker watches the last two completion toggles for a habit
// within one caller session. A reschedule fires only on the
// done -> not-done flip, so marking a habit done and immediately
// undoing it is what pushes its scheduled date forward.
type ToggleTracker struct {
	prev     bool
	curr     bool
	observed int
}

func (t *ToggleTracker) Observe(done bool) {
	t.prev = t.curr
	t.curr = done
	if t.observed < 2 {
		t.observed++
	}
}

func (t *ToggleTracker) ShouldReschedule() bool {
	return t.observed >= 2 && t.prev && !t.curr
}

func (t *ToggleTracker) Reset() {
	*t = ToggleTracker{}
}

type trackerKey struct {
	userID  string
	habitID string
}

type RescheduleService struct {
	habitRepo      domain.HabitRepository
	completionRepo domain.CompletionRepository
	worker         *workers.ScoreWorker

	mu       sync.Mutex
	trackers map[trackerKey]*ToggleTracker
}

func NewRescheduleService(habitRepo domain.HabitRepository, completionRepo domain.CompletionRepository, worker *workers.ScoreWorker) *RescheduleService {
	return &RescheduleService{
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		worker:         worker,
		trackers:       make(map[trackerKey]*ToggleTracker),
	}
}

// ObserveToggle records a completion toggle for the user's habit and,
// when the tracker detects the done -> not-done flip, applies the
// reschedule. Returns nil when nothing fired.
func (s *RescheduleService) ObserveToggle(ctx context.Context, habitID, userID string, done bool) (*RescheduleResult, error) {
	key := trackerKey{userID: userID, habitID: habitID}

	s.mu.Lock()
	tracker, ok := s.trackers[key]
	if !ok {
		tracker = &ToggleTracker{}
		s.trackers[key] = tracker
	}
	tracker.Observe(done)
	fire := tracker.ShouldReschedule()
	if fire {
		tracker.Reset()
	}
	s.mu.Unlock()

	if !fire {
		return nil, nil
	}

	return s.Apply(ctx, RescheduleInput{HabitID: habitID, UserID: userID})
}

type RescheduleInput struct {
	HabitID string
	UserID  string
	From    time.Time
	Version int
}

type RescheduleResult struct {
	HabitID       string `json:"habit_id"`
	Repeater      string `json:"repeater"`
	CurrentDate   string `json:"current_date"`
	NextDate      string `json:"next_date"`
	NextWeekday   int    `json:"next_weekday"`
	OffsetDays    int    `json:"offset_days"`
	SkippedDays   int    `json:"skipped_days"`
	Applied       bool   `json:"applied"`
	ServerVersion int    `json:"server_version"`
}

// Preview computes where the habit's scheduled date would land without
// writing anything back.
func (s *RescheduleService) Preview(ctx context.Context, input RescheduleInput) (*RescheduleResult, error) {
	habit, record, err := s.load(ctx, input)
	if err != nil {
		return nil, err
	}

	from := input.From
	if from.IsZero() {
		from = time.Now().UTC()
	}

	return s.resolve(ctx, habit, record, from)
}

// Apply computes the next scheduled date and writes it back, clearing
// any explicit deadline so the projected one takes over.
func (s *RescheduleService) Apply(ctx context.Context, input RescheduleInput) (*RescheduleResult, error) {
	habit, record, err := s.load(ctx, input)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	from := input.From
	if from.IsZero() {
		from = time.Now().UTC()
	}

	result, err := s.resolve(ctx, habit, record, from)
	if err != nil {
		return nil, err
	}

	next, err := time.Parse("2006-01-02", result.NextDate)
	if err != nil {
		return nil, err
	}

	if err := habit.Reschedule(next); err != nil {
		return nil, err
	}
	if err := s.habitRepo.Update(ctx, habit); err != nil {
		return nil, err
	}

	s.worker.Enqueue(habit.ID)

	result.Applied = true
	result.ServerVersion = habit.Version
	return result, nil
}

func (s *RescheduleService) load(ctx context.Context, input RescheduleInput) (*domain.Habit, *domain.HabitRecord, error) {
	habit, err := s.habitRepo.GetByID(ctx, input.HabitID)
	if err != nil {
		return nil, nil, err
	}
	if habit.UserID != input.UserID {
		return nil, nil, domain.ErrUnauthorized
	}

	record, err := habit.Snapshot(nil)
	if err != nil {
		return nil, nil, err
	}

	return habit, record, nil
}

func (s *RescheduleService) resolve(ctx context.Context, habit *domain.Habit, record *domain.HabitRecord, from time.Time) (*RescheduleResult, error) {
	fromDay := calendar.DayOf(from)

	anchor := record.Scheduled
	if record.Kind == domain.RepeaterFixed {
		// A fixed repeater restarts from the day the habit was last
		// completed, not from the old scheduled date.
		last, err := s.lastCompletion(ctx, habit.ID, from)
		if err != nil {
			return nil, err
		}
		anchor = fromDay
		if last != nil {
			anchor = *last
		}
	}

	next := nextScheduled(record, anchor, fromDay)

	return &RescheduleResult{
		HabitID:       habit.ID,
		Repeater:      habit.Repeater,
		CurrentDate:   record.Scheduled.Time().Format("2006-01-02"),
		NextDate:      next.Time().Format("2006-01-02"),
		NextWeekday:   int(next.Weekday()),
		OffsetDays:    next.Number() - record.Scheduled.Number(),
		SkippedDays:   next.Number() - anchor.Number() - record.ScheduledRepeatDays,
		ServerVersion: habit.Version,
	}, nil
}

func (s *RescheduleService) lastCompletion(ctx context.Context, habitID string, upTo time.Time) (*calendar.Day, error) {
	completions, err := s.completionRepo.ListByHabitID(ctx, habitID, upTo.AddDate(0, 0, -graphHistoryDays), upTo)
	if err != nil {
		return nil, err
	}
	if len(completions) == 0 {
		return nil, nil
	}

	last := calendar.DayOf(completions[0].CompletedOn)
	for _, c := range completions[1:] {
		day := calendar.DayOf(c.CompletedOn)
		if last.Before(day) {
			last = day
		}
	}
	return &last, nil
}

func nextScheduled(record *domain.HabitRecord, anchor, from calendar.Day) calendar.Day {
	switch record.Kind {
	case domain.RepeaterAccumulating:
		// One period from the old date, even if that still lies in
		// the past.
		return stepAllowed(record.Scheduled, record.ScheduledRepeatDays, record.Weekdays)
	case domain.RepeaterCatchUp:
		// Keep stepping until the new date lands after the reference
		// day, absorbing however many periods were missed.
		next := record.Scheduled
		for !from.Before(next) {
			next = stepAllowed(next, record.ScheduledRepeatDays, record.Weekdays)
		}
		return next
	default:
		return stepAllowed(anchor, record.ScheduledRepeatDays, record.Weekdays)
	}
}

func stepAllowed(day calendar.Day, repeatDays int, set calendar.WeekdaySet) calendar.Day {
	_, offset := calendar.NextAllowedWeekday(day.Weekday(), repeatDays, set)
	return day.AddDays(offset)
}
