package services

import (
	"context"
	"sort"
	"time"

	"github.com/lucagrillo/habitgrid/internal/core/calendar"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/graph"
)

const (
	defaultGraphPastDays   = 21
	defaultGraphFutureDays = 7

	// Completions before the window start still move the done cursor,
	// so the fetch range reaches further back than the render range.
	graphHistoryDays = 365
)

type GraphService struct {
	habitRepo      domain.HabitRepository
	completionRepo domain.CompletionRepository
	userRepo       domain.UserRepository
}

func NewGraphService(habitRepo domain.HabitRepository, completionRepo domain.CompletionRepository, userRepo domain.UserRepository) *GraphService {
	return &GraphService{
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		userRepo:       userRepo,
	}
}

type GraphInput struct {
	HabitID string
	UserID  string
	Start   time.Time
	End     time.Time
}

type GraphView struct {
	HabitID    string       `json:"habit_id"`
	HabitTitle string       `json:"habit_title"`
	Color      string       `json:"color"`
	Start      string       `json:"start"`
	End        string       `json:"end"`
	Cells      []graph.Cell `json:"cells"`
}

type AgendaItem struct {
	HabitID    string `json:"habit_id"`
	HabitTitle string `json:"habit_title"`
	Color      string `json:"color"`
	Status     string `json:"status"`
	Future     bool   `json:"future"`
	Priority   int    `json:"priority"`
	Streak     int    `json:"streak"`
}

type Overview struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	TotalHabits int    `json:"total_habits"`
	DoneCells   int    `json:"done_cells"`
	DueCells    int    `json:"due_cells"`
	ClearCells  int    `json:"clear_cells"`
}

func (s *GraphService) BuildGraph(ctx context.Context, input GraphInput) (*GraphView, error) {
	habit, err := s.habitRepo.GetByID(ctx, input.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != input.UserID {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now().UTC()
	start, end := graphWindow(input.Start, input.End, now)

	record, err := s.snapshot(ctx, habit, start, end)
	if err != nil {
		return nil, err
	}

	classifier, err := s.classifierFor(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	builder := graph.Builder{Classifier: classifier}
	cells := builder.Build(record, calendar.DayOf(start), calendar.DayOf(end), calendar.DayOf(now))

	return &GraphView{
		HabitID:    habit.ID,
		HabitTitle: habit.Title,
		Color:      habit.Color,
		Start:      start.Format("2006-01-02"),
		End:        end.Format("2006-01-02"),
		Cells:      cells,
	}, nil
}

// Agenda classifies every habit for a single day and orders the due
// ones by urgency, most pressing first.
func (s *GraphService) Agenda(ctx context.Context, userID string, on time.Time) ([]AgendaItem, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	classifier, err := s.classifierFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := calendar.DayOf(on)
	items := make([]AgendaItem, 0, len(habits))

	for _, h := range habits {
		record, err := s.snapshot(ctx, h, on.AddDate(0, 0, -graphHistoryDays), on)
		if err != nil {
			return nil, err
		}

		face, _ := classifier.Classify(record, day, nil, false, false)
		if face.Status == graph.StatusClear {
			continue
		}

		items = append(items, AgendaItem{
			HabitID:    h.ID,
			HabitTitle: h.Title,
			Color:      h.Color,
			Status:     face.Status.String(),
			Future:     face.Future,
			Priority:   graph.Priority(record, day),
			Streak:     h.Streak,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority > items[j].Priority
	})

	return items, nil
}

func (s *GraphService) GetOverview(ctx context.Context, userID string, startTime, endTime time.Time) (*Overview, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	classifier, err := s.classifierFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	start, end := graphWindow(startTime, endTime, now)

	overview := &Overview{
		Start:       start.Format("2006-01-02"),
		End:         end.Format("2006-01-02"),
		TotalHabits: len(habits),
	}

	builder := graph.Builder{Classifier: classifier}

	for _, h := range habits {
		record, err := s.snapshot(ctx, h, start, end)
		if err != nil {
			return nil, err
		}

		cells := builder.Build(record, calendar.DayOf(start), calendar.DayOf(end), calendar.DayOf(now))
		for _, cell := range cells {
			switch {
			case cell.Glyph == graph.GlyphDone:
				overview.DoneCells++
			case cell.Status == graph.StatusClear:
				overview.ClearCells++
			default:
				overview.DueCells++
			}
		}
	}

	return overview, nil
}

func (s *GraphService) snapshot(ctx context.Context, habit *domain.Habit, start, end time.Time) (*domain.HabitRecord, error) {
	from := start.AddDate(0, 0, -graphHistoryDays)

	completions, err := s.completionRepo.ListByHabitID(ctx, habit.ID, from, end)
	if err != nil {
		return nil, err
	}

	done := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		done = append(done, c.CompletedOn)
	}

	return habit.Snapshot(done)
}

func (s *GraphService) classifierFor(ctx context.Context, userID string) (graph.Classifier, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return graph.Classifier{}, err
	}
	return graph.Classifier{DoneAlwaysGreen: user.DoneAlwaysGreen}, nil
}

func graphWindow(start, end, now time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start = now.AddDate(0, 0, -defaultGraphPastDays)
	}
	if end.IsZero() {
		end = now.AddDate(0, 0, defaultGraphFutureDays)
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}
