package workers

import (
	"context"
	"log"
	"time"

	"github.com/lucagrillo/habitgrid/internal/core/calendar"
	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/graph"
)

const scoreWindowDays = 365

type HabitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Habit, error)
	UpdateScore(ctx context.Context, id string, urgency, streak int) error
}

type CompletionRepository interface {
	ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.Completion, error)
}

type ScoreJob struct {
	HabitID string
}

// ScoreWorker recomputes a habit's urgency and streak off the request
// path whenever its completions change.
type ScoreWorker struct {
	habitRepo      HabitRepository
	completionRepo CompletionRepository
	jobs           chan ScoreJob
}

func NewScoreWorker(hRepo HabitRepository, cRepo CompletionRepository) *ScoreWorker {
	return &ScoreWorker{
		habitRepo:      hRepo,
		completionRepo: cRepo,
		jobs:           make(chan ScoreJob, 100),
	}
}

func (w *ScoreWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Score Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Score Worker shutting down...")
				return
			}
		}
	}()
}

func (w *ScoreWorker) Enqueue(habitID string) {
	select {
	case w.jobs <- ScoreJob{HabitID: habitID}:
	default:
		log.Printf("Score Worker queue full! Dropping job for habit %s", habitID)
	}
}

func (w *ScoreWorker) processJob(ctx context.Context, job ScoreJob) {
	habit, err := w.habitRepo.GetByID(ctx, job.HabitID)
	if err != nil {
		log.Printf("Worker Error fetching habit %s: %v", job.HabitID, err)
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -scoreWindowDays)

	completions, err := w.completionRepo.ListByHabitID(ctx, job.HabitID, from, now)
	if err != nil {
		log.Printf("Worker Error fetching completions for %s: %v", job.HabitID, err)
		return
	}

	done := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		done = append(done, c.CompletedOn)
	}

	record, err := habit.Snapshot(done)
	if err != nil {
		log.Printf("Worker Error projecting habit %s: %v", job.HabitID, err)
		return
	}

	today := calendar.DayOf(now)
	urgency := graph.Priority(record, today)
	streak := calculateStreak(record, today)

	if habit.Urgency != urgency || habit.Streak != streak {
		if err := w.habitRepo.UpdateScore(ctx, job.HabitID, urgency, streak); err != nil {
			log.Printf("Worker Failed to update score for %s: %v", job.HabitID, err)
		} else {
			log.Printf("Score updated for %s: Urgency=%d, Streak=%d", habit.Title, urgency, streak)
		}
	}
}

// calculateStreak counts completions walking backwards from today,
// stopping at the first past day the habit was due but left undone.
// Days the habit was not due do not break the run.
func calculateStreak(record *domain.HabitRecord, today calendar.Day) int {
	start := today.AddDays(-scoreWindowDays)

	builder := graph.Builder{Classifier: graph.Classifier{DoneAlwaysGreen: true}}
	cells := builder.Build(record, start, today, today)

	streak := 0
	for i := len(cells) - 1; i >= 0; i-- {
		cell := cells[i]
		if cell.Glyph == graph.GlyphDone {
			streak++
			continue
		}
		if cell.Day.Equal(today) {
			// Today is still open, an undone cell does not break the run.
			continue
		}
		if cell.Status == graph.StatusOverdue || cell.Status == graph.StatusAlert {
			break
		}
	}
	return streak
}
