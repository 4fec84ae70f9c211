package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bandi-Aditya/OfflineExam/internal/repository"
)

// DeadlineWorker periodically force-submits attempts that are still in
// progress after their session's end time plus the configured grace
// window. Clients auto-submit on their own timers; this is the server-side
// backstop for clients that never come back.
type DeadlineWorker struct {
	assignments *repository.AssignmentRepository
	grace       time.Duration
	interval    time.Duration
	log         zerolog.Logger
}

// NewDeadlineWorker creates a new DeadlineWorker.
func NewDeadlineWorker(assignments *repository.AssignmentRepository, grace time.Duration, log zerolog.Logger) *DeadlineWorker {
	return &DeadlineWorker{
		assignments: assignments,
		grace:       grace,
		interval:    time.Minute,
		log:         log.With().Str("component", "deadline_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Dur("grace", w.grace).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeadlineWorker) sweep(ctx context.Context) {
	closed, err := w.assignments.ForceSubmitOverdue(ctx, w.grace, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Deadline sweep failed")
		}
		return
	}
	if closed > 0 {
		w.log.Warn().Int64("closed", closed).Msg("Force-submitted overdue attempts")
	}
}
