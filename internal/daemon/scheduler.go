package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/coursebuilder/internal/daemon/events"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
)

// Scheduler wraps gocron for periodic repository sync runs. Scheduled
// triggers go through the event bus like every other run source, so the
// debouncer can coalesce them with concurrent watch or webhook activity.
type Scheduler struct {
	scheduler gocron.Scheduler
	bus       *events.Bus
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(bus *events.Bus) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		bus:       bus,
	}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleSync registers a cron-driven sync-and-validate trigger.
// Returns the gocron job ID for later management.
func (s *Scheduler) ScheduleSync(cronExpr string) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(s.fireSync, cronExpr),
		gocron.WithName("scheduled-sync"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create scheduled sync job: %w", err)
	}

	slog.Info("Scheduled periodic sync",
		logfields.ScheduleID(job.ID().String()),
		slog.String("cron", cronExpr))

	return job.ID().String(), nil
}

// fireSync is called by gocron when the cron expression matches.
func (s *Scheduler) fireSync(cronExpr string) {
	slog.Info("Scheduled sync triggered", slog.String("cron", cronExpr))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.bus.Publish(ctx, events.ValidationRequested{
		Source:      "schedule",
		Reason:      fmt.Sprintf("cron %s", cronExpr),
		RequestedAt: time.Now(),
	}); err != nil {
		slog.Error("Failed to publish scheduled sync request", logfields.Error(err))
	}
}
