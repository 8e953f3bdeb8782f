// Package scheduler runs the periodic league jobs: starting events whose
// start time has passed and a nightly safety-net leaderboard rebuild.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chip-race/league-server/services"
	"github.com/go-co-op/gocron/v2"
)

type Scheduler struct {
	s              gocron.Scheduler
	eventService   services.EventService
	rankingService services.RankingService
	logger         *slog.Logger
}

func New(eventService services.EventService, rankingService services.RankingService, logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:              s,
		eventService:   eventService,
		rankingService: rankingService,
		logger:         logger,
	}, nil
}

func (s *Scheduler) Start() error {
	// Start due events - every minute
	_, err := s.s.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(s.startDueEvents),
	)
	if err != nil {
		return fmt.Errorf("failed to create due events job: %w", err)
	}

	// Full leaderboard rebuild - nightly at 04:00. The rebuild also runs
	// on every mutation; this one catches anything that slipped through.
	_, err = s.s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(4, 0, 0))),
		gocron.NewTask(s.recalculateLeaderboards),
	)
	if err != nil {
		return fmt.Errorf("failed to create recalculation job: %w", err)
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) startDueEvents() {
	started, err := s.eventService.StartDueEvents(context.Background(), time.Now())
	if err != nil {
		s.logger.Error("scheduler: failed to start due events", slog.Any("error", err))
		return
	}
	if started > 0 {
		s.logger.Info("scheduler: started due events", slog.Int("count", started))
	}
}

func (s *Scheduler) recalculateLeaderboards() {
	if err := s.rankingService.RecalculateAll(context.Background()); err != nil {
		s.logger.Error("scheduler: nightly recalculation failed", slog.Any("error", err))
		return
	}
	s.logger.Info("scheduler: nightly recalculation complete")
}
