// Package sweeper runs the periodic job that expires stale approval
// requests. The gateway never triggers this itself; lazy expiry on access
// already keeps decisions correct, the sweep just keeps the pending queue
// tidy for operators.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule sweeps once a minute.
const DefaultSchedule = "* * * * *"

// sweepTimeout bounds one sweep pass.
const sweepTimeout = 30 * time.Second

// Expirer is the gateway surface the sweeper drives.
type Expirer interface {
	ExpireStaleApprovals(ctx context.Context) (int, error)
}

// Sweeper schedules expiry sweeps on a cron schedule.
type Sweeper struct {
	expirer  Expirer
	logger   zerolog.Logger
	schedule string
	runner   *cron.Cron
}

// New creates a sweeper. An empty schedule falls back to DefaultSchedule.
func New(expirer Expirer, schedule string, logger zerolog.Logger) (*Sweeper, error) {
	if expirer == nil {
		return nil, fmt.Errorf("expirer is required")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	return &Sweeper{
		expirer:  expirer,
		logger:   logger,
		schedule: schedule,
	}, nil
}

// Start begins sweeping on the configured schedule.
func (s *Sweeper) Start() error {
	if s.runner != nil {
		return fmt.Errorf("sweeper already started")
	}

	s.runner = cron.New()
	if _, err := s.runner.AddFunc(s.schedule, s.Sweep); err != nil {
		s.runner = nil
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	s.runner.Start()

	s.logger.Info().Str("schedule", s.schedule).Msg("Approval sweeper started")

	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.runner == nil {
		return
	}
	<-s.runner.Stop().Done()
	s.runner = nil

	s.logger.Info().Msg("Approval sweeper stopped")
}

// Sweep runs one expiry pass. Exported so callers can force a pass outside
// the schedule.
func (s *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	expired, err := s.expirer.ExpireStaleApprovals(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Approval sweep failed")
		return
	}
	if expired > 0 {
		s.logger.Info().Int("expired", expired).Msg("Approval sweep completed")
	}
}
