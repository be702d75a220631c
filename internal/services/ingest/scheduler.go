package ingest

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Scheduler runs the embedding backfill on a cron schedule so chunks
// ingested without vectors eventually become searchable.
type Scheduler struct {
	service     *Service
	codeVersion string
	cron        *cron.Cron
	logger      arbor.ILogger
}

// NewScheduler creates a backfill scheduler for the given corpus version.
func NewScheduler(service *Service, codeVersion string, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		service:     service,
		codeVersion: codeVersion,
		cron:        cron.New(cron.WithSeconds()),
		logger:      logger,
	}
}

// Start begins the scheduled backfill runs.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: every 6 hours
		schedule = "0 0 */6 * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runBackfill()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Embedding backfill scheduler started")

	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Embedding backfill scheduler stopped")
}

// RunNow triggers an immediate backfill run.
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Triggering immediate backfill run")
	go s.runBackfill()
}

func (s *Scheduler) runBackfill() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info().Msg("Starting scheduled embedding backfill")

	embedded, err := s.service.BackfillEmbeddings(ctx, s.codeVersion)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("Scheduled embedding backfill failed")
		return
	}

	s.logger.Info().
		Int("embedded", embedded).
		Msg("Scheduled embedding backfill completed")
}
