// Package jobs runs the background work of the API process: relaying the
// order outbox and expiring overdue user coupons.
package jobs

import (
	"context"
	"fmt"
	"time"

	"travel-checkout/internal/repository"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// OutboxRelay publishes one batch of pending outbox events.
type OutboxRelay interface {
	RunOnce(ctx context.Context) (int, error)
}

// Config holds the job intervals.
type Config struct {
	OutboxInterval       time.Duration
	CouponExpiryInterval time.Duration
}

// Scheduler owns the gocron scheduler and the jobs registered on it.
type Scheduler struct {
	scheduler  gocron.Scheduler
	relay      OutboxRelay
	couponRepo repository.CouponRepository
	now        func() time.Time
	logger     zerolog.Logger

	// ctx is cancelled by Shutdown so running jobs stop their queries.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler registers the outbox relay and coupon expiry jobs. Each job
// runs in singleton mode: a run that is still going when the next tick fires
// delays that tick instead of overlapping it.
func NewScheduler(cfg Config, relay OutboxRelay, couponRepo repository.CouponRepository, logger zerolog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &Scheduler{
		scheduler:  s,
		relay:      relay,
		couponRepo: couponRepo,
		now:        time.Now,
		logger:     logger.With().Str("component", "jobs").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}

	if _, err := s.NewJob(
		gocron.DurationJob(cfg.OutboxInterval),
		gocron.NewTask(js.relayOutbox),
		gocron.WithName("outbox-relay"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		cancel()
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to register outbox relay job: %w", err)
	}

	if _, err := s.NewJob(
		gocron.DurationJob(cfg.CouponExpiryInterval),
		gocron.NewTask(js.expireCoupons),
		gocron.WithName("coupon-expiry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		cancel()
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to register coupon expiry job: %w", err)
	}

	return js, nil
}

// Start begins running the jobs in the background.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("scheduler started")
}

// Shutdown stops the scheduler and waits for running jobs to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.logger.Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) relayOutbox() {
	if _, err := s.relay.RunOnce(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("outbox relay run failed")
	}
}

func (s *Scheduler) expireCoupons() {
	n, err := s.couponRepo.ExpireOverdue(s.ctx, s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("coupon expiry sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Msg("expired overdue user coupons")
	}
}
