// Package scheduler runs periodic housekeeping: purging dead sessions and
// abandoned empty carts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autoparts/internal/clock"
	obsmetrics "github.com/smallbiznis/autoparts/internal/observability/metrics"
	"github.com/smallbiznis/autoparts/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobPurgeSessions   = "purge_sessions"
	JobPurgeEmptyCarts = "purge_empty_carts"

	runLockKey = "scheduler:housekeeping"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Locker  lock.Locker
	Metrics *obsmetrics.Metrics `optional:"true"`
	Config  Config              `optional:"true"`
}

type Scheduler struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     Config
	genID   *snowflake.Node
	clock   clock.Clock
	locker  lock.Locker
	metrics *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil {
		return nil, errors.New("scheduler: db is required")
	}
	if p.Locker == nil {
		return nil, errors.New("scheduler: locker is required")
	}
	return &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler"),
		cfg:     p.Config.withDefaults(),
		genID:   p.GenID,
		clock:   p.Clock,
		locker:  p.Locker,
		metrics: p.Metrics,
	}, nil
}

// RunOnce runs every job in order. It holds the housekeeping lock so only one
// replica sweeps at a time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	release, err := s.locker.Acquire(parent, runLockKey)
	if err != nil {
		if errors.Is(err, lock.ErrAcquireTimeout) {
			s.log.Debug("housekeeping already running elsewhere")
			return nil
		}
		return err
	}
	defer release()

	var errs []error
	if err := s.runJob(parent, JobPurgeSessions, s.PurgeSessionsJob); err != nil {
		errs = append(errs, err)
	}
	if err := s.runJob(parent, JobPurgeEmptyCarts, s.PurgeEmptyCartsJob); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context, run *jobRun) error) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	run := s.newJobRun(name)
	s.logJobStart(run)

	err := fn(ctx, run)
	if err != nil {
		run.IncError()
	}
	s.logJobFinish(run)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	isTimeout := errors.Is(err, context.DeadlineExceeded)
	if isTimeout {
		outcome = "timeout"
	}
	s.metrics.ObserveJob(name, outcome, time.Since(run.startedAt))

	if err == nil {
		return nil
	}
	// a timed out sweep resumes on the next tick
	if isTimeout {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
