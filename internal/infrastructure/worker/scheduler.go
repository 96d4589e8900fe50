package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobTrigger starts a detection job on behalf of a user
type JobTrigger interface {
	Trigger(ctx context.Context, user *entity.Profile, jobName string, params map[string]string) (*entity.JobTrigger, error)
}

// Schedule binds a detection job to a cron expression
type Schedule struct {
	JobName string
	Spec    string
}

// Scheduler triggers detection jobs on cron schedules as the system user
type Scheduler struct {
	trigger   JobTrigger
	schedules []Schedule
	actor     *entity.Profile
	logger    *zap.Logger

	mu        sync.Mutex
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
}

// NewScheduler creates a Scheduler. Every run is requested as actor.
func NewScheduler(trigger JobTrigger, schedules []Schedule, actor *entity.Profile, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		trigger:   trigger,
		schedules: schedules,
		actor:     actor,
		logger:    logger,
	}
}

// Name returns the worker name
func (s *Scheduler) Name() string {
	return "JobScheduler"
}

// Start parses every schedule and starts the cron loop. An invalid cron
// expression fails the start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	for _, sc := range s.schedules {
		sc := sc
		if _, err := c.AddFunc(sc.Spec, func() { s.run(sc.JobName) }); err != nil {
			return fmt.Errorf("invalid schedule %q for job %s: %w", sc.Spec, sc.JobName, err)
		}
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = c
	s.isRunning = true
	c.Start()

	s.logger.Info("Job scheduler started", zap.Int("schedules", len(s.schedules)))
	return nil
}

// Stop stops the cron loop and waits for running triggers
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	c := s.cron
	s.cancel()
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info("Job scheduler stopped")
	return nil
}

// RunNow triggers the named job immediately, outside its schedule
func (s *Scheduler) RunNow(jobName string) error {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.fire(ctx, jobName)
}

func (s *Scheduler) run(jobName string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	_ = s.fire(ctx, jobName)
}

func (s *Scheduler) fire(ctx context.Context, jobName string) error {
	res, err := s.trigger.Trigger(ctx, s.actor, jobName, map[string]string{"source": "scheduler"})
	if err != nil {
		s.logger.Error("Scheduled job trigger failed",
			zap.String("job_name", strings.ToUpper(jobName)),
			zap.Error(err))
		return err
	}
	s.logger.Info("Scheduled job triggered",
		zap.String("job_name", res.JobName),
		zap.String("run_id", res.RunID))
	return nil
}
