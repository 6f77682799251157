package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const expiredTrialsJob = "expired-trials"

// TrialCounter reports tenants whose trial window has passed. It never
// changes tenant status.
type TrialCounter interface {
	CountExpiredTrials(ctx context.Context, now time.Time) (int64, error)
}

// JobScheduler runs the periodic maintenance jobs of the service.
type JobScheduler struct {
	scheduler gocron.Scheduler
	trials    TrialCounter
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with every job registered. Jobs run
// once at start and then every interval.
func NewJobScheduler(trials TrialCounter, interval time.Duration, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		trials:    trials,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		jobs:      make(map[string]gocron.Job),
	}
	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Int("jobs", len(js.jobs)))
	js.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// JobNames lists the registered jobs.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()
	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}

func (js *JobScheduler) registerJobs() error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(js.interval),
		gocron.NewTask(js.CountExpiredTrials, context.Background()),
		gocron.WithName(expiredTrialsJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", expiredTrialsJob, err)
	}

	js.mu.Lock()
	js.jobs[expiredTrialsJob] = job
	js.mu.Unlock()
	return nil
}

// CountExpiredTrials is the body of the expired-trials job.
func (js *JobScheduler) CountExpiredTrials(ctx context.Context) error {
	start := js.now()
	n, err := js.trials.CountExpiredTrials(ctx, start.UTC())
	if err != nil {
		js.logger.Error("expired trial count failed", zap.Error(err))
		return err
	}
	if n > 0 {
		js.logger.Info("expired trials", zap.Int64("tenants", n), zap.Duration("took", time.Since(start)))
	}
	return nil
}
