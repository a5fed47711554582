package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of periodic background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler is responsible for running background jobs
type Scheduler struct {
	logger   *slog.Logger
	jobs     []Job
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	isRunning bool

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	ticker *time.Ticker
}

// NewScheduler returns a scheduler running the backup job every interval.
// A zero interval disables it.
func NewScheduler(backups BackupTrigger, logger *slog.Logger, interval time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	var jobs []Job
	if backups != nil {
		jobs = append(jobs, NewBackupJob(backups, logger))
	}
	return NewSchedulerWithJobs(logger, interval, jobs...)
}

// NewSchedulerWithJobs returns a scheduler running jobs every interval.
func NewSchedulerWithJobs(logger *slog.Logger, interval time.Duration, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger:   logger,
		jobs:     jobs,
		interval: interval,
	}
}

// Enabled reports whether Start launches anything.
func (s *Scheduler) Enabled() bool {
	return s.interval > 0 && len(s.jobs) > 0
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(job Job) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", job.Name()))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", job.Name()),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", job.Name()), slog.Any("error", err))
	}
}

// Start begins all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.ticker = time.NewTicker(s.interval)
	s.isRunning = true

	s.logger.Info("Starting background jobs", slog.Duration("interval", s.interval), slog.Int("jobs", len(s.jobs)))

	s.wg.Add(1)
	go func(ctx context.Context, ticker *time.Ticker) {
		defer s.wg.Done()
		for {
			select {
			case <-ticker.C:
				for _, job := range s.jobs {
					s.executeJobSafely(job)
				}
			case <-ctx.Done():
				s.logger.Info("Background jobs loop stopped")
				return
			}
		}
	}(s.ctx, s.ticker)

	return nil
}

// Stop halts all background jobs and waits for a running job to return.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.logger.Info("Stopping background jobs...")
	s.ticker.Stop()
	s.cancel()
	s.isRunning = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow executes every job once, synchronously.
func (s *Scheduler) RunNow() {
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	for _, job := range s.jobs {
		s.executeJobSafely(job)
	}
}
