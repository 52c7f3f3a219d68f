package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of scheduled work
type Job interface {
	// Name returns the job name
	Name() string

	// Schedule returns the cron schedule expression (with seconds field)
	Schedule() string

	// Run executes the job
	Run(ctx context.Context) error
}

// JobResult records one job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// Scheduler runs registered jobs on their cron schedules with retry
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	jobs    map[string]Job
	history map[string][]JobResult
	mu      sync.RWMutex

	maxRetries int
	retryDelay time.Duration
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		log:        log.With().Str("component", "scheduler").Logger(),
		jobs:       make(map[string]Job),
		history:    make(map[string][]JobResult),
		maxRetries: 3,
		retryDelay: 1 * time.Minute,
	}
}

// AddJob registers a job with the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	_, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job

	s.log.Info().Str("job", name).Str("schedule", job.Schedule()).Msg("job registered")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.log.Info().Msg("starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.log.Info().Msg("stopping scheduler")
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// runJob executes a job with retry, recording the outcome in history
func (s *Scheduler) runJob(job Job) {
	name := job.Name()
	start := time.Now()

	s.log.Info().Str("job", name).Msg("job started")

	var lastErr error
	success := false
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := job.Run(context.Background()); err == nil {
			success = true
			break
		} else {
			lastErr = err
		}

		s.log.Warn().
			Str("job", name).
			Int("attempt", attempt+1).
			Err(lastErr).
			Msg("job execution failed")

		if attempt < s.maxRetries {
			time.Sleep(s.retryDelay)
		}
	}

	result := JobResult{
		JobName:   name,
		StartTime: start,
		Duration:  time.Since(start),
		Success:   success,
	}
	if !success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	s.history[name] = append(s.history[name], result)
	if len(s.history[name]) > 100 {
		s.history[name] = s.history[name][len(s.history[name])-100:]
	}
	s.mu.Unlock()

	if success {
		s.log.Info().Str("job", name).Dur("duration", result.Duration).Msg("job completed")
	} else {
		s.log.Error().Str("job", name).Dur("duration", result.Duration).Err(lastErr).Msg("job failed after all retries")
	}
}

// History returns the recorded results for a job, newest last
func (s *Scheduler) History(jobName string) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]JobResult, len(s.history[jobName]))
	copy(results, s.history[jobName])
	return results
}
