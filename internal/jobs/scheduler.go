package jobs

import (
	"context"
	"fmt"
	"time"

	"nitpickr-api/internal/logger"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of work run on a cron schedule (standard five fields).
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
	log  *logger.Logger
}

// cronLogger lets cron report recovered panics through our logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

func NewScheduler() *Scheduler {
	log := logger.New("scheduler")
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{log: log}))),
		log:  log,
	}
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start schedules every registered job and starts the cron loop.
// It fails on the first invalid schedule without starting anything.
func (s *Scheduler) Start() error {
	for _, job := range s.jobs {
		j := job
		if _, err := s.cron.AddFunc(j.Schedule, func() { s.run(j) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", j.Name, j.Schedule, err)
		}
		s.log.Info("Registered job", "job", j.Name, "schedule", j.Schedule)
	}
	s.cron.Start()
	return nil
}

// Stop prevents new runs and waits for running jobs, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out")
	}
}

func (s *Scheduler) run(j Job) {
	ctx := context.Background()
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.log.Error("Job failed", "job", j.Name, "error", err, "duration", time.Since(start))
		return
	}
	s.log.Info("Job finished", "job", j.Name, "duration", time.Since(start))
}
