// Package scheduler runs Continuum's background analyzers on independent
// tickers (spec.md section 4.6), one goroutine per analyzer so a slow or
// stuck run of one never delays another. The ticker-loop shape follows
// internal/graph's WatchPoolHealth: select on ctx.Done() and ticker.C,
// log and continue on a failed run rather than dying.
package scheduler

import (
	"context"
	"time"

	"github.com/continuum-dev/continuum/internal/logging"
)

// Job is one analyzer run for one user, scheduled on its own interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, userID string) error
}

// Scheduler runs a fixed set of Jobs against a fixed set of tenant user
// ids, each job on its own ticker.
type Scheduler struct {
	jobs    []Job
	userIDs func() []string
}

// New builds a Scheduler. userIDs is called at the start of every tick
// so newly onboarded tenants are picked up without a restart.
func New(jobs []Job, userIDs func() []string) *Scheduler {
	return &Scheduler{jobs: jobs, userIDs: userIDs}
}

// Start launches one goroutine per job and blocks until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		go s.runLoop(ctx, job)
	}
	<-ctx.Done()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	logging.Info("scheduler: starting job", "job", job.Name, "interval", job.Interval)

	for {
		select {
		case <-ctx.Done():
			logging.Info("scheduler: stopping job", "job", job.Name)
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	for _, userID := range s.userIDs() {
		if err := job.Run(ctx, userID); err != nil {
			logging.Warn("scheduler: job run failed", "job", job.Name, "user_id", userID, "error", err)
		}
	}
}
