// Package sweep schedules the periodic overdue-issue sweep.
package sweep

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/example/govsol/internal/service"
)

// Runner triggers the overdue sweep on a cron schedule.
type Runner struct {
	issues   *service.IssueService
	schedule string
	cron     *cron.Cron
}

// NewRunner builds a runner. schedule uses cron syntax, including the
// "@every 1h" shorthand.
func NewRunner(issues *service.IssueService, schedule string) *Runner {
	return &Runner{issues: issues, schedule: schedule}
}

// Start registers the sweep job and starts the scheduler.
func (r *Runner) Start(ctx context.Context) error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.schedule, func() { r.runOnce(ctx) }); err != nil {
		return errors.Wrapf(err, "bad sweep schedule %q", r.schedule)
	}
	r.cron.Start()
	log.Printf("overdue sweep scheduled: %s", r.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (r *Runner) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

func (r *Runner) runOnce(ctx context.Context) {
	outcomes, err := r.issues.SweepOverdue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("overdue sweep failed: %v", err)
		return
	}
	var escalated, rescheduled, failed int
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
		case o.Result == service.EscalationApplied:
			escalated++
		case o.Result == service.EscalationRescheduled:
			rescheduled++
		}
	}
	if len(outcomes) > 0 {
		log.Printf("overdue sweep: %d checked, %d escalated, %d rescheduled, %d failed",
			len(outcomes), escalated, rescheduled, failed)
	}
}
