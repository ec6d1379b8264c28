// Package reconcile implements the bounded polling loop that resolves a batch
// of submitted analysis ids into completed and failed partitions.
package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// Kind classifies one poll of the status endpoint.
type Kind int

const (
	// Pending covers STARTING, PROCESSING, unrecognized statuses, a COMPLETED
	// status with no result payload, and any response we could not decode.
	Pending Kind = iota
	// Completed means a terminal success with a result payload attached.
	Completed
	// Failed means the endpoint reported a terminal ERROR. Not retried.
	Failed
)

// Outcome is the classified result of polling one job once.
type Outcome struct {
	Kind       Kind
	LastStatus string          // status string as reported, for the error table
	Result     json.RawMessage // full response payload, set only for Completed
}

// Job is one unit of work tracked through polling rounds.
type Job struct {
	ID         string
	Row        int // row index in the source table
	Attempts   int
	LastStatus string
	Result     json.RawMessage
	Reason     string // set for jobs in the error partition
}

// StatusFetcher polls the status endpoint for a single id. A returned error is
// treated the same as any other invalid response: the job stays pending.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, id string) (Outcome, error)
}

// FetchFunc adapts a function to the StatusFetcher interface.
type FetchFunc func(ctx context.Context, id string) (Outcome, error)

func (f FetchFunc) FetchStatus(ctx context.Context, id string) (Outcome, error) {
	return f(ctx, id)
}

// Config bounds the loop: at most MaxRounds passes over the pending set, with
// a fixed Interval pause between rounds.
type Config struct {
	MaxRounds int
	Interval  time.Duration
}

// Result is the final partitioning. Completed and Errors are disjoint and
// together cover every job handed to Run.
type Result struct {
	Completed []*Job
	Errors    []*Job
	Rounds    int
}

// Loop drives the reconciliation of a job batch against the status endpoint.
type Loop struct {
	fetch StatusFetcher
	cfg   Config
	log   *slog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func New(fetch StatusFetcher, cfg Config, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 10
	}
	return &Loop{fetch: fetch, cfg: cfg, log: logger, sleep: sleepCtx}
}

// NewJobs builds the initial job list from raw identifiers, preserving source
// order. Blank identifiers are dropped before entering the pending set, so they
// are never polled and never reported as errors.
func NewJobs(ids []string) []*Job {
	jobs := make([]*Job, 0, len(ids))
	for row, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		jobs = append(jobs, &Job{ID: id, Row: row})
	}
	return jobs
}

// Run polls every pending job once per round, in original order, until all
// jobs are terminal or the round budget is exhausted. Jobs still pending after
// the last round are swept into the error partition rather than discarded.
func (l *Loop) Run(ctx context.Context, jobs []*Job) Result {
	res := Result{}
	pending := jobs
	sweepReason := "retry budget exhausted"

	for round := 1; round <= l.cfg.MaxRounds && len(pending) > 0; round++ {
		res.Rounds = round
		l.log.Info("reconcile.round",
			"round", round,
			"max_rounds", l.cfg.MaxRounds,
			"pending", len(pending),
		)

		var still []*Job
		for _, job := range pending {
			job.Attempts++
			out, err := l.fetch.FetchStatus(ctx, job.ID)
			if err != nil {
				l.log.Warn("reconcile.poll_failed",
					"id", job.ID, "row", job.Row, "attempt", job.Attempts, "error", err)
				still = append(still, job)
				continue
			}
			if out.LastStatus != "" {
				job.LastStatus = out.LastStatus
			}

			switch out.Kind {
			case Completed:
				job.Result = out.Result
				res.Completed = append(res.Completed, job)
				l.log.Info("reconcile.completed",
					"id", job.ID, "row", job.Row, "attempts", job.Attempts)
			case Failed:
				job.Reason = "status ERROR"
				res.Errors = append(res.Errors, job)
				l.log.Warn("reconcile.error",
					"id", job.ID, "row", job.Row, "attempts", job.Attempts,
					"last_status", job.LastStatus)
			default:
				still = append(still, job)
			}
		}
		pending = still

		if len(pending) > 0 && round < l.cfg.MaxRounds {
			l.log.Info("reconcile.wait",
				"interval", l.cfg.Interval.String(), "pending", len(pending))
			if err := l.sleep(ctx, l.cfg.Interval); err != nil {
				// Context gone; sweep whatever is left below.
				l.log.Warn("reconcile.interrupted", "error", err)
				sweepReason = "interrupted"
				break
			}
		}
	}

	// Retry budget exhausted: survivors become errors, never a third bucket.
	for _, job := range pending {
		job.Reason = sweepReason
		res.Errors = append(res.Errors, job)
	}
	if len(pending) > 0 {
		l.log.Warn("reconcile.exhausted",
			"unresolved", len(pending), "rounds", res.Rounds)
	}

	l.log.Info("reconcile.done",
		"completed", len(res.Completed),
		"errors", len(res.Errors),
		"rounds", res.Rounds,
	)
	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
