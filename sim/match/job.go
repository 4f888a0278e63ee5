package match

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Job is the unit an external scheduler enqueues: a match ID plus optional
// per-run overrides. The scheduler owns the queue; this package only defines
// the retry envelope around one pickup.
type Job struct {
	MatchID string
	Options map[string]any
}

// Loader fetches the match record for a job. Supplied by the collaborator
// that owns match storage.
type Loader func(ctx context.Context, matchID string) (*Match, error)

// WorkerConfig is the environment-derived worker configuration.
type WorkerConfig struct {
	LedgerPath    string        `env:"MATCHSIM_DB"`
	TurnCap       int           `env:"MATCHSIM_TURN_CAP" envDefault:"1000"`
	RetryAttempts int           `env:"MATCHSIM_RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay    time.Duration `env:"MATCHSIM_RETRY_DELAY" envDefault:"5s"`
	LogLevel      string        `env:"MATCHSIM_LOG_LEVEL" envDefault:"info"`
}

// LoadWorkerConfig parses WorkerConfig from the environment.
func LoadWorkerConfig() (WorkerConfig, error) {
	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse worker env: %w", err)
	}
	return cfg, nil
}

// Worker retries match runs with a fixed-delay backoff.
type Worker struct {
	orchestrator *Orchestrator
	load         Loader
	attempts     int
	delay        time.Duration
}

// NewWorker creates a Worker. attempts < 1 is clamped to 1.
func NewWorker(o *Orchestrator, load Loader, attempts int, delay time.Duration) *Worker {
	if attempts < 1 {
		attempts = 1
	}
	return &Worker{orchestrator: o, load: load, attempts: attempts, delay: delay}
}

// RunJob loads the job's match and runs it, retrying FAILED runs up to the
// configured attempt count with a fixed delay between attempts. A completed
// match never retries.
func (w *Worker) RunJob(ctx context.Context, job Job) error {
	var lastErr error
	for attempt := 1; attempt <= w.attempts; attempt++ {
		m, err := w.load(ctx, job.MatchID)
		if err != nil {
			lastErr = fmt.Errorf("load match %s: %w", job.MatchID, err)
		} else {
			if len(job.Options) > 0 {
				if m.Options == nil {
					m.Options = map[string]any{}
				}
				for k, v := range job.Options {
					m.Options[k] = v
				}
			}
			if lastErr = w.orchestrator.Run(ctx, m); lastErr == nil {
				return nil
			}
		}

		logrus.Warnf("job %s: attempt %d/%d failed: %v", job.MatchID, attempt, w.attempts, lastErr)
		if attempt < w.attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.delay):
			}
		}
	}
	return lastErr
}
