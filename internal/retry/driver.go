// Package retry runs one chunk request with bounded attempts and falls back
// to a deterministic transformation when every attempt fails. Execute never
// fails.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/batch"
	"github.com/valpere/uxtran/internal/logging"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 800 * time.Millisecond
)

// Config bounds the attempts made for one chunk.
type Config struct {
	MaxAttempts int           `mapstructure:"max_attempts" json:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay" json:"delay"`
}

// BreakerConfig opens a circuit after Failures consecutive chunks fell back,
// for Cooldown. Failures of 0 disables the breaker.
type BreakerConfig struct {
	Failures uint32        `mapstructure:"failures" json:"failures"`
	Cooldown time.Duration `mapstructure:"cooldown" json:"cooldown"`
}

// Op performs one attempt for a chunk.
type Op func(ctx context.Context, texts []string, mode internal.Mode) (batch.Result, error)

// Result is the terminal state of one chunk.
type Result struct {
	Texts        []string
	Improvements []internal.ImprovementResult

	// Degraded is set when the result came from Fallback.
	Degraded bool
	Attempts int
}

type Driver struct {
	cfg     Config
	breaker *gobreaker.TwoStepCircuitBreaker
	logger  *log.Logger
}

func New(cfg Config, bc BreakerConfig, logger *log.Logger) *Driver {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}

	d := &Driver{cfg: cfg, logger: logging.WithPrefix(logger, "retry")}

	if bc.Failures > 0 {
		d.breaker = gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
			Name:        "backend",
			MaxRequests: 1,
			Timeout:     bc.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= bc.Failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				d.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return d
}

// Execute runs op until it succeeds or MaxAttempts are used, waiting Delay
// between attempts. A missing credential or a cancelled context end retrying
// early. Any failure yields the Fallback result.
//
// The circuit breaker is consulted once, before the first attempt: an open
// circuit falls back the whole chunk with zero attempts, and a chunk that
// got through always runs its full attempt budget.
func (d *Driver) Execute(ctx context.Context, chunkIndex, totalChunks int, texts []string, mode internal.Mode, op Op) Result {
	if d.breaker == nil {
		res, _ := d.run(ctx, chunkIndex, totalChunks, texts, mode, op)
		return res
	}

	done, err := d.breaker.Allow()
	if err != nil {
		return d.fallback(chunkIndex, texts, mode, 0, err)
	}
	res, healthy := d.run(ctx, chunkIndex, totalChunks, texts, mode, op)
	done(healthy)
	return res
}

// run is the attempt loop. healthy is false only when the backend itself
// kept failing; missing credentials and cancellation say nothing about it.
func (d *Driver) run(ctx context.Context, chunkIndex, totalChunks int, texts []string, mode internal.Mode, op Op) (Result, bool) {
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return d.fallback(chunkIndex, texts, mode, attempt-1, err), true
		}

		res, err := op(ctx, texts, mode)
		if err == nil {
			return Result{Texts: res.Texts, Improvements: res.Improvements, Attempts: attempt}, true
		}

		d.logger.Warn("chunk attempt failed",
			"chunk", chunkIndex+1, "of", totalChunks,
			"attempt", attempt, "max", d.cfg.MaxAttempts, "err", err)

		if !retryable(err) || ctx.Err() != nil {
			return d.fallback(chunkIndex, texts, mode, attempt, err), true
		}
		if attempt == d.cfg.MaxAttempts {
			return d.fallback(chunkIndex, texts, mode, attempt, err), false
		}
		if err := sleep(ctx, d.cfg.Delay); err != nil {
			return d.fallback(chunkIndex, texts, mode, attempt, err), true
		}
	}
	return d.fallback(chunkIndex, texts, mode, d.cfg.MaxAttempts, nil), false
}

func (d *Driver) fallback(chunkIndex int, texts []string, mode internal.Mode, attempts int, err error) Result {
	d.logger.Error("chunk fell back", "chunk", chunkIndex+1, "attempts", attempts, "err", err)
	res := Fallback(texts, mode)
	res.Attempts = attempts
	return res
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, batch.ErrMissingCredential),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
