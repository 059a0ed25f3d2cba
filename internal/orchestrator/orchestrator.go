// Package orchestrator runs a batch job: it chunks the items, drives each
// chunk through the retry driver in order and assembles the outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/batch"
	"github.com/valpere/uxtran/internal/chunker"
	"github.com/valpere/uxtran/internal/logging"
	"github.com/valpere/uxtran/internal/retry"
	"github.com/valpere/uxtran/internal/store"
)

const DefaultChunkDelay = time.Second

var (
	// ErrDuplicateID is returned when two items share an id.
	ErrDuplicateID = errors.New("duplicate item id")

	// ErrUnsupportedMode is returned when the backend cannot serve the mode.
	ErrUnsupportedMode = errors.New("mode not supported by backend")
)

type Config struct {
	Limits     chunker.Limits `mapstructure:"limits" json:"limits"`
	ChunkDelay time.Duration  `mapstructure:"chunk_delay" json:"chunk_delay"`
}

// Memory remembers results of earlier requests in the session. Hits skip
// the backend.
type Memory interface {
	Lookup(ctx context.Context, mode internal.Mode, text string) (result, reason string, ok bool, err error)
	Remember(ctx context.Context, mode internal.Mode, text, result, reason string) error
}

// JobLog records finished jobs.
type JobLog interface {
	RecordJob(ctx context.Context, j store.Job) error
}

type Orchestrator struct {
	client *batch.Client
	driver *retry.Driver
	config Config
	memory Memory
	jobs   JobLog
	logger *log.Logger

	// one job at a time
	mu sync.Mutex
}

type Option func(*Orchestrator)

func WithMemory(m Memory) Option {
	return func(o *Orchestrator) { o.memory = m }
}

func WithJobLog(j JobLog) Option {
	return func(o *Orchestrator) { o.jobs = j }
}

func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.WithPrefix(l, "pipeline") }
}

func New(client *batch.Client, driver *retry.Driver, config Config, opts ...Option) *Orchestrator {
	if config.ChunkDelay < 0 {
		config.ChunkDelay = 0
	}
	o := &Orchestrator{
		client: client,
		driver: driver,
		config: config,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func contentOf(it internal.TextItem) string {
	return it.Content
}

// Run transforms items with mode and reports progress through onProgress,
// which may be nil. Backend failures never surface as errors: affected
// entries are marked Degraded. A cancelled ctx stops the job at the next
// chunk boundary and returns the entries completed so far with Cancelled set.
func (o *Orchestrator) Run(ctx context.Context, items []internal.TextItem, mode internal.Mode, onProgress func(internal.Progress)) (*internal.Outcome, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if !o.client.Supports(mode) {
		return nil, fmt.Errorf("%w: %s cannot %s", ErrUnsupportedMode, o.client.Backend().Name(), mode.Kind)
	}
	if err := checkIDs(items); err != nil {
		return nil, err
	}
	if onProgress == nil {
		onProgress = func(internal.Progress) {}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	started := time.Now()
	outcome := internal.NewOutcome(uuid.NewString(), mode)
	if len(items) == 0 {
		return outcome, nil
	}

	chunks := chunker.Divide(items, contentOf, o.config.Limits)
	total := len(chunks)
	logger := o.logger.With("job", outcome.JobID)
	logger.Info("job started", "mode", mode.String(), "items", len(items), "chunks", total)

	onProgress(internal.Progress{Current: 0, Total: total, Message: "Preparing..."})

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			outcome.Cancelled = true
			break
		}

		onProgress(internal.Progress{
			Current: i,
			Total:   total,
			Message: fmt.Sprintf("Processing chunk %d/%d (%d texts)...", i+1, total, len(chunk)),
		})

		entries := o.runChunk(ctx, i, total, chunk, mode)
		if ctx.Err() != nil {
			// a result that lands after cancellation is discarded
			outcome.Cancelled = true
			break
		}
		for _, e := range entries {
			if err := outcome.Append(e); err != nil {
				return nil, err
			}
		}

		if i < total-1 {
			if err := sleep(ctx, o.config.ChunkDelay); err != nil {
				outcome.Cancelled = true
				break
			}
		}
	}

	if outcome.Cancelled {
		logger.Warn("job cancelled", "completed", outcome.Len(), "items", len(items))
	} else {
		onProgress(internal.Progress{Current: total, Total: total, Message: "Done"})
		logger.Info("job finished", "items", outcome.Len(), "degraded", outcome.DegradedCount(), "elapsed", time.Since(started))
	}

	o.recordJob(outcome, len(items), total, started)
	return outcome, nil
}

// runChunk answers memory hits locally and sends the rest through the driver.
func (o *Orchestrator) runChunk(ctx context.Context, index, total int, chunk []internal.TextItem, mode internal.Mode) []internal.Entry {
	entries := make([]internal.Entry, len(chunk))
	var missIdx []int
	var missTexts []string

	for j, it := range chunk {
		entries[j] = internal.Entry{ID: it.ID, Content: it.Content}
		if result, reason, ok := o.lookup(ctx, mode, it.Content); ok {
			entries[j].TransformedContent = result
			entries[j].Reason = reason
			continue
		}
		missIdx = append(missIdx, j)
		missTexts = append(missTexts, it.Content)
	}

	if len(missTexts) == 0 {
		return entries
	}

	res := o.driver.Execute(ctx, index, total, missTexts, mode, o.client.Request)

	for k, j := range missIdx {
		e := &entries[j]
		e.TransformedContent = res.Texts[k]
		e.Degraded = res.Degraded
		if res.Improvements != nil {
			e.Reason = res.Improvements[k].Reason
		}
		if !res.Degraded {
			o.remember(ctx, mode, e.Content, e.TransformedContent, e.Reason)
		}
	}
	return entries
}

func (o *Orchestrator) lookup(ctx context.Context, mode internal.Mode, text string) (string, string, bool) {
	if o.memory == nil || strings.TrimSpace(text) == "" {
		return "", "", false
	}
	result, reason, ok, err := o.memory.Lookup(ctx, mode, text)
	if err != nil {
		o.logger.Warn("memory lookup failed", "err", err)
		return "", "", false
	}
	return result, reason, ok
}

func (o *Orchestrator) remember(ctx context.Context, mode internal.Mode, text, result, reason string) {
	if o.memory == nil || strings.TrimSpace(text) == "" {
		return
	}
	if err := o.memory.Remember(ctx, mode, text, result, reason); err != nil {
		o.logger.Warn("memory store failed", "err", err)
	}
}

func (o *Orchestrator) recordJob(outcome *internal.Outcome, items, chunks int, started time.Time) {
	if o.jobs == nil {
		return
	}
	err := o.jobs.RecordJob(context.Background(), store.Job{
		ID:         outcome.JobID,
		Mode:       string(outcome.Mode.Kind),
		TargetLang: outcome.Mode.TargetLang,
		Items:      items,
		Chunks:     chunks,
		Degraded:   outcome.DegradedCount(),
		Cancelled:  outcome.Cancelled,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	if err != nil {
		o.logger.Warn("failed to record job", "err", err)
	}
}

func checkIDs(items []internal.TextItem) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
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
