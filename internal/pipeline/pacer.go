package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmartens/bulkcrawl/internal/metrics"
)

// Pacer enforces the two pacing tiers between submissions: a short inter-item
// delay after every submission, replaced by a longer fixed pause each time a
// batch boundary is crossed.
//
// The inter-item tier is a rate.Limiter at one token per delay, so time
// already spent in the submission round-trip counts toward the gap. The
// inter-batch tier is an unconditional context-aware sleep. Callers must
// invoke Begin when the first submission starts so the inter-item clock is
// measured from there rather than from construction.
type Pacer struct {
	batchSize  int
	batchDelay time.Duration
	limiter    *rate.Limiter
}

// NewPacer builds a Pacer. An itemDelay of zero disables the inter-item tier;
// batchSize must be positive.
func NewPacer(itemDelay, batchDelay time.Duration, batchSize int) *Pacer {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if itemDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(itemDelay), 1)
	}
	return &Pacer{
		batchSize:  batchSize,
		batchDelay: batchDelay,
		limiter:    limiter,
	}
}

// Begin starts the inter-item clock. The limiter accrues a token from
// construction onward, so without this the pause after the first submission
// would return immediately whenever earlier phases took longer than the
// item delay.
func (p *Pacer) Begin() {
	p.limiter.Allow()
}

// IsBatchBoundary reports whether the completed-th submission (1-based)
// closes a batch.
func (p *Pacer) IsBatchBoundary(completed int) bool {
	return p.batchSize > 0 && completed%p.batchSize == 0
}

// Pause blocks for the pacing tier owed after the completed-th submission.
// It returns early with the context's error when the run is canceled.
func (p *Pacer) Pause(ctx context.Context, completed int) error {
	if p.IsBatchBoundary(completed) {
		if err := sleep(ctx, p.batchDelay); err != nil {
			return err
		}
		metrics.ObservePacingDelay("batch", p.batchDelay)
		// The token banked during the batch sleep would let the next two
		// submissions go out back to back; discard it so the inter-item
		// clock restarts here.
		p.limiter.Allow()
		return nil
	}

	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	metrics.ObservePacingDelay("item", time.Since(start))
	return nil
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
