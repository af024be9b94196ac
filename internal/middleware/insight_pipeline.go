package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
	"AlphaPull/internal/service/ratelimit"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, ins *models.Insight) error
}

// InsightPipeline sits between the feed and the backend writer.
// It validates, deduplicates replayed predictions, throttles per symbol,
// optionally transforms, and buffers when downstream is unavailable.
type InsightPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	limiter *ratelimit.Limiter
	maxRPS  int
	bufSize int
	bufCh   chan *models.Insight
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	seen    map[string]time.Time // insight ID -> accept time, for replay dedup
	// simple format transform hook (optional)
	transform func(*models.Insight) *models.Insight
}

// seenLimit bounds the dedup map; oldest entries are swept past it.
const seenLimit = 100_000

type PipelineOption func(*InsightPipeline)

// WithMaxRPS sets the max insights per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *InsightPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *InsightPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify insights in flight.
func WithTransform(fn func(*models.Insight) *models.Insight) PipelineOption {
	return func(p *InsightPipeline) { p.transform = fn }
}

// NewInsightPipeline creates a new pipeline.
func NewInsightPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *InsightPipeline {
	p := &InsightPipeline{
		proc:    proc,
		metrics: metrics,
		limiter: ratelimit.New(),
		maxRPS:  20,   // default throttle per symbol
		bufSize: 1000, // default buffer
		bufCh:   make(chan *models.Insight, 1000),
		stopCh:  make(chan struct{}),
		seen:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Insight, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered insights.
func (p *InsightPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case ins := <-p.bufCh:
				if ins == nil {
					continue
				}
				if err := p.proc.Process(ctx, ins); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- ins:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *InsightPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, dedups, throttles, and forwards the insight downstream,
// buffering on errors.
func (p *InsightPipeline) Process(ctx context.Context, ins *models.Insight) error {
	start := time.Now()
	if err := validateInsight(ins); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		ins = p.transform(ins)
		if err := validateInsight(ins); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if p.isReplay(ins.ID, start) {
		p.metrics.RecordError("pipeline_duplicate")
		return nil
	}
	if !p.allow(ins.Symbol.ID) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, ins); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- ins:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateInsight(ins *models.Insight) error {
	if ins == nil {
		return fmt.Errorf("insight nil")
	}
	if ins.ID == "" {
		return fmt.Errorf("id empty")
	}
	if ins.Symbol.ID == "" {
		return fmt.Errorf("symbol empty")
	}
	if ins.GeneratedUTC.IsZero() {
		return fmt.Errorf("generated time unset")
	}
	if ins.CloseTimeUTC.IsZero() {
		return fmt.Errorf("close time unresolved")
	}
	if ins.CloseTimeUTC.Before(ins.GeneratedUTC) {
		return fmt.Errorf("close time before generated time")
	}
	return nil
}

// isReplay records the ID and reports whether it was already seen.
func (p *InsightPipeline) isReplay(id string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[id]; ok {
		return true
	}
	if len(p.seen) >= seenLimit {
		cutoff := now.Add(-time.Hour)
		for k, v := range p.seen {
			if v.Before(cutoff) {
				delete(p.seen, k)
			}
		}
	}
	p.seen[id] = now
	return false
}

func (p *InsightPipeline) allow(symbol string) bool {
	if p.maxRPS <= 0 {
		return true
	}
	return p.limiter.Allow(symbol, float64(p.maxRPS), float64(p.maxRPS))
}
