package usecase

import (
	"context"

	"AlphaPull/internal/domain/models"
	drepo "AlphaPull/internal/domain/repository"
	mid "AlphaPull/internal/middleware"
	"AlphaPull/internal/service/hours"
)

// InsightCollector drains the prediction stream, resolves validity windows
// against the market calendars, and hands insights to the processor.
type InsightCollector struct {
	stream   drepo.InsightStream
	proc     *InsightProcessor
	calendar *hours.Registry
	metrics  drepo.Metrics
	pipe     *mid.InsightPipeline
	cancel   context.CancelFunc
}

// NewInsightCollector creates a new InsightCollector instance.
func NewInsightCollector(stream drepo.InsightStream, proc *InsightProcessor, calendar *hours.Registry, metrics drepo.Metrics, pipe *mid.InsightPipeline) *InsightCollector {
	return &InsightCollector{stream: stream, proc: proc, calendar: calendar, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the prediction stream is connected.
func (c *InsightCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *InsightCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	ctx, c.cancel = context.WithCancel(ctx)
	insCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, insCh, errCh)
	return nil
}

// consume drains the stream channels until ctx is done. The stream closes
// both channels when its read loop dies, so closed channels mean the feed
// needs a fresh connection and a fresh Read.
func (c *InsightCollector) consume(ctx context.Context, insCh <-chan *models.Insight, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				break
			}
			if err != nil {
				c.metrics.RecordError("stream")
			}
		case ins, ok := <-insCh:
			if !ok {
				insCh = nil
				break
			}
			if ins == nil {
				continue
			}
			if err := c.resolve(ins); err != nil {
				c.metrics.RecordError("resolve")
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, ins)
			} else {
				_ = c.proc.Process(ctx, ins)
			}
			if ins.Confidence != nil {
				c.metrics.RecordLastConfidence(ins.Symbol.ID, *ins.Confidence)
			}
		}
		if insCh == nil && errCh == nil {
			var ok bool
			if insCh, errCh, ok = c.reopen(ctx); !ok {
				return
			}
		}
	}
}

// reopen re-dials the stream and starts a fresh read, retrying until it
// succeeds or ctx is done.
func (c *InsightCollector) reopen(ctx context.Context) (<-chan *models.Insight, <-chan error, bool) {
	for {
		if ctx.Err() != nil {
			return nil, nil, false
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			continue
		}
		insCh, errCh := c.stream.Read(ctx)
		return insCh, errCh, true
	}
}

// resolve pins the close time using the calendar for the insight's market.
func (c *InsightCollector) resolve(ins *models.Insight) error {
	return ins.SetPeriodAndCloseTime(c.calendar.Get(ins.Symbol.Market))
}

func (c *InsightCollector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return c.stream.Close()
}

// Processor returns the underlying InsightProcessor for lifecycle management.
func (c *InsightCollector) Processor() *InsightProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *InsightCollector) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
