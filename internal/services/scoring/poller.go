package scoring

import (
    "context"
    "sync"
    "time"

    domrepo "AlphaPull/internal/domain/repository"
    domsvc "AlphaPull/internal/domain/service"
    svcmetrics "AlphaPull/internal/service/metrics"
    "AlphaPull/pkg/logger"
)

// ScorePoller periodically asks the external scorer for updates on insights
// whose windows have closed without a final score, and hands the results to
// the applier. Polling is a fallback for scorers that cannot push.
type ScorePoller struct {
    store    domrepo.InsightStore
    source   domsvc.ScoreSource
    applier  domsvc.ScoreApplier
    logger   *logger.Logger
    interval time.Duration
    batch    int

    stopCh  chan struct{}
    started bool
    mu      sync.Mutex
}

func NewScorePoller(store domrepo.InsightStore, source domsvc.ScoreSource, applier domsvc.ScoreApplier, lgr *logger.Logger, interval time.Duration, batch int) *ScorePoller {
    if interval <= 0 {
        interval = 30 * time.Second
    }
    if batch <= 0 {
        batch = 100
    }
    svcmetrics.Register()
    return &ScorePoller{
        store:    store,
        source:   source,
        applier:  applier,
        logger:   lgr,
        interval: interval,
        batch:    batch,
        stopCh:   make(chan struct{}),
    }
}

// Start launches the polling loop.
func (p *ScorePoller) Start(ctx context.Context) {
    p.mu.Lock()
    if p.started {
        p.mu.Unlock()
        return
    }
    p.started = true
    p.mu.Unlock()

    go func() {
        ticker := time.NewTicker(p.interval)
        defer ticker.Stop()
        for {
            select {
            case <-ctx.Done():
                return
            case <-p.stopCh:
                return
            case <-ticker.C:
                p.poll(ctx)
            }
        }
    }()
}

// Stop halts the polling loop.
func (p *ScorePoller) Stop() {
    p.mu.Lock()
    defer p.mu.Unlock()
    if !p.started {
        return
    }
    p.started = false
    close(p.stopCh)
}

func (p *ScorePoller) poll(ctx context.Context) {
    start := time.Now()
    pending, err := p.store.PendingScore(ctx, start.UTC(), p.batch)
    if err != nil {
        svcmetrics.ScoringErrors.WithLabelValues("pending_query").Inc()
        p.logger.Error("pending score query failed", logger.Error(err))
        return
    }
    if len(pending) == 0 {
        return
    }

    applied := 0
    for _, ins := range pending {
        upd, err := p.source.FetchScore(ctx, ins)
        if err != nil {
            svcmetrics.ScoringErrors.WithLabelValues("fetch").Inc()
            continue
        }
        if err := p.applier.Apply(ctx, ins.ID, upd); err != nil {
            svcmetrics.ScoringErrors.WithLabelValues("apply").Inc()
            continue
        }
        outcome := "partial"
        if upd.Final {
            outcome = "final"
        }
        svcmetrics.ScoredInsights.WithLabelValues(outcome).Inc()
        applied++
    }

    svcmetrics.ScoringLatency.WithLabelValues("poll").Observe(time.Since(start).Seconds())
    p.logger.Debug("score poll finished",
        logger.Int("pending", len(pending)),
        logger.Int("applied", applied),
        logger.Int64("elapsed_ms", time.Since(start).Milliseconds()))
}
