package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
)

type fakePublisher struct {
	published []*models.Insight
	batches   [][]*models.Insight
	err       error
	closed    bool
}

func (f *fakePublisher) Publish(ctx context.Context, ins *models.Insight) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, ins)
	return nil
}

func (f *fakePublisher) PublishBatch(ctx context.Context, insights []*models.Insight) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, insights)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

// fakeStore implements the store methods the use cases touch; the embedded
// interface panics on anything else, which is what a test should do.
type fakeStore struct {
	domrepo.InsightStore
	stored       []*models.Insight
	batchSizes   []int
	scoreUpdates []*models.Insight
	byID         map[string]*models.Insight
	storeErr     error
}

func (f *fakeStore) Store(ctx context.Context, ins *models.Insight) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, ins)
	return nil
}

func (f *fakeStore) StoreBatch(ctx context.Context, insights []*models.Insight) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.batchSizes = append(f.batchSizes, len(insights))
	return nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*models.Insight, error) {
	ins, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return ins, nil
}

func (f *fakeStore) UpdateScore(ctx context.Context, ins *models.Insight) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.scoreUpdates = append(f.scoreUpdates, ins)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeMetrics struct {
	published int
	errors    map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: map[string]int{}} }

func (f *fakeMetrics) RecordInsightPublished(backend, symbol string) { f.published++ }

func (f *fakeMetrics) RecordError(kind string) { f.errors[kind]++ }

func (f *fakeMetrics) RecordLastConfidence(symbol string, confidence float64) {}

func (f *fakeMetrics) RecordLatency(op string, seconds float64) {}

func newTestInsight(t *testing.T) *models.Insight {
	t.Helper()
	ins, err := models.Price(models.NewSymbol("AAPL", "US"), time.Hour, models.DirectionUp)
	if err != nil {
		t.Fatalf("price insight: %v", err)
	}
	return ins
}

func TestProcessorRoutesByBackend(t *testing.T) {
	ins := newTestInsight(t)

	t.Run("kafka", func(t *testing.T) {
		pub := &fakePublisher{}
		store := &fakeStore{}
		p := NewInsightProcessor(pub, store, newFakeMetrics(), "kafka", 0, 0)
		if err := p.Process(context.Background(), ins); err != nil {
			t.Fatalf("process: %v", err)
		}
		if len(pub.published) != 1 || len(store.stored) != 0 {
			t.Errorf("published = %d stored = %d, want 1 and 0", len(pub.published), len(store.stored))
		}
	})

	t.Run("clickhouse", func(t *testing.T) {
		pub := &fakePublisher{}
		store := &fakeStore{}
		p := NewInsightProcessor(pub, store, newFakeMetrics(), "clickhouse", 0, 0)
		if err := p.Process(context.Background(), ins); err != nil {
			t.Fatalf("process: %v", err)
		}
		if len(store.stored) != 1 || len(pub.published) != 0 {
			t.Errorf("stored = %d published = %d, want 1 and 0", len(store.stored), len(pub.published))
		}
	})

	t.Run("both", func(t *testing.T) {
		pub := &fakePublisher{}
		store := &fakeStore{}
		p := NewInsightProcessor(pub, store, newFakeMetrics(), "both", 0, 0)
		if err := p.Process(context.Background(), ins); err != nil {
			t.Fatalf("process: %v", err)
		}
		if len(pub.published) != 1 || len(store.stored) != 1 {
			t.Errorf("published = %d stored = %d, want 1 and 1", len(pub.published), len(store.stored))
		}
	})

	t.Run("unknown", func(t *testing.T) {
		m := newFakeMetrics()
		p := NewInsightProcessor(&fakePublisher{}, &fakeStore{}, m, "postgres", 0, 0)
		if err := p.Process(context.Background(), ins); err == nil {
			t.Fatal("want error for unknown backend")
		}
		if m.errors["process"] != 1 {
			t.Errorf("process errors = %d, want 1", m.errors["process"])
		}
	})
}

func TestProcessorBothStoresDespitePublishFailure(t *testing.T) {
	boom := errors.New("broker down")
	store := &fakeStore{}
	p := NewInsightProcessor(&fakePublisher{err: boom}, store, newFakeMetrics(), "both", 0, 0)

	err := p.Process(context.Background(), newTestInsight(t))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped broker error", err)
	}
	if len(store.stored) != 1 {
		t.Errorf("stored = %d, want the store write to proceed", len(store.stored))
	}
}

func TestProcessBatchBoth(t *testing.T) {
	batch := []*models.Insight{newTestInsight(t), newTestInsight(t)}
	pub := &fakePublisher{}
	store := &fakeStore{}
	p := NewInsightProcessor(pub, store, newFakeMetrics(), "both", 0, 0)

	if err := p.ProcessBatch(context.Background(), batch); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.batches) != 1 || len(store.batchSizes) != 1 {
		t.Fatalf("publish batches = %d store batches = %d, want 1 and 1", len(pub.batches), len(store.batchSizes))
	}
	if store.batchSizes[0] != 2 {
		t.Errorf("store batch size = %d, want 2", store.batchSizes[0])
	}
}

func TestProcessorNilInsight(t *testing.T) {
	p := NewInsightProcessor(&fakePublisher{}, &fakeStore{}, newFakeMetrics(), "kafka", 0, 0)
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("want error for nil insight")
	}
}

func TestProcessorPublishFailure(t *testing.T) {
	boom := errors.New("broker down")
	m := newFakeMetrics()
	p := NewInsightProcessor(&fakePublisher{err: boom}, &fakeStore{}, m, "kafka", 0, 0)
	err := p.Process(context.Background(), newTestInsight(t))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped broker error", err)
	}
	if m.published != 0 {
		t.Errorf("published = %d, want 0 on failure", m.published)
	}
}

func TestProcessBatchChunks(t *testing.T) {
	batch := make([]*models.Insight, 5)
	for i := range batch {
		batch[i] = newTestInsight(t)
	}
	store := &fakeStore{}
	m := newFakeMetrics()
	p := NewInsightProcessor(&fakePublisher{}, store, m, "clickhouse", 2, time.Second)

	if err := p.ProcessBatch(context.Background(), batch); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	want := []int{2, 2, 1}
	if len(store.batchSizes) != len(want) {
		t.Fatalf("flushes = %v, want sizes %v", store.batchSizes, want)
	}
	for i, n := range want {
		if store.batchSizes[i] != n {
			t.Errorf("flush %d size = %d, want %d", i, store.batchSizes[i], n)
		}
	}
	if m.published != 5 {
		t.Errorf("published = %d, want 5", m.published)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	store := &fakeStore{}
	p := NewInsightProcessor(&fakePublisher{}, store, newFakeMetrics(), "clickhouse", 2, 0)
	if err := p.ProcessBatch(context.Background(), nil); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(store.batchSizes) != 0 {
		t.Errorf("flushes = %v, want none", store.batchSizes)
	}
}
