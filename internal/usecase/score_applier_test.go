package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"AlphaPull/internal/domain/models"
	"AlphaPull/pkg/cache"
)

func TestScoreApplierAppliesAndPersists(t *testing.T) {
	ins := newTestInsight(t)
	store := &fakeStore{byID: map[string]*models.Insight{ins.ID: ins}}
	m := newFakeMetrics()
	a := NewScoreApplier(store, nil, m)

	err := a.Apply(context.Background(), ins.ID, models.ScoreUpdate{DirectionScore: 0.8})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(store.scoreUpdates) != 1 {
		t.Fatalf("score updates persisted = %d, want 1", len(store.scoreUpdates))
	}
	if got := ins.Score.Direction; got != 0.8 {
		t.Errorf("direction score = %v, want 0.8", got)
	}
	if ins.Score.IsFinal() {
		t.Error("partial update must not finalize the score")
	}
}

func TestScoreApplierLockBusy(t *testing.T) {
	ins := newTestInsight(t)
	store := &fakeStore{byID: map[string]*models.Insight{ins.ID: ins}}
	locks := cache.NewMemoryCache()
	m := newFakeMetrics()
	a := NewScoreApplier(store, locks, m)

	ok, err := locks.TryLock(context.Background(), "score:lock:"+ins.ID, time.Minute)
	if err != nil || !ok {
		t.Fatalf("pre-hold lock: ok=%v err=%v", ok, err)
	}

	if err := a.Apply(context.Background(), ins.ID, models.ScoreUpdate{DirectionScore: 0.5}); err == nil {
		t.Fatal("want error while lock is held")
	}
	if len(store.scoreUpdates) != 0 {
		t.Errorf("score updates persisted = %d, want 0", len(store.scoreUpdates))
	}
	if m.errors["score_lock_busy"] != 1 {
		t.Errorf("lock busy errors = %d, want 1", m.errors["score_lock_busy"])
	}
}

func TestScoreApplierReleasesLock(t *testing.T) {
	ins := newTestInsight(t)
	store := &fakeStore{byID: map[string]*models.Insight{ins.ID: ins}}
	a := NewScoreApplier(store, cache.NewMemoryCache(), newFakeMetrics())

	for i := 0; i < 2; i++ {
		if err := a.Apply(context.Background(), ins.ID, models.ScoreUpdate{DirectionScore: 0.6}); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}
	if len(store.scoreUpdates) != 2 {
		t.Errorf("score updates persisted = %d, want 2", len(store.scoreUpdates))
	}
}

func TestScoreApplierUnknownInsight(t *testing.T) {
	m := newFakeMetrics()
	a := NewScoreApplier(&fakeStore{byID: map[string]*models.Insight{}}, nil, m)

	err := a.Apply(context.Background(), "nope", models.ScoreUpdate{DirectionScore: 0.5})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if m.errors["score_load"] != 1 {
		t.Errorf("load errors = %d, want 1", m.errors["score_load"])
	}
}

func TestScoreApplierEmptyID(t *testing.T) {
	a := NewScoreApplier(&fakeStore{}, nil, newFakeMetrics())
	if err := a.Apply(context.Background(), "", models.ScoreUpdate{}); !errors.Is(err, models.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestScoreApplierRejectsFinalized(t *testing.T) {
	ins := newTestInsight(t)
	ins.Score.Finalize(time.Now().UTC())
	store := &fakeStore{byID: map[string]*models.Insight{ins.ID: ins}}
	m := newFakeMetrics()
	a := NewScoreApplier(store, nil, m)

	err := a.Apply(context.Background(), ins.ID, models.ScoreUpdate{DirectionScore: 0.9})
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if len(store.scoreUpdates) != 0 {
		t.Errorf("score updates persisted = %d, want 0", len(store.scoreUpdates))
	}
	if m.errors["score_apply"] != 1 {
		t.Errorf("apply errors = %d, want 1", m.errors["score_apply"])
	}
}

type fakeQueue struct {
	types    []string
	payloads []interface{}
}

func (f *fakeQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	f.types = append(f.types, msgType)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestQueueingApplierEnqueues(t *testing.T) {
	q := &fakeQueue{}
	a := NewQueueingApplier(q)

	final := 101.5
	upd := models.ScoreUpdate{DirectionScore: 0.7, Final: true, ReferenceValueFinal: &final}
	if err := a.Apply(context.Background(), "ins-1", upd); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(q.types) != 1 || q.types[0] != ScoreUpdateJobType {
		t.Fatalf("queued types = %v, want one %q", q.types, ScoreUpdateJobType)
	}
	payload, ok := q.payloads[0].(ScoreUpdatePayload)
	if !ok {
		t.Fatalf("payload type = %T, want ScoreUpdatePayload", q.payloads[0])
	}
	if payload.InsightID != "ins-1" || !payload.Final || payload.DirectionScore != 0.7 {
		t.Errorf("payload = %+v, want id ins-1 final direction 0.7", payload)
	}
	if payload.ReferenceValueFinal == nil || *payload.ReferenceValueFinal != 101.5 {
		t.Errorf("reference final = %v, want 101.5", payload.ReferenceValueFinal)
	}
}
