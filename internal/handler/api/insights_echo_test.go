package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
	"AlphaPull/internal/service/hours"
	"AlphaPull/internal/usecase"
	applogger "AlphaPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// stubStore implements the store methods the handlers reach; the embedded
// interface panics on anything else.
type stubStore struct {
	domrepo.InsightStore
	stored    []*models.Insight
	queryFrom time.Time
	queryTo   time.Time
}

func (s *stubStore) Store(ctx context.Context, ins *models.Insight) error {
	s.stored = append(s.stored, ins)
	return nil
}

func (s *stubStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Insight, error) {
	s.queryFrom, s.queryTo = from, to
	return nil, nil
}

func (s *stubStore) Close() error { return nil }

type stubMetrics struct{}

func (stubMetrics) RecordInsightPublished(backend, symbol string)          {}
func (stubMetrics) RecordError(kind string)                                {}
func (stubMetrics) RecordLastConfidence(symbol string, confidence float64) {}
func (stubMetrics) RecordLatency(op string, seconds float64)               {}

func newTestHandler(t *testing.T, store *stubStore) *InsightsEchoHandler {
	t.Helper()
	lgr, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	reg, err := hours.NewRegistry(nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	proc := usecase.NewInsightProcessor(nil, store, stubMetrics{}, "clickhouse", 0, 0)
	writer := usecase.NewInsightWriteUseCase(store, proc, reg, nil, stubMetrics{})
	query := usecase.NewInsightQueryUseCase(store)
	return NewInsightsEchoHandler(lgr, writer, query, nil, stubMetrics{})
}

func postJSON(target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestCreateDefaultsBarResolution(t *testing.T) {
	store := &stubStore{}
	h := newTestHandler(t, store)
	e := echo.New()

	req, rec := postJSON("/api/insights", `{"symbol":"AAPL","market":"XNYS","direction":"up","bar_count":3}`)
	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.InsightRecord `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.PeriodSeconds != 180 {
		t.Errorf("period = %v s, want 180 (three minute bars)", resp.Data.PeriodSeconds)
	}
	if resp.Data.CloseTime-resp.Data.CreatedTime != 180 {
		t.Errorf("window = %d s, want 180", resp.Data.CloseTime-resp.Data.CreatedTime)
	}
	if len(store.stored) != 1 {
		t.Fatalf("stored = %d, want 1", len(store.stored))
	}
}

func TestCreateRejectsUnknownDirection(t *testing.T) {
	store := &stubStore{}
	h := newTestHandler(t, store)
	e := echo.New()

	req, rec := postJSON("/api/insights", `{"symbol":"AAPL","direction":"sideways","period_seconds":60}`)
	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(store.stored) != 0 {
		t.Errorf("stored = %d, want none", len(store.stored))
	}
}

func TestListAlignsWindowToMinute(t *testing.T) {
	store := &stubStore{}
	h := newTestHandler(t, store)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet,
		"/api/insights?symbol=AAPL&from=2024-05-06T10:04:31Z&to=2024-05-06T11:09:59Z", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	wantFrom := time.Date(2024, 5, 6, 10, 4, 0, 0, time.UTC)
	wantTo := time.Date(2024, 5, 6, 11, 9, 0, 0, time.UTC)
	if !store.queryFrom.Equal(wantFrom) || !store.queryTo.Equal(wantTo) {
		t.Errorf("window %s..%s, want %s..%s", store.queryFrom, store.queryTo, wantFrom, wantTo)
	}
}
