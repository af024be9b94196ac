package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
	pkgch "AlphaPull/pkg/clickhouse"
	applogger "AlphaPull/pkg/logger"
)

const insightsTable = "alphapull.insights"

// insightColumns is the column list shared by inserts and selects. The
// updated_at column versions rows for the ReplacingMergeTree, so score
// updates are plain re-inserts. close_time is a unix epoch Int64: open
// ended windows close at year 9999, past the DateTime range.
const insightColumns = "id, symbol, ticker, market, type, direction, period, magnitude, confidence, weight, " +
	"created_time, close_time, source_model, group_id, tag, estimated_value, reference_value, " +
	"reference_value_final, score_magnitude, score_direction, score_is_final, source, updated_at"

var insightDDL = []string{
	"CREATE DATABASE IF NOT EXISTS alphapull",
	`CREATE TABLE IF NOT EXISTS ` + insightsTable + ` (
        id String,
        symbol String,
        ticker String,
        market String,
        type String,
        direction String,
        period Float64,
        magnitude Nullable(Float64),
        confidence Nullable(Float64),
        weight Nullable(Float64),
        created_time DateTime,
        close_time Int64,
        source_model String,
        group_id Nullable(String),
        tag String,
        estimated_value Float64,
        reference_value Float64,
        reference_value_final Float64,
        score_magnitude Float64,
        score_direction Float64,
        score_is_final UInt8,
        source String,
        updated_at DateTime
    ) ENGINE = ReplacingMergeTree(updated_at)
    ORDER BY (symbol, created_time, id)`,
}

// CHInsightStore implements InsightStore backed by ClickHouse.
type CHInsightStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHInsightStore(ch *pkgch.Client) *CHInsightStore {
	return &CHInsightStore{ch: ch, db: ch.DB()}
}

var _ domrepo.InsightStore = (*CHInsightStore)(nil)

// SetLogger injects a structured logger.
func (s *CHInsightStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init creates the database and table if they are missing.
func (s *CHInsightStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, insightDDL)
}

func (s *CHInsightStore) Store(ctx context.Context, ins *models.Insight) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", insightsTable, insightColumns, placeholders(23))
	_, err := s.db.ExecContext(ctx, q, insightArgs(ins, time.Now().UTC())...)
	if err != nil {
		s.logError("store", err, applogger.String("id", ins.ID))
		return fmt.Errorf("store insight: %w", err)
	}
	return nil
}

func (s *CHInsightStore) StoreBatch(ctx context.Context, insights []*models.Insight) error {
	if len(insights) == 0 {
		return nil
	}
	// Multi-row VALUES keeps round-trips down; chunked so statements stay
	// a sane size.
	const chunkSize = 1000
	now := time.Now().UTC()
	for start := 0; start < len(insights); start += chunkSize {
		end := start + chunkSize
		if end > len(insights) {
			end = len(insights)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*23)
		for _, ins := range insights[start:end] {
			if ins == nil || ins.ID == "" {
				continue
			}
			values = append(values, "("+placeholders(23)+")")
			args = append(args, insightArgs(ins, now)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", insightsTable, insightColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logError("store_batch", err, applogger.Int("count", end-start))
			return fmt.Errorf("store insight batch: %w", err)
		}
	}
	return nil
}

func (s *CHInsightStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Insight, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE created_time >= ? AND created_time <= ?", insightColumns, insightsTable)
	args := []interface{}{from, to}
	if symbol != "" {
		q += " AND symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY created_time DESC LIMIT ?"
	args = append(args, limit)
	return s.selectInsights(ctx, "query", q, args...)
}

func (s *CHInsightStore) ActiveAt(ctx context.Context, at time.Time, symbol string, limit int) ([]*models.Insight, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE created_time <= ? AND close_time >= ?", insightColumns, insightsTable)
	args := []interface{}{at, at.Unix()}
	if symbol != "" {
		q += " AND symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY close_time ASC LIMIT ?"
	args = append(args, limit)
	return s.selectInsights(ctx, "active_at", q, args...)
}

func (s *CHInsightStore) ByGroup(ctx context.Context, groupID string) ([]*models.Insight, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE group_id = ? ORDER BY created_time ASC", insightColumns, insightsTable)
	return s.selectInsights(ctx, "by_group", q, groupID)
}

func (s *CHInsightStore) Get(ctx context.Context, id string) (*models.Insight, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE id = ? LIMIT 1", insightColumns, insightsTable)
	out, err := s.selectInsights(ctx, "get", q, id)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: insight %s", models.ErrNotFound, id)
	}
	return out[0], nil
}

// PendingScore lists insights whose window closed at or before asOf but
// whose score has not been finalized, oldest close first.
func (s *CHInsightStore) PendingScore(ctx context.Context, asOf time.Time, limit int) ([]*models.Insight, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(
		"SELECT %s FROM %s FINAL WHERE close_time <= ? AND score_is_final = 0 ORDER BY close_time ASC LIMIT %d",
		insightColumns, insightsTable, limit)
	return s.selectInsights(ctx, "pending_score", q, asOf.UTC().Unix())
}

// UpdateScore persists the current score state of an existing insight. The
// table replaces rows by id, so this is a re-insert with a fresh version.
func (s *CHInsightStore) UpdateScore(ctx context.Context, ins *models.Insight) error {
	return s.Store(ctx, ins)
}

func (s *CHInsightStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHInsightStore) Close() error {
	return nil // Managed by pkg
}

func (s *CHInsightStore) selectInsights(ctx context.Context, op, q string, args ...interface{}) ([]*models.Insight, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError(op, err)
		return nil, fmt.Errorf("%s insights: %w", op, err)
	}
	defer rows.Close()

	out := make([]*models.Insight, 0, 64)
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			s.logError(op, err)
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		out = append(out, ins)
	}
	if err := rows.Err(); err != nil {
		s.logError(op, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse insights read",
			applogger.String("op", op),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func scanInsight(rows *sql.Rows) (*models.Insight, error) {
	var (
		rec        models.InsightRecord
		created    time.Time
		groupID    sql.NullString
		magnitude  sql.NullFloat64
		confidence sql.NullFloat64
		weight     sql.NullFloat64
		scoreFinal uint8
		updatedAt  time.Time
	)
	if err := rows.Scan(
		&rec.ID, &rec.SymbolID, &rec.Ticker, &rec.Market, &rec.Type, &rec.Direction, &rec.PeriodSeconds,
		&magnitude, &confidence, &weight, &created, &rec.CloseTime, &rec.SourceModel, &groupID, &rec.Tag,
		&rec.EstimatedValue, &rec.ReferenceValue, &rec.ReferenceValueFinal,
		&rec.ScoreMagnitude, &rec.ScoreDirection, &scoreFinal, &rec.Source, &updatedAt,
	); err != nil {
		return nil, err
	}
	rec.CreatedTime = created.Unix()
	rec.ScoreIsFinal = scoreFinal != 0
	if magnitude.Valid {
		rec.Magnitude = &magnitude.Float64
	}
	if confidence.Valid {
		rec.Confidence = &confidence.Float64
	}
	if weight.Valid {
		rec.Weight = &weight.Float64
	}
	if groupID.Valid {
		rec.GroupID = &groupID.String
	}
	return models.FromRecord(rec)
}

func insightArgs(ins *models.Insight, updatedAt time.Time) []interface{} {
	rec := ins.ToRecord()
	var groupID interface{}
	if rec.GroupID != nil {
		groupID = *rec.GroupID
	}
	scoreFinal := uint8(0)
	if rec.ScoreIsFinal {
		scoreFinal = 1
	}
	return []interface{}{
		rec.ID, rec.SymbolID, rec.Ticker, rec.Market, rec.Type, rec.Direction, rec.PeriodSeconds,
		nullableFloat(rec.Magnitude), nullableFloat(rec.Confidence), nullableFloat(rec.Weight),
		time.Unix(rec.CreatedTime, 0).UTC(), rec.CloseTime,
		rec.SourceModel, groupID, rec.Tag,
		rec.EstimatedValue, rec.ReferenceValue, rec.ReferenceValueFinal,
		rec.ScoreMagnitude, rec.ScoreDirection, scoreFinal, rec.Source, updatedAt,
	}
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *CHInsightStore) logError(op string, err error, fields ...applogger.Field) {
	if s.l == nil {
		return
	}
	fields = append(fields, applogger.String("op", op), applogger.Error(err))
	s.l.Error("clickhouse insight store error", fields...)
}
