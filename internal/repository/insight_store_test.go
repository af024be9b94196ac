package repository

import (
	"strings"
	"testing"
	"time"

	"AlphaPull/internal/domain/models"
)

func closeTimeIndex(t *testing.T) int {
	t.Helper()
	for i, col := range strings.Split(insightColumns, ", ") {
		if col == "close_time" {
			return i
		}
	}
	t.Fatal("close_time column missing")
	return -1
}

func TestInsightArgsCarryEpochCloseTime(t *testing.T) {
	idx := closeTimeIndex(t)

	t.Run("open ended", func(t *testing.T) {
		ins, err := models.Price(models.NewSymbol("BTCUSD", "CRYPTO"), models.MaxPeriod, models.DirectionUp)
		if err != nil {
			t.Fatalf("insight: %v", err)
		}
		ins.GeneratedUTC = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

		args := insightArgs(ins, time.Now().UTC())
		got, ok := args[idx].(int64)
		if !ok {
			t.Fatalf("close_time arg is %T, want int64", args[idx])
		}
		if got != models.EndOfTime.Unix() {
			t.Errorf("close_time = %d, want %d", got, models.EndOfTime.Unix())
		}
		// the year-9999 close sits far past the 32-bit DateTime ceiling
		if got <= int64(^uint32(0)) {
			t.Errorf("close_time %d fits 32 bits; the sentinel would clamp", got)
		}
	})

	t.Run("resolved window", func(t *testing.T) {
		ins, err := models.Price(models.NewSymbol("AAPL", "XNYS"), time.Hour, models.DirectionDown)
		if err != nil {
			t.Fatalf("insight: %v", err)
		}
		ins.GeneratedUTC = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
		ins.CloseTimeUTC = ins.GeneratedUTC.Add(time.Hour)

		args := insightArgs(ins, time.Now().UTC())
		if got := args[idx]; got != ins.CloseTimeUTC.Unix() {
			t.Errorf("close_time = %v, want %d", got, ins.CloseTimeUTC.Unix())
		}
	})
}

func TestInsightSchemaHoldsOpenEndedClose(t *testing.T) {
	var create string
	for _, stmt := range insightDDL {
		if strings.Contains(stmt, "CREATE TABLE") {
			create = stmt
		}
	}
	if create == "" {
		t.Fatal("create table statement missing")
	}
	if !strings.Contains(create, "close_time Int64") {
		t.Error("close_time must be an Int64 epoch column; DateTime clamps the open ended close")
	}
}
