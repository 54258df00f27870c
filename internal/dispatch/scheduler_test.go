package dispatch

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/nao1215/slotpush/pkg/timeslot"
)

// countLiveRecords は開始通知の配信記録件数を返すヘルパー。
// ストアが空のためtickからの発火は常にskippedで記録される。
func countLiveRecords(t *testing.T, db *sql.DB) int {
	t.Helper()
	return countDeliveryLog(t, db, string(VariantLive), StatusSkipped)
}

// TestSchedulerTick はスケジューラの発火条件を検証する。
func TestSchedulerTick(t *testing.T) {
	t.Parallel()

	t.Run("発火時刻の時が一致するスロットのみ発火すること", func(t *testing.T) {
		t.Parallel()
		d, _, _, db := setupTestDispatcher(t)
		s := NewScheduler(d)

		// UTC 15:00はmorningスロットの発火時刻
		s.tick(context.Background(), time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))

		if got := countLiveRecords(t, db); got != 1 {
			t.Errorf("発火数 = %d, want 1", got)
		}
		if s.lastFired[timeslot.Morning] != "2025-06-01" {
			t.Errorf("lastFired[morning] = %q, want 2025-06-01", s.lastFired[timeslot.Morning])
		}
	})

	t.Run("発火時刻でないtickでは発火しないこと", func(t *testing.T) {
		t.Parallel()
		d, _, _, db := setupTestDispatcher(t)
		s := NewScheduler(d)

		s.tick(context.Background(), time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC))

		if got := countLiveRecords(t, db); got != 0 {
			t.Errorf("発火数 = %d, want 0", got)
		}
	})

	t.Run("同一時間帯の複数tickでは1回だけ発火すること", func(t *testing.T) {
		t.Parallel()
		d, _, _, db := setupTestDispatcher(t)
		s := NewScheduler(d)

		base := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
		s.tick(context.Background(), base)
		s.tick(context.Background(), base.Add(time.Minute))
		s.tick(context.Background(), base.Add(59*time.Minute))

		if got := countLiveRecords(t, db); got != 1 {
			t.Errorf("発火数 = %d, want 1", got)
		}
	})

	t.Run("翌日の発火時刻では再び発火すること", func(t *testing.T) {
		t.Parallel()
		d, _, _, db := setupTestDispatcher(t)
		s := NewScheduler(d)

		s.tick(context.Background(), time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))
		s.tick(context.Background(), time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC))

		if got := countLiveRecords(t, db); got != 2 {
			t.Errorf("発火数 = %d, want 2", got)
		}
	})

	t.Run("全スロットがそれぞれの発火時刻で発火すること", func(t *testing.T) {
		t.Parallel()
		d, _, _, db := setupTestDispatcher(t)
		s := NewScheduler(d)

		for _, def := range timeslot.Schedule {
			s.tick(context.Background(), time.Date(2025, 6, 1, def.FireHourUTC, 0, 0, 0, time.UTC))
		}

		if got := countLiveRecords(t, db); got != len(timeslot.Schedule) {
			t.Errorf("発火数 = %d, want %d", got, len(timeslot.Schedule))
		}
	})

	t.Run("StartとStopでバックグラウンドループが停止すること", func(t *testing.T) {
		t.Parallel()
		d, _, _, _ := setupTestDispatcher(t)
		s := NewScheduler(d)

		s.Start(context.Background())
		s.Stop()
	})
}
