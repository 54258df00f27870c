package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/nao1215/slotpush/pkg/timeslot"
)

// Scheduler は各スロットの開始通知を固定のUTC時刻に発火させる。
// 1分間隔のtickerで現在時刻を確認し、発火時刻に到達したスロットの
// HandleSlotStartを呼び出す。プロセス内では1日1回に抑えるが、
// プロセス再起動等による再実行はDedupのフラグ側で吸収される。
type Scheduler struct {
	// dispatcher は発火時に呼び出すディスパッチャ。
	dispatcher *Dispatcher
	// interval は時刻確認の間隔。
	interval time.Duration
	// lastFired はスロットごとの最終発火日（UTC日付）。同一日内の二重発火を防ぐ。
	lastFired map[timeslot.Name]string
	// cancel はバックグラウンドゴルーチンを停止するためのキャンセル関数。
	cancel context.CancelFunc
}

// NewScheduler は新しいSchedulerを生成する。
func NewScheduler(dispatcher *Dispatcher) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		interval:   time.Minute,
		lastFired:  make(map[timeslot.Name]string),
	}
}

// Start はバックグラウンドで発火ループを開始する。
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		log.Println("[Scheduler] スロット開始通知のスケジューラを開始します")
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[Scheduler] スケジューラを停止しました")
				return
			case now := <-ticker.C:
				s.tick(ctx, now.UTC())
			}
		}
	}()
}

// Stop はバックグラウンドの発火ループを停止する。
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// tick は現在時刻が発火時刻帯にあるスロットのハンドラを呼び出す。
// 発火時刻の「時」が一致している間は、その日の最初のtickでのみ発火する。
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	date := now.Format("2006-01-02")
	for _, def := range timeslot.Schedule {
		if now.Hour() != def.FireHourUTC {
			continue
		}
		if s.lastFired[def.Name] == date {
			continue
		}
		s.lastFired[def.Name] = date

		log.Printf("[Scheduler] %sスロットの開始通知を発火します（%02d:00 UTC）", def.Name, def.FireHourUTC)
		s.dispatcher.HandleSlotStart(ctx, def)
	}
}
