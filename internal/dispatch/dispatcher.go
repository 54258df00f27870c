package dispatch

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/slotpush/internal/docstore"
	"github.com/nao1215/slotpush/pkg/push"
	"github.com/nao1215/slotpush/pkg/timeslot"
)

// 処理結果のステータス。
const (
	// StatusSent は通知を配信したことを表す。
	StatusSent = "sent"
	// StatusSkipped は配信対象がなく、正常にスキップしたことを表す。
	StatusSkipped = "skipped"
	// StatusFailed は配信を試みたが失敗したことを表す。
	StatusFailed = "failed"
)

// Outcome はディスパッチ1回の処理結果。
// Webhookのレスポンスと配信記録の両方に使う。
type Outcome struct {
	// Status は処理結果（sent / skipped / failed）。
	Status string `json:"status"`
	// Reason はスキップ・失敗の理由。成功時は空。
	Reason string `json:"reason,omitempty"`
	// SlotID は対象スロットのID。
	SlotID string `json:"slot_id"`
}

// Dispatcher はリアクティブ経路とスケジュール経路の両方を統括する。
// 各ハンドラは失敗をすべて内部で処理し、呼び出し元には伝播させない。
// 伝播させるとトリガー基盤の再実行によって処理済みの状態を二重処理する
// おそれがあるためである。
type Dispatcher struct {
	// resolver は3段階参照の解決を担当する。
	resolver *Resolver
	// gate はスロット開始通知の重複送信防止を担当する。
	gate *Gate
	// sender はプッシュ通知の配信を担当する。
	sender push.Sender
	// db は配信記録（delivery_log）用のSQLiteデータベース接続。
	db *sql.DB
}

// NewDispatcher は新しいDispatcherを生成する。
// 配信記録テーブルのスキーマ作成も行う。
func NewDispatcher(store Store, sender push.Sender, db *sql.DB) (*Dispatcher, error) {
	if err := initSchema(db); err != nil {
		return nil, err
	}
	return &Dispatcher{
		resolver: NewResolver(store),
		gate:     NewGate(store),
		sender:   sender,
		db:       db,
	}, nil
}

// HandleSlotUpdated はスロットドキュメント更新時のリアクティブ処理。
// taskIdが新たに設定された場合のみ予約完了通知を送る。taskIdが未設定、
// または変化していない場合は何もしない（無関係なフィールド更新や
// トリガーの再配送をここで吸収する）。
func (d *Dispatcher) HandleSlotUpdated(ctx context.Context, slotID string, before, after docstore.Document) Outcome {
	afterTask, ok := docstore.Str(after, "taskId")
	beforeTask, _ := docstore.Str(before, "taskId")
	if !ok || afterTask == beforeTask {
		log.Printf("[SlotUpdate] 新規のタスク割り当てなし: slot=%s", slotID)
		return Outcome{Status: StatusSkipped, Reason: "no-new-task", SlotID: slotID}
	}

	log.Printf("[SlotUpdate] スロット%sにタスク%sが割り当てられました", slotID, afterTask)

	res, reason := d.resolver.ResolveTask(ctx, slotID, afterTask)
	if reason != ReasonResolved {
		log.Printf("[SlotUpdate] 解決できませんでした: slot=%s, reason=%s", slotID, reason)
		outcome := Outcome{Status: StatusSkipped, Reason: string(reason), SlotID: slotID}
		d.record(ctx, slotID, afterTask, "", VariantScheduled, outcome)
		return outcome
	}

	msg := Compose(res, VariantScheduled)
	if err := d.sender.Send(ctx, msg); err != nil {
		log.Printf("[SlotUpdate] 配信に失敗: slot=%s, idea=%s: %v", slotID, res.IdeaID, err)
		outcome := Outcome{Status: StatusFailed, Reason: "delivery-error", SlotID: slotID}
		d.record(ctx, slotID, res.TaskID, res.IdeaID, VariantScheduled, outcome)
		return outcome
	}

	log.Printf("[SlotUpdate] 予約完了通知を%sに送信しました: slot=%s", res.Nickname, slotID)
	outcome := Outcome{Status: StatusSent, SlotID: slotID}
	d.record(ctx, slotID, res.TaskID, res.IdeaID, VariantScheduled, outcome)
	return outcome
}

// HandleSlotStart はスロット開始時刻の到来時に開始通知を送る。
// UTC+14での今日の日付からスロットIDを組み立て、送信済みフラグで冪等化する。
func (d *Dispatcher) HandleSlotStart(ctx context.Context, def timeslot.Definition) Outcome {
	return d.handleSlotStartAt(ctx, def, time.Now())
}

// handleSlotStartAt はHandleSlotStartの本体。テストのために現在時刻を注入できる。
func (d *Dispatcher) handleSlotStartAt(ctx context.Context, def timeslot.Definition, now time.Time) Outcome {
	date := timeslot.TodayAt(now, timeslot.ReferenceOffsetHours)
	slotID := timeslot.ID(date, def.Name)
	log.Printf("[SlotStart] 処理開始: slot=%s", slotID)

	res, reason := d.resolver.Resolve(ctx, slotID)
	if reason != ReasonResolved {
		log.Printf("[SlotStart] 解決できませんでした: slot=%s, reason=%s", slotID, reason)
		outcome := Outcome{Status: StatusSkipped, Reason: string(reason), SlotID: slotID}
		d.record(ctx, slotID, "", "", VariantLive, outcome)
		return outcome
	}

	if d.gate.AlreadySent(res.Idea) {
		log.Printf("[SlotStart] 送信済みのためスキップ: slot=%s, idea=%s", slotID, res.IdeaID)
		outcome := Outcome{Status: StatusSkipped, Reason: "already-sent", SlotID: slotID}
		d.record(ctx, slotID, res.TaskID, res.IdeaID, VariantLive, outcome)
		return outcome
	}

	msg := Compose(res, VariantLive)
	if err := d.sender.Send(ctx, msg); err != nil {
		log.Printf("[SlotStart] 配信に失敗: slot=%s, idea=%s: %v", slotID, res.IdeaID, err)
		outcome := Outcome{Status: StatusFailed, Reason: "delivery-error", SlotID: slotID}
		d.record(ctx, slotID, res.TaskID, res.IdeaID, VariantLive, outcome)
		return outcome
	}

	log.Printf("[SlotStart] 開始通知を%sに送信しました: slot=%s", res.Nickname, slotID)

	// 配信成功後の最終ステップとしてのみフラグを記録する。
	// ここで失敗しても配信自体は成功しているため、再送リスクとしてログに残すのみ。
	marked, err := d.gate.MarkSent(ctx, res.IdeaID, slotID, now)
	if err != nil {
		log.Printf("[SlotStart] 送信済みフラグの記録に失敗: idea=%s: %v", res.IdeaID, err)
	} else if !marked {
		log.Printf("[SlotStart] 送信済みフラグは既に記録されていました: idea=%s", res.IdeaID)
	}

	outcome := Outcome{Status: StatusSent, SlotID: slotID}
	d.record(ctx, slotID, res.TaskID, res.IdeaID, VariantLive, outcome)
	return outcome
}

// record は配信記録をdelivery_logに挿入する。
// 監査用の記録であり、失敗してもディスパッチの結果には影響させない。
func (d *Dispatcher) record(ctx context.Context, slotID, taskID, ideaID string, variant Variant, outcome Outcome) {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO delivery_log (id, slot_id, task_id, idea_id, variant, outcome, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), slotID, taskID, ideaID, string(variant), outcome.Status, outcome.Reason,
	)
	if err != nil {
		log.Printf("[DeliveryLog] 配信記録の保存に失敗: slot=%s: %v", slotID, err)
	}
}
