package dispatch

import (
	"context"
	"time"

	"github.com/nao1215/slotpush/internal/docstore"
)

// ideaドキュメント上の送信済みフラグと監査フィールド。
const (
	fieldSlotStartSent           = "slotStartNotificationSent"
	fieldSlotStartNotifiedAt     = "slotStartNotifiedAt"
	fieldSlotStartNotifiedSlotID = "slotStartNotifiedSlotId"
)

// Gate はスロット開始通知の重複送信を防ぐ。
// ideaドキュメント上の送信済みフラグ（NOT_SENT → SENT、終端）を判定・記録する。
type Gate struct {
	// store はドキュメントストア。
	store Store
}

// NewGate は新しいGateを生成する。
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// AlreadySent はスロット開始通知が送信済みかどうかを返す。
func (g *Gate) AlreadySent(idea docstore.Document) bool {
	return docstore.Bool(idea, fieldSlotStartSent)
}

// MarkSent は送信済みフラグと監査情報（送信日時・対象スロットID）を
// ideaドキュメントに記録する。配信成功の確認後にのみ呼び出すこと。
// フラグが既にtrueの場合は書き込まず、falseを返す。
func (g *Gate) MarkSent(ctx context.Context, ideaID, slotID string, now time.Time) (bool, error) {
	fields := docstore.Document{
		fieldSlotStartSent:           true,
		fieldSlotStartNotifiedAt:     now.UTC().Format(time.RFC3339),
		fieldSlotStartNotifiedSlotID: slotID,
	}
	return g.store.UpdateIfAbsent(ctx, collectionIdeas, ideaID, fieldSlotStartSent, fields)
}
