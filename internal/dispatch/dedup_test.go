package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/slotpush/internal/docstore"
)

// TestGate は開始通知の重複送信防止を検証する。
func TestGate(t *testing.T) {
	t.Parallel()

	sentAt := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

	t.Run("未送信のアイデアにはAlreadySentがfalseを返すこと", func(t *testing.T) {
		t.Parallel()
		d, _, _, _ := setupTestDispatcher(t)

		if d.gate.AlreadySent(docstore.Document{"nickname": "taro"}) {
			t.Error("AlreadySent = true, want false")
		}
	})

	t.Run("フラグがtrueのアイデアにはAlreadySentがtrueを返すこと", func(t *testing.T) {
		t.Parallel()
		d, _, _, _ := setupTestDispatcher(t)

		idea := docstore.Document{"slotStartNotificationSent": true}
		if !d.gate.AlreadySent(idea) {
			t.Error("AlreadySent = false, want true")
		}
	})

	t.Run("MarkSentがフラグと監査情報を記録すること", func(t *testing.T) {
		t.Parallel()
		d, store, _, _ := setupTestDispatcher(t)

		seedDoc(t, store, collectionIdeas, "I1", docstore.Document{"nickname": "taro", "fcmToken": "tok123"})

		marked, err := d.gate.MarkSent(context.Background(), "I1", "2025-06-01_morning", sentAt)
		if err != nil {
			t.Fatalf("MarkSentに失敗: %v", err)
		}
		if !marked {
			t.Fatal("marked = false, want true")
		}

		idea, err := store.Get(context.Background(), collectionIdeas, "I1")
		if err != nil {
			t.Fatalf("アイデアの取得に失敗: %v", err)
		}
		if !docstore.Bool(idea, "slotStartNotificationSent") {
			t.Error("slotStartNotificationSentが記録されていない")
		}
		if idea["slotStartNotifiedAt"] != "2025-06-01T15:00:00Z" {
			t.Errorf("slotStartNotifiedAt = %v, want 2025-06-01T15:00:00Z", idea["slotStartNotifiedAt"])
		}
		if idea["slotStartNotifiedSlotId"] != "2025-06-01_morning" {
			t.Errorf("slotStartNotifiedSlotId = %v, want 2025-06-01_morning", idea["slotStartNotifiedSlotId"])
		}
		// 既存フィールドがマージで保持されること
		if idea["nickname"] != "taro" {
			t.Errorf("nickname = %v, want taro", idea["nickname"])
		}
	})

	t.Run("2回目のMarkSentは書き込まずfalseを返すこと", func(t *testing.T) {
		t.Parallel()
		d, store, _, _ := setupTestDispatcher(t)

		seedDoc(t, store, collectionIdeas, "I1", docstore.Document{"fcmToken": "tok123"})

		if _, err := d.gate.MarkSent(context.Background(), "I1", "2025-06-01_morning", sentAt); err != nil {
			t.Fatalf("1回目のMarkSentに失敗: %v", err)
		}

		marked, err := d.gate.MarkSent(context.Background(), "I1", "2025-06-01_noon", sentAt.Add(time.Hour))
		if err != nil {
			t.Fatalf("2回目のMarkSentに失敗: %v", err)
		}
		if marked {
			t.Error("marked = true, want false")
		}

		// 最初の記録が上書きされていないこと
		idea, err := store.Get(context.Background(), collectionIdeas, "I1")
		if err != nil {
			t.Fatalf("アイデアの取得に失敗: %v", err)
		}
		if idea["slotStartNotifiedSlotId"] != "2025-06-01_morning" {
			t.Errorf("slotStartNotifiedSlotId = %v, want 2025-06-01_morning", idea["slotStartNotifiedSlotId"])
		}
	})

	t.Run("存在しないアイデアへのMarkSentはfalseを返すこと", func(t *testing.T) {
		t.Parallel()
		d, _, _, _ := setupTestDispatcher(t)

		marked, err := d.gate.MarkSent(context.Background(), "I-missing", "2025-06-01_morning", sentAt)
		if err != nil {
			t.Fatalf("MarkSentに失敗: %v", err)
		}
		if marked {
			t.Error("marked = true, want false")
		}
	})
}
