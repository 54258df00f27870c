package dispatch

import (
	"strings"
	"testing"

	"github.com/nao1215/slotpush/pkg/timeslot"
)

// testResolution はCompose検証用の解決結果を返す。
func testResolution() *Resolution {
	return &Resolution{
		SlotID:   "2025-06-01_morning",
		Date:     "2025-06-01",
		SlotName: timeslot.Morning,
		TaskID:   "T1",
		Headline: "Build a park",
		IdeaID:   "I1",
		Token:    "tok123",
		Nickname: "taro",
	}
}

// TestCompose は通知メッセージの組み立てを検証する。
func TestCompose(t *testing.T) {
	t.Parallel()

	t.Run("予約完了通知のタイトルと本文が組み立てられること", func(t *testing.T) {
		t.Parallel()

		msg := Compose(testResolution(), VariantScheduled)

		if msg.Token != "tok123" {
			t.Errorf("Token = %q, want %q", msg.Token, "tok123")
		}
		if msg.Notification.Title != "🎉 Your idea goes live!" {
			t.Errorf("Title = %q, want %q", msg.Notification.Title, "🎉 Your idea goes live!")
		}
		want := "\"Build a park\"\n\nScheduled for Sunday, June 1 in the morning slot. Thanks!"
		if msg.Notification.Body != want {
			t.Errorf("Body = %q, want %q", msg.Notification.Body, want)
		}
	})

	t.Run("開始通知のタイトルと本文が組み立てられること", func(t *testing.T) {
		t.Parallel()

		msg := Compose(testResolution(), VariantLive)

		if msg.Notification.Title != "🌏 Your idea just went live!" {
			t.Errorf("Title = %q, want %q", msg.Notification.Title, "🌏 Your idea just went live!")
		}
		if !strings.Contains(msg.Notification.Body, "\"Build a park\"") {
			t.Errorf("本文にheadlineが含まれていません: %q", msg.Notification.Body)
		}
		if !strings.Contains(msg.Notification.Body, "5:00 am") {
			t.Errorf("本文にスロット開始時刻が含まれていません: %q", msg.Notification.Body)
		}
		if !strings.Contains(msg.Notification.Body, "UTC+14") {
			t.Errorf("本文に基準タイムゾーンが含まれていません: %q", msg.Notification.Body)
		}
	})

	t.Run("クライアント誘導用のデータが含まれること", func(t *testing.T) {
		t.Parallel()

		msg := Compose(testResolution(), VariantLive)

		want := map[string]string{
			"slotId":       "2025-06-01_morning",
			"taskId":       "T1",
			"date":         "2025-06-01",
			"slot":         "morning",
			"click_action": "FLUTTER_NOTIFICATION_CLICK",
			"route":        "/slot",
		}
		for key, value := range want {
			if msg.Data[key] != value {
				t.Errorf("Data[%s] = %q, want %q", key, msg.Data[key], value)
			}
		}
	})

	t.Run("どの種別もサイレント・低優先度で配信されること", func(t *testing.T) {
		t.Parallel()

		for _, variant := range []Variant{VariantScheduled, VariantLive} {
			msg := Compose(testResolution(), variant)

			if msg.Android == nil {
				t.Fatalf("variant=%s: Androidの配信ヒントがありません", variant)
			}
			if msg.Android.Priority != "normal" {
				t.Errorf("variant=%s: Priority = %q, want normal", variant, msg.Android.Priority)
			}
			n := msg.Android.Notification
			if n.ChannelID != "idea_silent" {
				t.Errorf("variant=%s: ChannelID = %q, want idea_silent", variant, n.ChannelID)
			}
			if n.DefaultSound || n.DefaultVibrateTimings {
				t.Errorf("variant=%s: サイレント配信になっていません", variant)
			}
			if n.NotificationPriority != "PRIORITY_LOW" {
				t.Errorf("variant=%s: NotificationPriority = %q, want PRIORITY_LOW", variant, n.NotificationPriority)
			}
		}
	})

	t.Run("未知のスロット名でもスロット名をそのまま時刻表記に使うこと", func(t *testing.T) {
		t.Parallel()

		res := testResolution()
		res.SlotName = timeslot.Name("midnight")

		msg := Compose(res, VariantLive)

		if !strings.Contains(msg.Notification.Body, "midnight") {
			t.Errorf("本文にスロット名が含まれていません: %q", msg.Notification.Body)
		}
	})
}
