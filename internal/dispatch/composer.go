package dispatch

import (
	"fmt"

	"github.com/nao1215/slotpush/pkg/push"
	"github.com/nao1215/slotpush/pkg/timeslot"
)

// Variant は通知の種別を表す。
type Variant string

const (
	// VariantScheduled はスロットへの割り当て直後に送る予約完了通知。
	VariantScheduled Variant = "scheduled"
	// VariantLive はスロット開始時刻の到来時に送る開始通知。
	VariantLive Variant = "live"
	// VariantTest は動作確認用のテスト通知。
	VariantTest Variant = "test"
)

// Compose は解決済みの参照と通知種別からプッシュ通知メッセージを組み立てる。
// 本文にはアイデアの原文ではなく、タスクのheadlineを使う。
// 絶対的な到着時刻に意味がないため、どちらの種別もサイレント・低優先度で配信する。
func Compose(res *Resolution, variant Variant) *push.Message {
	slotTime := string(res.SlotName)
	if def, ok := timeslot.Lookup(res.SlotName); ok {
		slotTime = def.LocalTime
	}

	var title, body string
	switch variant {
	case VariantLive:
		title = "🌏 Your idea just went live!"
		body = fmt.Sprintf("\"%s\" — It's %s in UTC+14 already. Wait for your timezone to catch up!",
			res.Headline, slotTime)
	default:
		title = "🎉 Your idea goes live!"
		body = fmt.Sprintf("\"%s\"\n\nScheduled for %s in the %s slot. Thanks!",
			res.Headline, timeslot.FormatDate(res.Date), res.SlotName)
	}

	return &push.Message{
		Token: res.Token,
		Notification: push.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"slotId":       res.SlotID,
			"taskId":       res.TaskID,
			"date":         res.Date,
			"slot":         string(res.SlotName),
			"click_action": "FLUTTER_NOTIFICATION_CLICK",
			"route":        "/slot",
		},
		Android: &push.AndroidConfig{
			// 深夜に届いてもよいようにサイレント配信とする
			Priority: "normal",
			Notification: push.AndroidNotification{
				ChannelID:             "idea_silent",
				Icon:                  "ic_notification",
				Color:                 "#EC407A",
				DefaultSound:          false,
				DefaultVibrateTimings: false,
				NotificationPriority:  "PRIORITY_LOW",
			},
		},
	}
}
