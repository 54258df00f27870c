package push

// Message はプッシュゲートウェイに送信する通知メッセージ。
// FCMのメッセージ形式に対応する。
type Message struct {
	// Token は配信先端末のFCM登録トークン。
	Token string `json:"token"`
	// Notification は通知の表示内容。
	Notification Notification `json:"notification"`
	// Data はクライアント側のルーティングに使う任意の付加データ。
	Data map[string]string `json:"data,omitempty"`
	// Android はAndroid固有の配信設定。
	Android *AndroidConfig `json:"android,omitempty"`
}

// Notification は通知のタイトルと本文。
type Notification struct {
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Body は通知の本文。
	Body string `json:"body"`
}

// AndroidConfig はAndroid固有の配信設定。
type AndroidConfig struct {
	// Priority は配信優先度（"normal" / "high"）。
	Priority string `json:"priority,omitempty"`
	// Notification はAndroid固有の通知表示設定。
	Notification AndroidNotification `json:"notification"`
}

// AndroidNotification はAndroid固有の通知表示設定。
type AndroidNotification struct {
	// ChannelID は通知チャンネルのID。
	ChannelID string `json:"channelId,omitempty"`
	// Icon は通知アイコンのリソース名。
	Icon string `json:"icon,omitempty"`
	// Color は通知アイコンの色（例: "#EC407A"）。
	Color string `json:"color,omitempty"`
	// DefaultSound は端末既定の通知音を鳴らすかどうか。
	DefaultSound bool `json:"defaultSound"`
	// DefaultVibrateTimings は端末既定のバイブレーションを使うかどうか。
	DefaultVibrateTimings bool `json:"defaultVibrateTimings"`
	// NotificationPriority は表示優先度（例: "PRIORITY_LOW"）。
	NotificationPriority string `json:"notificationPriority,omitempty"`
}
