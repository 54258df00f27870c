package push

import (
	"context"
	"fmt"

	"github.com/nao1215/slotpush/pkg/httpclient"
)

// Sender はプッシュ通知を配信するインターフェース。
// テストではゲートウェイへの実送信を差し替えるために使用する。
type Sender interface {
	// Send はメッセージを1件配信する。
	Send(ctx context.Context, msg *Message) error
}

// Client はプッシュゲートウェイへ送信するSenderのHTTP実装。
type Client struct {
	// client はゲートウェイとの通信用HTTPクライアント。
	client *httpclient.Client
}

// NewClient は新しいプッシュゲートウェイクライアントを生成する。
// gatewayURLにはゲートウェイのベースURL（例: "http://push-gateway:8090"）を指定する。
func NewClient(gatewayURL string) *Client {
	return &Client{client: httpclient.New(gatewayURL)}
}

// sendRequest はゲートウェイの送信APIのリクエスト構造。
type sendRequest struct {
	// Message は配信するメッセージ。
	Message *Message `json:"message"`
}

// Send はメッセージをゲートウェイの /v1/messages:send に送信する。
func (c *Client) Send(ctx context.Context, msg *Message) error {
	if msg.Token == "" {
		return fmt.Errorf("FCM登録トークンが空です")
	}

	if err := c.client.PostJSON(ctx, "/v1/messages:send", sendRequest{Message: msg}, nil); err != nil {
		return fmt.Errorf("プッシュ通知の送信に失敗: %w", err)
	}
	return nil
}
