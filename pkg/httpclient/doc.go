// Package httpclient は外部サービスとのHTTP通信を行うクライアントを提供する。
//
// プッシュゲートウェイへの通知送信など、JSONベースの外部API呼び出しの
// 通信パターンを統一する。
package httpclient
