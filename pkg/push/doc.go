// Package push はプッシュ通知の配信を担当する。
//
// FCM互換のメッセージ型と、プッシュゲートウェイへ送信するHTTPクライアントを
// 提供する。配信先の端末やタイムゾーンには関知せず、メッセージを
// ゲートウェイに引き渡すところまでが責務となる。
package push
