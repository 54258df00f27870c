// Package dispatch はスロット通知のディスパッチを担当する。
//
// 2系統の契機でプッシュ通知を配信する。
//
//   - リアクティブ経路: スロットドキュメントの更新Webhookを受け、
//     新たにタスクが割り当てられた場合に「予約完了」通知を送る。
//   - スケジュール経路: UTC+14基準のスロット開始時刻に、
//     該当スロットの持ち主へ「開始」通知を送る。
//
// どちらの経路も slot → task → idea の3段階参照を解決してから配信する。
// 参照の欠損は異常ではなく、理由つきのスキップとして扱う。
// スケジュール経路はideaドキュメント上の送信済みフラグにより、
// at-least-onceの再実行に対して冪等となる。
package dispatch
