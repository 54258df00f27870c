// Package docstore はコレクション単位のドキュメントストアを提供する。
//
// slots / tasks / ideas の各コレクションをJSONドキュメントとして
// SQLiteに永続化する。取得・全体書き込み・フィールドマージに加えて、
// 重複送信防止のための条件付きマージ（compare-and-set）を提供する。
package docstore
