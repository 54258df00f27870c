package dispatch

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。配信の監査記録を保持する。
const schema = `
CREATE TABLE IF NOT EXISTS delivery_log (
    -- 配信記録の一意識別子（UUID）
    id TEXT PRIMARY KEY,
    -- 対象スロットID（{date}_{slotName}）
    slot_id TEXT NOT NULL,
    -- 対象タスクID（未解決の場合は空文字）
    task_id TEXT NOT NULL DEFAULT '',
    -- 対象アイデアID（未解決の場合は空文字）
    idea_id TEXT NOT NULL DEFAULT '',
    -- 通知種別（scheduled / live / test）
    variant TEXT NOT NULL,
    -- 処理結果（sent / skipped / failed）
    outcome TEXT NOT NULL,
    -- 結果の詳細（スキップ理由やエラー内容）
    detail TEXT NOT NULL DEFAULT '',
    -- 記録日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

-- スロット単位での調査を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_delivery_log_slot_id
    ON delivery_log(slot_id);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
