package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// スキーマ定義。全コレクションを1テーブルに格納する。
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    -- コレクション名（slots / tasks / ideas）
    collection TEXT NOT NULL,
    -- ドキュメントID
    id TEXT NOT NULL,
    -- ドキュメント本体（JSONオブジェクト）
    fields TEXT NOT NULL,
    -- 最終更新日時
    updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (collection, id)
);
`

// ErrNotFound は対象のドキュメントが存在しないことを表す。
var ErrNotFound = errors.New("ドキュメントが見つかりません")

// Document はドキュメントのフィールド集合。
type Document map[string]any

// Store はSQLiteに永続化するドキュメントストア。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// New は既存のデータベース接続からストアを生成し、スキーマを適用する。
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// Get は指定コレクションからドキュメントを取得する。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	var fields string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ドキュメントの取得に失敗: %w", err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(fields), &doc); err != nil {
		return nil, fmt.Errorf("ドキュメントの解析に失敗: %w", err)
	}
	return doc, nil
}

// Set はドキュメント全体を書き込む。既存のドキュメントは置き換えられる。
func (s *Store) Set(ctx context.Context, collection, id string, doc Document) error {
	fields, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("ドキュメントのシリアライズに失敗: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET fields = excluded.fields, updated_at = datetime('now')`,
		collection, id, string(fields),
	)
	if err != nil {
		return fmt.Errorf("ドキュメントの書き込みに失敗: %w", err)
	}
	return nil
}

// Update は既存のドキュメントにフィールドをマージする。
// 対象が存在しない場合はErrNotFoundを返す。
func (s *Store) Update(ctx context.Context, collection, id string, fields Document) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("更新フィールドのシリアライズに失敗: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE documents
		 SET fields = json_patch(fields, ?), updated_at = datetime('now')
		 WHERE collection = ? AND id = ?`,
		string(patch), collection, id,
	)
	if err != nil {
		return fmt.Errorf("ドキュメントの更新に失敗: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIfAbsent はguardFieldがまだtrueでない場合に限りフィールドをマージする。
// 単一のUPDATE文で判定と書き込みを行うため、同一ドキュメントへの並行呼び出しでも
// 書き込みは1回しか成功しない。書き込みが行われたかどうかを返す。
func (s *Store) UpdateIfAbsent(ctx context.Context, collection, id, guardField string, fields Document) (bool, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return false, fmt.Errorf("更新フィールドのシリアライズに失敗: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE documents
		 SET fields = json_patch(fields, ?), updated_at = datetime('now')
		 WHERE collection = ? AND id = ?
		   AND IFNULL(json_extract(fields, ?), 0) != 1`,
		string(patch), collection, id, "$."+guardField,
	)
	if err != nil {
		return false, fmt.Errorf("ドキュメントの条件付き更新に失敗: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の取得に失敗: %w", err)
	}
	return affected > 0, nil
}

// Str はドキュメントから文字列フィールドを取り出す。
// フィールドが欠損・null・空文字・文字列以外の場合はfalseを返す。
// 参照フィールド（taskId / ideaId / fcmToken）の「未設定」を統一的に判定する。
func Str(doc Document, key string) (string, bool) {
	v, ok := doc[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Bool はドキュメントから真偽値フィールドを取り出す。
// フィールドが欠損・null・真偽値以外の場合はfalseを返す。
func Bool(doc Document, key string) bool {
	v, ok := doc[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
