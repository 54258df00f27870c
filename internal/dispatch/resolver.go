package dispatch

import (
	"context"
	"errors"
	"log"

	"github.com/nao1215/slotpush/internal/docstore"
	"github.com/nao1215/slotpush/pkg/timeslot"
)

// コレクション名。
const (
	collectionSlots = "slots"
	collectionTasks = "tasks"
	collectionIdeas = "ideas"
)

// Reason はスロット解決の結果を表す。
type Reason string

const (
	// ReasonResolved は解決に成功したことを表す。
	ReasonResolved Reason = "resolved"
	// ReasonNoTask はスロットが存在しないか、タスクが未割り当てであることを表す。
	ReasonNoTask Reason = "no-task"
	// ReasonTaskMissing は参照先のタスクが存在しないことを表す。
	ReasonTaskMissing Reason = "task-missing"
	// ReasonNotUserSubmitted はタスクがユーザー投稿のアイデア由来でないことを表す。
	ReasonNotUserSubmitted Reason = "not-user-submitted"
	// ReasonIdeaMissing は参照先のアイデアが存在しないことを表す。
	ReasonIdeaMissing Reason = "idea-missing"
	// ReasonNoOptIn はアイデアにFCMトークンがなく、通知が許可されていないことを表す。
	ReasonNoOptIn Reason = "no-opt-in"
	// ReasonStoreError はドキュメントストアへのアクセスに失敗したことを表す。
	ReasonStoreError Reason = "store-error"
)

// Store はディスパッチが必要とするドキュメントストア操作。
type Store interface {
	// Get は指定コレクションからドキュメントを取得する。
	Get(ctx context.Context, collection, id string) (docstore.Document, error)
	// UpdateIfAbsent はguardFieldが未設定の場合のみフィールドをマージする。
	UpdateIfAbsent(ctx context.Context, collection, id, guardField string, fields docstore.Document) (bool, error)
}

// Resolution は slot → task → idea の解決結果。
type Resolution struct {
	// SlotID は対象スロットのID（{date}_{slotName}）。
	SlotID string
	// Date はスロットの日付（YYYY-MM-DD）。
	Date string
	// SlotName はスロット名。
	SlotName timeslot.Name
	// TaskID はスロットに割り当てられたタスクのID。
	TaskID string
	// Headline はタスクの見出し。通知本文にはアイデアの原文ではなくこちらを使う。
	Headline string
	// IdeaID はタスクの由来となったアイデアのID。
	IdeaID string
	// Token はアイデア投稿者のFCM登録トークン。
	Token string
	// Nickname はアイデア投稿者の表示名。
	Nickname string
	// Idea はアイデアドキュメント本体。送信済みフラグの判定に使う。
	Idea docstore.Document
}

// Resolver は slot → task → idea の3段階参照を解決する。
type Resolver struct {
	// store はドキュメントストア。
	store Store
}

// NewResolver は新しいResolverを生成する。
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve はスロットIDから3段階参照を解決する。
// 各段階の欠損は異常ではなく、理由つきの終端として返す。リトライは行わない。
func (r *Resolver) Resolve(ctx context.Context, slotID string) (*Resolution, Reason) {
	slot, err := r.store.Get(ctx, collectionSlots, slotID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ReasonNoTask
	}
	if err != nil {
		log.Printf("[Resolver] スロットの取得に失敗: slot=%s: %v", slotID, err)
		return nil, ReasonStoreError
	}

	taskID, ok := docstore.Str(slot, "taskId")
	if !ok {
		return nil, ReasonNoTask
	}
	return r.ResolveTask(ctx, slotID, taskID)
}

// ResolveTask はスロットの取得を省略し、割り当て済みタスクIDから参照を解決する。
// リアクティブ経路ではWebhookが更新後のスロットドキュメントを渡してくるため、
// ストア上のスロットを読み直さずに済む。
func (r *Resolver) ResolveTask(ctx context.Context, slotID, taskID string) (*Resolution, Reason) {
	task, err := r.store.Get(ctx, collectionTasks, taskID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ReasonTaskMissing
	}
	if err != nil {
		log.Printf("[Resolver] タスクの取得に失敗: task=%s: %v", taskID, err)
		return nil, ReasonStoreError
	}

	ideaID, ok := docstore.Str(task, "ideaId")
	if !ok {
		// 運営起点のタスクなど、ユーザー投稿由来でないタスクは通知対象外
		return nil, ReasonNotUserSubmitted
	}

	idea, err := r.store.Get(ctx, collectionIdeas, ideaID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ReasonIdeaMissing
	}
	if err != nil {
		log.Printf("[Resolver] アイデアの取得に失敗: idea=%s: %v", ideaID, err)
		return nil, ReasonStoreError
	}

	token, ok := docstore.Str(idea, "fcmToken")
	if !ok {
		return nil, ReasonNoOptIn
	}

	date, slotName, err := timeslot.ParseID(slotID)
	if err != nil {
		date = slotID
	}
	headline, _ := docstore.Str(task, "headline")
	nickname, _ := docstore.Str(idea, "nickname")

	return &Resolution{
		SlotID:   slotID,
		Date:     date,
		SlotName: slotName,
		TaskID:   taskID,
		Headline: headline,
		IdeaID:   ideaID,
		Token:    token,
		Nickname: nickname,
		Idea:     idea,
	}, ReasonResolved
}
