package dispatch

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/nao1215/slotpush/internal/docstore"
	"github.com/nao1215/slotpush/pkg/middleware"
	"github.com/nao1215/slotpush/pkg/push"
	"github.com/nao1215/slotpush/pkg/timeslot"
)

// Server はディスパッチサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// dispatcher は通知ディスパッチの本体。
	dispatcher *Dispatcher
	// scheduler はスロット開始通知の定時発火を担当する。
	scheduler *Scheduler
	// sender はプッシュゲートウェイへの送信クライアント。
	sender push.Sender
	// db はSQLiteデータベース接続。配信記録の参照に使う。
	db *sql.DB
}

// NewServer は新しいディスパッチサーバーを生成する。
// SQLiteデータベースの初期化、ドキュメントストアとディスパッチャの構築を行う。
func NewServer(port string) (*Server, error) {
	dbPath := os.Getenv("DISPATCH_DB_PATH")
	if dbPath == "" {
		dbPath = "/data/dispatch.db"
	}

	sqlDB, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	store, err := docstore.New(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("ドキュメントストアの初期化に失敗: %w", err)
	}

	gatewayURL := os.Getenv("PUSH_GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "http://localhost:8090"
	}
	sender := push.NewClient(gatewayURL)

	dispatcher, err := NewDispatcher(store, sender, sqlDB)
	if err != nil {
		return nil, fmt.Errorf("ディスパッチャの初期化に失敗: %w", err)
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))

	s := &Server{
		router:     router,
		port:       port,
		dispatcher: dispatcher,
		scheduler:  NewScheduler(dispatcher),
		sender:     sender,
		db:         sqlDB,
	}
	s.setupRoutes()

	return s, nil
}

// Run はスケジューラとHTTPサーバーを起動する。
func (s *Server) Run() error {
	s.scheduler.Start(context.Background())
	defer s.scheduler.Stop()
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	api := s.router.Group("/api/v1")
	{
		triggers := api.Group("/triggers")
		{
			// スロットドキュメント更新のWebhook
			triggers.POST("/slot-updated", s.handleSlotUpdated())
		}

		// 動作確認用のテスト通知（解決・重複排除を迂回する）
		api.GET("/test-notification", s.handleTestNotification())

		// 運用API（JWT認証必須）
		ops := api.Group("/ops")
		ops.Use(middleware.JWTAuth(jwtSecret))
		{
			// スロット開始通知の手動発火
			ops.POST("/slot-start/:slot", s.handleManualSlotStart())
			// 配信記録の一覧取得
			ops.GET("/deliveries", s.handleListDeliveries())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dispatcher"})
	})
}

// slotUpdatedRequest はスロット更新Webhookのリクエスト構造。
type slotUpdatedRequest struct {
	// SlotID は更新されたスロットのID（{date}_{slotName}）。
	SlotID string `json:"slot_id" binding:"required"`
	// Before は更新前のスロットドキュメント。
	Before docstore.Document `json:"before"`
	// After は更新後のスロットドキュメント。
	After docstore.Document `json:"after"`
}

// handleSlotUpdated はスロット更新Webhookを処理するハンドラを返す。
// ディスパッチの失敗でも200を返す。5xxを返すと呼び出し元のトリガー基盤が
// 再送し、処理済みの状態を二重処理するおそれがあるためである。
func (s *Server) handleSlotUpdated() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req slotUpdatedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		outcome := s.dispatcher.HandleSlotUpdated(c.Request.Context(), req.SlotID, req.Before, req.After)
		c.JSON(http.StatusOK, outcome)
	}
}

// handleTestNotification は指定トークンに固定のテスト通知を直接送信するハンドラを返す。
// 解決・重複排除のロジックを通らないため、配信経路の疎通確認のみに使う。
func (s *Server) handleTestNotification() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tokenパラメータが必要です"})
			return
		}

		msg := &push.Message{
			Token: token,
			Notification: push.Notification{
				Title: "Test Notification",
				Body:  "This is a test from Better Together!",
			},
		}
		if err := s.sender.Send(c.Request.Context(), msg); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("テスト通知の送信に失敗: %v", err)})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "テスト通知を送信しました"})
	}
}

// handleManualSlotStart はスロット開始通知を手動で発火させるハンドラを返す。
// スケジューラの発火失敗時や障害復旧後の再実行に使う。冪等なので何度呼んでもよい。
func (s *Server) handleManualSlotStart() gin.HandlerFunc {
	return func(c *gin.Context) {
		def, ok := timeslot.Lookup(timeslot.Name(c.Param("slot")))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "スロット名が不正です"})
			return
		}

		outcome := s.dispatcher.HandleSlotStart(c.Request.Context(), def)
		c.JSON(http.StatusOK, outcome)
	}
}

// deliveryResponse は配信記録のJSONレスポンス構造。
type deliveryResponse struct {
	// ID は配信記録の一意識別子。
	ID string `json:"id"`
	// SlotID は対象スロットのID。
	SlotID string `json:"slot_id"`
	// TaskID は対象タスクのID。
	TaskID string `json:"task_id"`
	// IdeaID は対象アイデアのID。
	IdeaID string `json:"idea_id"`
	// Variant は通知種別（scheduled / live / test）。
	Variant string `json:"variant"`
	// Outcome は処理結果（sent / skipped / failed）。
	Outcome string `json:"outcome"`
	// Detail は結果の詳細。
	Detail string `json:"detail"`
	// CreatedAt は記録日時。
	CreatedAt string `json:"created_at"`
}

// handleListDeliveries は直近の配信記録を新しい順に返すハンドラを返す。
func (s *Server) handleListDeliveries() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := s.db.QueryContext(c.Request.Context(),
			`SELECT id, slot_id, task_id, idea_id, variant, outcome, detail, created_at
			 FROM delivery_log
			 ORDER BY created_at DESC, id
			 LIMIT 100`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "配信記録の取得に失敗しました"})
			log.Printf("配信記録取得エラー: %v", err)
			return
		}
		defer rows.Close()

		deliveries := make([]deliveryResponse, 0)
		for rows.Next() {
			var d deliveryResponse
			if err := rows.Scan(&d.ID, &d.SlotID, &d.TaskID, &d.IdeaID, &d.Variant, &d.Outcome, &d.Detail, &d.CreatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "配信記録の読み取りに失敗しました"})
				log.Printf("配信記録読み取りエラー: %v", err)
				return
			}
			deliveries = append(deliveries, d)
		}
		if err := rows.Err(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "配信記録の読み取りに失敗しました"})
			log.Printf("配信記録読み取りエラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, deliveries)
	}
}
