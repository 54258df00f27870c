// 通知ディスパッチサービスのエントリポイント。
// スロット更新Webhookの受信と、UTC+14基準のスロット開始スケジュールの
// 2系統でプッシュ通知を配信する。slot → task → idea の参照を解決し、
// 通知許可済みのアイデア投稿者にのみ配信する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/slotpush/internal/dispatch"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8087"
	}

	server, err := dispatch.NewServer(port)
	if err != nil {
		log.Fatalf("ディスパッチサーバーの初期化に失敗: %v", err)
	}

	log.Printf("ディスパッチサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("ディスパッチサービスの起動に失敗: %v", err)
	}
}
