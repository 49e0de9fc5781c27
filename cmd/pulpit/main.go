// 説教アーカイブサーバーのエントリポイント。
// SQLiteストアを初期化し、検索・テーマ・統計の閲覧APIと
// 取り込み用の内部APIを提供する。
package main

import (
	"context"
	"log"
	"os"

	"github.com/nao1215/pulpit/internal/sermon"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "/data/pulpit.db"
	}

	store, err := sermon.OpenStore(context.Background(), dbPath)
	if err != nil {
		log.Fatalf("レコードストアの初期化に失敗: %v", err)
	}
	defer store.Close()

	server := sermon.NewServer(port, store)

	log.Printf("説教アーカイブサーバーを起動します: :%s (db=%s, %d件)", port, dbPath, len(store.Records()))
	if err := server.Run(); err != nil {
		log.Fatalf("説教アーカイブサーバーの起動に失敗: %v", err)
	}
}
