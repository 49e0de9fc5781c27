// 説教メタデータの取り込みコマンドのエントリポイント。
// スクレイパーが出力したsermon_metadata.jsonを読み込み、
// 全レコードを検証したうえでSQLiteストアの内容を置き換える。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/nao1215/pulpit/internal/sermon"
)

// metadataFile はsermon_metadata.jsonのトップレベルJSON構造。
type metadataFile struct {
	// Sermons は取り込む説教レコードの配列。
	Sermons []sermon.RecordInput `json:"sermons"`
}

func main() {
	var (
		dbPath   = flag.String("db", "/data/pulpit.db", "SQLiteデータベースのパス")
		jsonPath = flag.String("json", "sermon_metadata.json", "取り込むメタデータJSONのパス")
	)
	flag.Parse()

	data, err := os.ReadFile(*jsonPath)
	if err != nil {
		log.Fatalf("メタデータファイルの読み込みに失敗: %v", err)
	}

	var metadata metadataFile
	if err := json.Unmarshal(data, &metadata); err != nil {
		log.Fatalf("メタデータファイルの解析に失敗: %v", err)
	}

	records := make([]sermon.Record, 0, len(metadata.Sermons))
	for _, in := range metadata.Sermons {
		r, err := in.ToRecord()
		if err != nil {
			log.Fatalf("レコードの検証に失敗: %v", err)
		}
		records = append(records, r)
	}

	ctx := context.Background()
	store, err := sermon.OpenStore(ctx, *dbPath)
	if err != nil {
		log.Fatalf("レコードストアの初期化に失敗: %v", err)
	}
	defer store.Close()

	if err := store.ReplaceAll(ctx, records); err != nil {
		log.Fatalf("レコードの取り込みに失敗: %v", err)
	}

	log.Printf("%d件のレコードを取り込みました (db=%s)", len(records), *dbPath)
}
