// エッジルーターサービスのエントリポイント。
// ベアラートークン認証、リージョン・プロトコル分類、シャードルーティング、
// プロセッサへのディスパッチを担当する。外部からアクセス可能な唯一の
// サービスであり、セキュリティの境界線となる。
package main

import (
	"log"

	"github.com/nao1215/edgerelay/internal/config"
	"github.com/nao1215/edgerelay/internal/edge"
)

func main() {
	cfg, err := config.LoadEdge()
	if err != nil {
		log.Fatalf("エッジルーターの設定の読み込みに失敗: %v", err)
	}

	server, err := edge.NewServer(cfg)
	if err != nil {
		log.Fatalf("エッジルーターサーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	log.Printf("エッジルーターサービスを起動します: :%s (dispatch=%s)", cfg.Port, cfg.DispatchMode)
	if err := server.Run(); err != nil {
		log.Fatalf("エッジルーターサービスの起動に失敗: %v", err)
	}
}
