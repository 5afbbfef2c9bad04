// リージョンプロセッササービスのエントリポイント。
// エッジルーターから転送されたリクエストのプロトコル変換、上流呼び出し、
// レスポンス縮約を担当する。担当リージョンはREGION環境変数で決まり、
// 8リージョンすべてが同一バイナリで動作する。
package main

import (
	"log"

	"github.com/nao1215/edgerelay/internal/config"
	"github.com/nao1215/edgerelay/internal/processor"
	"github.com/nao1215/edgerelay/pkg/dispatch"
)

func main() {
	cfg, err := config.LoadProcessor()
	if err != nil {
		log.Fatalf("プロセッサの設定の読み込みに失敗: %v", err)
	}

	server := processor.NewServer(cfg)

	// NATSモードではHTTP境界に加えてディスパッチサブジェクトも購読する。
	if cfg.DispatchMode == config.DispatchModeComms {
		nc, err := dispatch.Connect(cfg.CommsURL, "edgerelay-processor-"+cfg.Region)
		if err != nil {
			log.Fatalf("NATSへの接続に失敗: %v", err)
		}
		defer nc.Close()

		if _, err := server.SubscribeComms(nc); err != nil {
			log.Fatalf("ディスパッチサブジェクトの購読に失敗: %v", err)
		}
	}

	log.Printf("プロセッササービスを起動します: :%s (region=%s)", cfg.Port, cfg.Region)
	if err := server.Run(); err != nil {
		log.Fatalf("プロセッササービスの起動に失敗: %v", err)
	}
}
