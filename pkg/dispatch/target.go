// Package dispatch はリージョン固定アクターへのリクエスト転送を提供する。
//
// エッジルーターはルーティング決定（ディスクリプタ）に従い、Targetインター
// フェースを通じてリクエストをアクターへ引き渡す。バインディングは
// HTTP（リージョンごとのプロセッサURLへ転送）とNATS（リクエスト/リプライ）
// の2種類があり、どちらを使うかは設定で切り替える。コアは特定の
// アクター基盤を前提としない。
package dispatch

import (
	"context"

	"github.com/nao1215/edgerelay/pkg/logging"
	"github.com/nao1215/edgerelay/pkg/shard"
)

// Request はアクターへ転送する1リクエスト分のデータを表す。
type Request struct {
	// RequestID はログ相関用のリクエスト識別子。
	RequestID string
	// Path は受信したリクエストの元のパス。転送先でも保持される。
	Path string
	// Body は受信したリクエストボディの生バイト列。
	Body []byte
	// RequestType はX-Request-Typeヘッダーの原文。空の場合は転送されない。
	RequestType string
	// LogLevel は呼び出し元が指定したログレベル。アクターにも伝播する。
	LogLevel logging.Level
	// Target はルーティングで決定された実行先。
	Target shard.Descriptor
}

// Result はアクターから返された生のHTTP応答を表す。
type Result struct {
	// Status はHTTPステータスコード。
	Status int
	// ContentType は応答のContent-Type。
	ContentType string
	// Body は応答ボディ。
	Body []byte
}

// Target はリージョン固定アクターへの転送境界を表す。
// 転送は1リクエストにつき1回のベストエフォートであり、リトライしない。
type Target interface {
	// Send はリクエストをアクターへ転送し、生の応答を返す。
	Send(ctx context.Context, req *Request) (*Result, error)
}
