package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nao1215/edgerelay/pkg/logging"
	"github.com/nao1215/edgerelay/pkg/region"
	"github.com/nao1215/edgerelay/pkg/shard"
)

// Envelope はNATSバインディングでプロセッサへ渡すディスパッチ封筒。
type Envelope struct {
	// RequestID はログ相関用のリクエスト識別子。
	RequestID string `json:"request_id"`
	// Path は受信したリクエストの元のパス。
	Path string `json:"path"`
	// RequestType はX-Request-Typeヘッダーの原文。
	RequestType string `json:"request_type,omitempty"`
	// LogLevel は呼び出し元が指定したログレベル名。
	LogLevel string `json:"log_level"`
	// ActorID はルーティングで選択されたアクターの識別子。
	ActorID string `json:"actor_id"`
	// LocationHint は実行場所を固定するためのヒント文字列。
	LocationHint string `json:"location_hint"`
	// Body は受信したリクエストボディの生バイト列。
	Body []byte `json:"body"`
}

// ReplyEnvelope はプロセッサから返されるディスパッチ応答の封筒。
type ReplyEnvelope struct {
	// Status はHTTPステータスコード相当の値。
	Status int `json:"status"`
	// ContentType は応答のContent-Type。
	ContentType string `json:"content_type"`
	// Body は応答ボディ。
	Body []byte `json:"body"`
}

// Subject は実行先ディスクリプタに対応するNATSサブジェクトを返す。
// シャード番号までサブジェクトに含まれるため、同一ボディのリクエストは
// 常に同じサブジェクトへ届く。
func Subject(d shard.Descriptor) string {
	return fmt.Sprintf("processor.%s.%d", d.Region, d.Shard)
}

// SubscribeSubject はリージョンのプロセッサが購読するワイルドカードサブジェクトを返す。
func SubscribeSubject(code region.Code) string {
	return fmt.Sprintf("processor.%s.*", code)
}

// QueueGroup はリージョンのプロセッサが属するキューグループ名を返す。
func QueueGroup(code region.Code) string {
	return "processor-" + string(code)
}

// Connect は指定URLへのNATS接続を生成する。
// 切断・再接続はログに記録される。
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Errorf("NATS接続が切断された: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Infof("NATSへ再接続した: %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("NATSへの接続に失敗: %w", err)
	}

	logging.Infof("NATSへ接続した: %s", nc.ConnectedUrl())
	return nc, nil
}

// CommsTarget はNATSのリクエスト/リプライで転送するバインディング。
type CommsTarget struct {
	// nc はNATS接続。
	nc *nats.Conn
}

// NewCommsTarget は新しいNATSバインディングを生成する。
func NewCommsTarget(nc *nats.Conn) *CommsTarget {
	return &CommsTarget{nc: nc}
}

// Send はディスパッチ封筒をアクターのサブジェクトへ送信し、応答を待つ。
func (t *CommsTarget) Send(ctx context.Context, req *Request) (*Result, error) {
	env := Envelope{
		RequestID:    req.RequestID,
		Path:         req.Path,
		RequestType:  req.RequestType,
		LogLevel:     req.LogLevel.String(),
		ActorID:      req.Target.ActorID,
		LocationHint: req.Target.LocationHint,
		Body:         req.Body,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("ディスパッチ封筒のシリアライズに失敗: %w", err)
	}

	msg, err := t.nc.RequestWithContext(ctx, Subject(req.Target), data)
	if err != nil {
		return nil, fmt.Errorf("プロセッサへの転送に失敗: %w", err)
	}

	var reply ReplyEnvelope
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("プロセッサ応答の解析に失敗: %w", err)
	}

	return &Result{
		Status:      reply.Status,
		ContentType: reply.ContentType,
		Body:        reply.Body,
	}, nil
}
