package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/nao1215/edgerelay/pkg/middleware"
	"github.com/nao1215/edgerelay/pkg/region"
)

// HTTPTarget はリージョンごとのプロセッサURLへHTTPで転送するバインディング。
type HTTPTarget struct {
	// client は転送に使用するHTTPクライアント。タイムアウトは設定しない
	// （タイムアウトの強制は転送先の責務）。
	client *http.Client
	// urls はリージョンごとのプロセッサのベースURL。
	urls map[region.Code]string
	// internalSecret は内部トークンの署名用シークレット。
	internalSecret string
}

// NewHTTPTarget は新しいHTTPバインディングを生成する。
func NewHTTPTarget(urls map[region.Code]string, internalSecret string) *HTTPTarget {
	return &HTTPTarget{
		client:         &http.Client{},
		urls:           urls,
		internalSecret: internalSecret,
	}
}

// Send はリクエストを対象リージョンのプロセッサへ転送する。
// 元のパスを保持し、リクエスト種別・ログレベル・リクエストID・
// ロケーションヒントをヘッダーとして引き継ぐ。
func (t *HTTPTarget) Send(ctx context.Context, req *Request) (*Result, error) {
	base, ok := t.urls[req.Target.Region]
	if !ok || base == "" {
		return nil, fmt.Errorf("リージョン %s のプロセッサURLが設定されていません", req.Target.Region)
	}

	token, err := middleware.GenerateInternalToken(
		t.internalSecret, req.RequestID, string(req.Target.Region), req.Target.ActorID)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, base+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("転送リクエストの作成に失敗: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-Request-ID", req.RequestID)
	httpReq.Header.Set("X-Log-Level", req.LogLevel.String())
	httpReq.Header.Set("X-Actor-ID", req.Target.ActorID)
	httpReq.Header.Set("X-Location-Hint", req.Target.LocationHint)
	if req.RequestType != "" {
		httpReq.Header.Set("X-Request-Type", req.RequestType)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("プロセッサへの転送に失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("プロセッサ応答の読み取りに失敗: %w", err)
	}

	return &Result{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
