package dispatch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nao1215/edgerelay/pkg/logging"
	"github.com/nao1215/edgerelay/pkg/middleware"
	"github.com/nao1215/edgerelay/pkg/region"
	"github.com/nao1215/edgerelay/pkg/shard"
)

// TestHTTPTargetSend はHTTPバインディングの転送のテスト。
func TestHTTPTargetSend(t *testing.T) {
	t.Parallel()

	const internalSecret = "internal-test-secret"

	t.Run("パス・ボディ・メタデータヘッダーが転送される", func(t *testing.T) {
		t.Parallel()

		var gotReq *http.Request
		var gotBody []byte
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReq = r.Clone(context.Background())
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":200}`))
		}))
		t.Cleanup(backend.Close)

		target := NewHTTPTarget(map[region.Code]string{region.WEUR: backend.URL}, internalSecret)
		desc := shard.Route(region.WEUR, []byte(`{"url":"https://example.com"}`))
		res, err := target.Send(context.Background(), &Request{
			RequestID:   "req-42",
			Path:        "/v1/relay",
			Body:        []byte(`{"url":"https://example.com"}`),
			RequestType: "soap",
			LogLevel:    logging.LevelDebug,
			Target:      desc,
		})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		if gotReq.URL.Path != "/v1/relay" {
			t.Errorf("転送先パス = %q, want %q", gotReq.URL.Path, "/v1/relay")
		}
		if string(gotBody) != `{"url":"https://example.com"}` {
			t.Errorf("転送ボディ = %s", gotBody)
		}
		if got := gotReq.Header.Get("X-Request-Type"); got != "soap" {
			t.Errorf("X-Request-Type = %q, want soap", got)
		}
		if got := gotReq.Header.Get("X-Log-Level"); got != "debug" {
			t.Errorf("X-Log-Level = %q, want debug", got)
		}
		if got := gotReq.Header.Get("X-Request-ID"); got != "req-42" {
			t.Errorf("X-Request-ID = %q, want req-42", got)
		}
		if got := gotReq.Header.Get("X-Location-Hint"); got != "weur" {
			t.Errorf("X-Location-Hint = %q, want weur", got)
		}
		if res.Status != http.StatusOK {
			t.Errorf("Status = %d, want %d", res.Status, http.StatusOK)
		}
		if string(res.Body) != `{"status":200}` {
			t.Errorf("Body = %s", res.Body)
		}
	})

	t.Run("内部トークンはプロセッサ側で検証できる", func(t *testing.T) {
		t.Parallel()

		var gotAuth string
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(backend.Close)

		target := NewHTTPTarget(map[region.Code]string{region.WNAM: backend.URL}, internalSecret)
		desc := shard.Route(region.WNAM, []byte("body"))
		if _, err := target.Send(context.Background(), &Request{
			RequestID: "req-7", Path: "/", Body: []byte("body"), Target: desc,
		}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		tokenString, found := strings.CutPrefix(gotAuth, "Bearer ")
		if !found {
			t.Fatalf("Authorizationヘッダーの形式が不正: %q", gotAuth)
		}
		claims := &middleware.InternalClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(internalSecret), nil
		})
		if err != nil || !token.Valid {
			t.Fatalf("内部トークンの検証に失敗: %v", err)
		}
		if claims.ID != "req-7" {
			t.Errorf("claims.ID = %q, want req-7", claims.ID)
		}
		if claims.ActorID != desc.ActorID {
			t.Errorf("claims.ActorID = %q, want %q", claims.ActorID, desc.ActorID)
		}
	})

	t.Run("URL未設定のリージョンはエラー", func(t *testing.T) {
		t.Parallel()

		target := NewHTTPTarget(map[region.Code]string{}, internalSecret)
		desc := shard.Route(region.APAC, []byte("body"))
		if _, err := target.Send(context.Background(), &Request{
			RequestID: "r", Path: "/", Body: nil, Target: desc,
		}); err == nil {
			t.Error("URL未設定でエラーが返らない")
		}
	})

	t.Run("接続先に到達できない場合はエラー", func(t *testing.T) {
		t.Parallel()

		target := NewHTTPTarget(map[region.Code]string{region.OC: "http://127.0.0.1:1"}, internalSecret)
		desc := shard.Route(region.OC, []byte("body"))
		if _, err := target.Send(context.Background(), &Request{
			RequestID: "r", Path: "/", Body: nil, Target: desc,
		}); err == nil {
			t.Error("到達不能なプロセッサでエラーが返らない")
		}
	})
}
