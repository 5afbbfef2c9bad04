package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newAuthRouter はBearerAuthを適用したテスト用ルーターを生成する。
func newAuthRouter(secret string) *gin.Engine {
	router := gin.New()
	router.Use(BearerAuth(secret))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

// TestBearerAuth は公開境界のベアラートークン認証のテスト。
func TestBearerAuth(t *testing.T) {
	t.Parallel()

	const secret = "test-auth-token"

	t.Run("正しいトークンは通過する", func(t *testing.T) {
		t.Parallel()

		router := newAuthRouter(secret)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+secret)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("すべての失敗原因が同一の403応答になる", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			header string
			set    bool
		}{
			{name: "ヘッダーなし", set: false},
			{name: "Bearerプレフィックスなし", header: secret, set: true},
			{name: "別のスキーム", header: "Basic " + secret, set: true},
			{name: "トークン不一致", header: "Bearer wrong-token", set: true},
			{name: "空のトークン", header: "Bearer ", set: true},
			{name: "空のヘッダー値", header: "", set: true},
		}

		router := newAuthRouter(secret)
		var firstBody string
		for i, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				if tt.set {
					req.Header.Set("Authorization", tt.header)
				}
				router.ServeHTTP(w, req)

				if w.Code != http.StatusForbidden {
					t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusForbidden)
				}
				// 失敗原因によって応答が変わると判別オラクルになるため、
				// ボディも全ケースで一致していなければならない。
				if i == 0 {
					firstBody = w.Body.String()
				} else if w.Body.String() != firstBody {
					t.Errorf("応答ボディが原因によって異なる: %q vs %q", w.Body.String(), firstBody)
				}
			})
		}
	})

	t.Run("403応答はプレーンテキスト", func(t *testing.T) {
		t.Parallel()

		router := newAuthRouter(secret)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		router.ServeHTTP(w, req)

		if got := w.Body.String(); got != "Forbidden: Invalid or missing authentication token" {
			t.Errorf("ボディ = %q, want 固定メッセージ", got)
		}
	})
}
