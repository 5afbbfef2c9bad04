package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/edgerelay/pkg/logging"
)

// forbiddenBody は認証失敗時の応答ボディ。失敗原因にかかわらず固定。
const forbiddenBody = "Forbidden: Invalid or missing authentication token"

// BearerAuth は公開境界のベアラートークン認証を行うGinミドルウェアを返す。
//
// Authorization: Bearer <トークン> のトークンがexpectedSecretと完全一致した
// 場合のみ通過させる。ヘッダーの欠落・形式不正・トークン不一致はすべて
// 同一の403応答に畳み込まれる。失敗原因の違いを外部応答に反映させると
// 攻撃者に判別オラクルを与えてしまうため、原因はログにのみ記録する。
func BearerAuth(expectedSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logging.Infof("認証失敗: Authorizationヘッダーがない")
			forbid(c)
			return
		}

		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			logging.Infof("認証失敗: Authorizationヘッダーの形式が不正")
			forbid(c)
			return
		}

		if token != expectedSecret {
			logging.Infof("認証失敗: トークンが一致しない")
			forbid(c)
			return
		}

		c.Next()
	}
}

// forbid は原因によらず同一の403応答を返してパイプラインを打ち切る。
func forbid(c *gin.Context) {
	c.String(http.StatusForbidden, forbiddenBody)
	c.Abort()
}
