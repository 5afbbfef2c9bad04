package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// InternalClaims はエッジ・プロセッサ間ホップの内部トークンのクレームを表す。
// ルーティング決定（リージョンとアクターID）をプロセッサまで伝播するために使用する。
type InternalClaims struct {
	jwt.RegisteredClaims
	// Region は転送先リージョンコード。
	Region string `json:"region"`
	// ActorID はルーティングで選択されたアクターの識別子。
	ActorID string `json:"actor_id"`
}

// internalTokenTTL は内部トークンの有効期間。ホップ1回分だけ有効であればよい。
const internalTokenTTL = 5 * time.Minute

// contextKeyRequestID は検証済みリクエストIDをGinコンテキストに格納するキー。
const contextKeyRequestID = "request_id"

// GenerateInternalToken はエッジ・プロセッサ間ホップの内部トークンを生成する。
// エッジルーターがディスパッチ直前に呼び出す。
func GenerateInternalToken(secret, requestID, region, actorID string) (string, error) {
	claims := InternalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        requestID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(internalTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "edgerelay-edge",
		},
		Region:  region,
		ActorID: actorID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("内部トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// InternalAuth は内部トークンを検証するGinミドルウェアを返す。
// プロセッサのHTTP境界で使用し、エッジルーター以外からの呼び出しを遮断する。
// 検証に成功した場合、コンテキストに "request_id" を設定する。
func InternalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "内部トークンが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "内部トークンの形式が不正です",
			})
			return
		}

		claims := &InternalClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "内部トークンが無効です",
			})
			return
		}

		c.Set(contextKeyRequestID, claims.ID)
		c.Next()
	}
}

// GetRequestID はGinコンテキストから検証済みリクエストIDを取得する。
// InternalAuthミドルウェアが事前に適用されている必要がある。
func GetRequestID(c *gin.Context) string {
	requestID, _ := c.Get(contextKeyRequestID)
	if id, ok := requestID.(string); ok {
		return id
	}
	return ""
}
