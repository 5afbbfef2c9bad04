package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/edgerelay/internal/config"
	"github.com/nao1215/edgerelay/pkg/logging"
	"github.com/nao1215/edgerelay/pkg/middleware"
	"github.com/nao1215/edgerelay/pkg/proxy"
	"github.com/nao1215/edgerelay/pkg/region"
	"github.com/nao1215/edgerelay/pkg/response"
	"github.com/nao1215/edgerelay/pkg/soap"
)

// Server はプロセッササービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// region はこのプロセッサが担当するリージョン。
	region region.Code
	// client は上流サーバーへの呼び出しに使用するHTTPクライアント。
	// リクエストのタイムアウト値は参考値として受け取るだけで強制しない。
	client *http.Client
}

// NewServer は新しいプロセッササーバーを生成する。
func NewServer(cfg *config.Processor) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router: router,
		port:   cfg.Port,
		region: cfg.RegionCode(),
		client: &http.Client{},
	}
	s.setupRoutes(cfg.InternalJWTSecret)

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Region はこのプロセッサが担当するリージョンを返す。
func (s *Server) Region() region.Code {
	return s.region
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(internalSecret string) {
	// ヘルスチェック（認証不要）
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "processor",
			"region":  s.region,
		})
	})

	// 上記以外のすべてのパスは処理対象。エッジルーターは元のパスを
	// 保持したまま転送してくるため、パスのパターンは仮定しない。
	s.router.NoRoute(middleware.InternalAuth(internalSecret), s.handleProcess())
}

// handleProcess はエッジルーターから転送されたリクエストを処理するハンドラを返す。
func (s *Server) handleProcess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "POSTのみ受け付けます"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディの読み取りに失敗しました"})
			return
		}

		level := logging.LevelFromHeader(c.GetHeader("X-Log-Level"))
		requestID := middleware.GetRequestID(c)

		status, payload := s.process(c.Request.Context(), c.GetHeader("X-Request-Type"), body, level, requestID)
		c.Data(status, "application/json", payload)
	}
}

// process は転送されたリクエスト1件を処理し、ステータスとJSONボディを返す。
// HTTP境界とNATS境界の双方から呼ばれる共通経路。
//
// 上流サーバーが論理的なエラー（2xx以外）を返した場合も、縮約された
// エラーボディを載せた200を返す。500になるのは変換や上流呼び出し自体が
// 失敗した場合だけである。
func (s *Server) process(ctx context.Context, requestType string, body []byte, level logging.Level, requestID string) (int, []byte) {
	kind := region.KindFromHeader(requestType)
	logging.Debugf(level, "[%s] 処理開始: region=%s kind=%s bodyLen=%d",
		requestID, s.region, kind, len(body))

	var upstreamReq *http.Request
	switch kind {
	case region.KindSOAP:
		data, err := soap.Decode(body)
		if err != nil {
			logging.Infof("[%s] SOAPリクエストの解析に失敗: %v", requestID, err)
			return http.StatusBadRequest, errorBody(fmt.Sprintf("リクエストの解析に失敗しました: %v", err))
		}
		upstreamReq, err = soap.BuildRequest(ctx, data)
		if err != nil {
			logging.Errorf("[%s] SOAPリクエストの構築に失敗: %v", requestID, err)
			return http.StatusInternalServerError, errorBody("SOAPリクエストの構築に失敗しました")
		}
	default:
		data, err := proxy.Decode(body)
		if err != nil {
			logging.Infof("[%s] HTTPリクエストの解析に失敗: %v", requestID, err)
			return http.StatusBadRequest, errorBody(fmt.Sprintf("リクエストの解析に失敗しました: %v", err))
		}
		upstreamReq, err = proxy.BuildRequest(ctx, data)
		if err != nil {
			logging.Errorf("[%s] HTTPリクエストの構築に失敗: %v", requestID, err)
			return http.StatusInternalServerError, errorBody("HTTPリクエストの構築に失敗しました")
		}
	}

	logging.Debugf(level, "[%s] 上流呼び出し: %s %s", requestID, upstreamReq.Method, upstreamReq.URL)

	resp, err := s.client.Do(upstreamReq)
	if err != nil {
		logging.Errorf("[%s] 上流サーバーの呼び出しに失敗: %v", requestID, err)
		return http.StatusInternalServerError, errorBody("上流サーバーの呼び出しに失敗しました")
	}
	defer resp.Body.Close()

	api, err := response.Reduce(resp)
	if err != nil {
		logging.Errorf("[%s] レスポンスの縮約に失敗: %v", requestID, err)
		return http.StatusInternalServerError, errorBody("レスポンスの読み取りに失敗しました")
	}

	payload, err := json.Marshal(api)
	if err != nil {
		logging.Errorf("[%s] レスポンスのシリアライズに失敗: %v", requestID, err)
		return http.StatusInternalServerError, errorBody("レスポンスのシリアライズに失敗しました")
	}

	logging.Debugf(level, "[%s] 処理完了: upstreamStatus=%d", requestID, resp.StatusCode)
	return http.StatusOK, payload
}

// errorBody はエラーメッセージをJSONボディとして書き出す。
func errorBody(message string) []byte {
	payload, _ := json.Marshal(map[string]string{"error": message})
	return payload
}
