package edge

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nao1215/edgerelay/internal/config"
	"github.com/nao1215/edgerelay/internal/journal"
	"github.com/nao1215/edgerelay/pkg/dispatch"
	"github.com/nao1215/edgerelay/pkg/logging"
	"github.com/nao1215/edgerelay/pkg/middleware"
	"github.com/nao1215/edgerelay/pkg/region"
	"github.com/nao1215/edgerelay/pkg/shard"
)

// Server はエッジルーターサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// authToken は公開境界のベアラートークン認証のシークレット。
	authToken string
	// target はプロセッサへの転送バインディング。
	target dispatch.Target
	// journal はルーティング決定の追記専用ジャーナル。
	journal *journal.Journal
}

// NewServer は新しいエッジルーターサーバーを生成する。
// ディスパッチバインディングは設定のDISPATCH_MODEに従って選択される。
func NewServer(cfg *config.Edge) (*Server, error) {
	var target dispatch.Target
	switch cfg.DispatchMode {
	case config.DispatchModeComms:
		nc, err := dispatch.Connect(cfg.CommsURL, "edgerelay-edge")
		if err != nil {
			return nil, err
		}
		target = dispatch.NewCommsTarget(nc)
	default:
		target = dispatch.NewHTTPTarget(cfg.ProcessorURLs(), cfg.InternalJWTSecret)
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return nil, err
	}

	return newServer(cfg, target, j), nil
}

// newServer はバインディングとジャーナルを注入してサーバーを組み立てる。
func newServer(cfg *config.Edge, target dispatch.Target, j *journal.Journal) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:    router,
		port:      cfg.Port,
		authToken: cfg.AuthToken,
		target:    target,
		journal:   j,
	}
	s.setupRoutes()

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Close はサーバーが保持するリソースを解放する。
func (s *Server) Close() error {
	return s.journal.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ヘルスチェック（認証不要）
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "edge"})
	})

	// ルーティングジャーナルの参照
	s.router.GET("/api/v1/journal", middleware.BearerAuth(s.authToken), s.handleJournal())

	// 上記以外のすべてのパス・メソッドは中継対象。パスはパターンを持たない
	// 不透明な値として扱うため、個別ルートではなくNoRouteで受ける。
	s.router.NoRoute(middleware.BearerAuth(s.authToken), s.handleRelay())
}

// handleRelay はリクエストを分類・ルーティングしてプロセッサへ転送するハンドラを返す。
func (s *Server) handleRelay() gin.HandlerFunc {
	return func(c *gin.Context) {
		level := logging.LevelFromHeader(c.GetHeader("X-Log-Level"))

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		regionHeader := c.GetHeader("X-CF-Region")
		code, known := region.FromHeader(regionHeader)
		if !known && regionHeader != "" {
			logging.Debugf(level, "[%s] 未知のリージョン %q を既定値 %s に置き換えた",
				requestID, regionHeader, code)
		}

		requestType := c.GetHeader("X-Request-Type")
		kind := region.KindFromHeader(requestType)

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディの読み取りに失敗しました"})
			return
		}

		desc := shard.Route(code, body)
		logging.Debugf(level, "[%s] ルーティング決定: region=%s shard=%d actor=%s kind=%s",
			requestID, desc.Region, desc.Shard, desc.ActorID, kind)

		start := time.Now()
		res, err := s.target.Send(c.Request.Context(), &dispatch.Request{
			RequestID:   requestID,
			Path:        c.Request.URL.Path,
			Body:        body,
			RequestType: requestType,
			LogLevel:    level,
			Target:      desc,
		})
		if err != nil {
			logging.Errorf("[%s] プロセッサへの転送に失敗: %v", requestID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "リクエストの転送に失敗しました"})
			s.record(c, requestID, desc, kind, http.StatusInternalServerError, start)
			return
		}

		contentType := res.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(res.Status, contentType, res.Body)
		s.record(c, requestID, desc, kind, res.Status, start)
	}
}

// record はルーティング決定をジャーナルに記録する。
// 記録の失敗はログに残すだけで、応答には影響させない。
func (s *Server) record(c *gin.Context, requestID string, desc shard.Descriptor, kind region.Kind, status int, start time.Time) {
	err := s.journal.Record(c.Request.Context(), journal.Entry{
		RequestID:   requestID,
		Region:      string(desc.Region),
		ShardIndex:  desc.Shard,
		ActorID:     desc.ActorID,
		RequestKind: kind.String(),
		Status:      status,
		DurationMS:  time.Since(start).Milliseconds(),
	})
	if err != nil {
		logging.Errorf("[%s] ジャーナルの記録に失敗: %v", requestID, err)
	}
}

// handleJournal は直近のルーティング決定を返すハンドラを返す。
func (s *Server) handleJournal() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 1000 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limitは1〜1000の整数である必要があります"})
				return
			}
			limit = n
		}

		entries, err := s.journal.Recent(c.Request.Context(), limit)
		if err != nil {
			logging.Errorf("ジャーナルの取得に失敗: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ジャーナルの取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}
