// Package config は環境変数から読み込むサービス設定を提供する。
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/nao1215/edgerelay/pkg/region"
)

// ディスパッチバインディングのモード。
const (
	// DispatchModeHTTP はリージョンごとのプロセッサURLへのHTTP転送。既定値。
	DispatchModeHTTP = "http"
	// DispatchModeComms はNATSのリクエスト/リプライによる転送。
	DispatchModeComms = "nats"
)

// Edge はエッジルーターサービスの設定。
type Edge struct {
	// Port はサーバーのリッスンポート。
	Port string `envconfig:"PORT" default:"8080"`
	// AuthToken は公開境界のベアラートークン認証のシークレット。必須。
	AuthToken string `envconfig:"AUTH_TOKEN" required:"true"`
	// InternalJWTSecret はエッジ・プロセッサ間ホップの内部トークン署名鍵。
	InternalJWTSecret string `envconfig:"INTERNAL_JWT_SECRET" default:"dev-secret-key"`
	// DispatchMode はディスパッチバインディングのモード（http または nats）。
	DispatchMode string `envconfig:"DISPATCH_MODE" default:"http"`
	// CommsURL はNATSモード時の接続先URL。
	CommsURL string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	// JournalPath はルーティングジャーナルのSQLiteデータベースパス。
	JournalPath string `envconfig:"JOURNAL_DB_PATH" default:"/data/edge-journal.db"`
	// AllowedOrigins はCORSで許可するオリジンのリスト（カンマ区切り）。
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// リージョンごとのプロセッサのベースURL（HTTPモード時に使用）。
	ProcessorURLWNAM string `envconfig:"PROCESSOR_URL_WNAM" default:"http://localhost:18081"`
	ProcessorURLENAM string `envconfig:"PROCESSOR_URL_ENAM" default:"http://localhost:18082"`
	ProcessorURLWEUR string `envconfig:"PROCESSOR_URL_WEUR" default:"http://localhost:18083"`
	ProcessorURLEEUR string `envconfig:"PROCESSOR_URL_EEUR" default:"http://localhost:18084"`
	ProcessorURLAPAC string `envconfig:"PROCESSOR_URL_APAC" default:"http://localhost:18085"`
	ProcessorURLOC   string `envconfig:"PROCESSOR_URL_OC" default:"http://localhost:18086"`
	ProcessorURLAF   string `envconfig:"PROCESSOR_URL_AF" default:"http://localhost:18087"`
	ProcessorURLME   string `envconfig:"PROCESSOR_URL_ME" default:"http://localhost:18088"`
}

// LoadEdge は環境変数からエッジルーターの設定を読み込む。
func LoadEdge() (*Edge, error) {
	var c Edge
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("エッジ設定の読み込みに失敗: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate は設定値の妥当性を検査する。
func (c *Edge) validate() error {
	if c.DispatchMode != DispatchModeHTTP && c.DispatchMode != DispatchModeComms {
		return fmt.Errorf("DISPATCH_MODE は %q か %q である必要があります: %q",
			DispatchModeHTTP, DispatchModeComms, c.DispatchMode)
	}
	return nil
}

// ProcessorURLs はリージョンごとのプロセッサURLのマップを返す。
func (c *Edge) ProcessorURLs() map[region.Code]string {
	return map[region.Code]string{
		region.WNAM: c.ProcessorURLWNAM,
		region.ENAM: c.ProcessorURLENAM,
		region.WEUR: c.ProcessorURLWEUR,
		region.EEUR: c.ProcessorURLEEUR,
		region.APAC: c.ProcessorURLAPAC,
		region.OC:   c.ProcessorURLOC,
		region.AF:   c.ProcessorURLAF,
		region.ME:   c.ProcessorURLME,
	}
}

// Processor はリージョンプロセッササービスの設定。
type Processor struct {
	// Port はサーバーのリッスンポート。
	Port string `envconfig:"PORT" default:"8081"`
	// Region はこのプロセッサが担当するリージョンコード。
	Region string `envconfig:"REGION" default:"wnam"`
	// InternalJWTSecret はエッジからの内部トークンの検証鍵。
	InternalJWTSecret string `envconfig:"INTERNAL_JWT_SECRET" default:"dev-secret-key"`
	// DispatchMode はディスパッチバインディングのモード（http または nats）。
	DispatchMode string `envconfig:"DISPATCH_MODE" default:"http"`
	// CommsURL はNATSモード時の接続先URL。
	CommsURL string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
}

// LoadProcessor は環境変数からプロセッサの設定を読み込む。
func LoadProcessor() (*Processor, error) {
	var c Processor
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("プロセッサ設定の読み込みに失敗: %w", err)
	}
	if _, known := region.FromHeader(c.Region); !known {
		return nil, fmt.Errorf("REGION が既知のリージョンコードではありません: %q", c.Region)
	}
	if c.DispatchMode != DispatchModeHTTP && c.DispatchMode != DispatchModeComms {
		return nil, fmt.Errorf("DISPATCH_MODE は %q か %q である必要があります: %q",
			DispatchModeHTTP, DispatchModeComms, c.DispatchMode)
	}
	return &c, nil
}

// RegionCode は設定されたリージョンコードを返す。
func (c *Processor) RegionCode() region.Code {
	code, _ := region.FromHeader(c.Region)
	return code
}
