// Package region はリクエストの分類（対象リージョンとプロトコル種別）を提供する。
//
// X-CF-Regionヘッダーから8つの既知リージョンのいずれかを導出し、
// X-Request-Typeヘッダーから転送プロトコル（SOAP/汎用HTTP）を導出する。
// どちらも副作用のない全域関数であり、未知の値には既定値を返す。
package region

import "strings"

// Code は8つのシンボリックリージョンのいずれかを表す。
type Code string

const (
	// WNAM は北アメリカ西部を表す。
	WNAM Code = "wnam"
	// ENAM は北アメリカ東部を表す。
	ENAM Code = "enam"
	// WEUR はヨーロッパ西部を表す。EU管轄区域。
	WEUR Code = "weur"
	// EEUR はヨーロッパ東部を表す。EU管轄区域。
	EEUR Code = "eeur"
	// APAC はアジア太平洋を表す。
	APAC Code = "apac"
	// OC はオセアニアを表す。
	OC Code = "oc"
	// AF はアフリカを表す。
	AF Code = "af"
	// ME は中東を表す。
	ME Code = "me"
)

// Default は未知のリージョン値に対する既定リージョン（北アメリカ西部）。
const Default = WNAM

// String はリージョンコードを文字列として返す。
func (c Code) String() string { return string(c) }

// Config はリージョンに紐づく実行先の固定設定を表す。
type Config struct {
	// Namespace はリージョン専用アクターの名前空間ID。
	Namespace string
	// LocationHint は実行場所を物理リージョンに固定するためのヒント文字列。
	LocationHint string
	// IsEU はEU管轄区域（GDPR対象）かどうか。
	IsEU bool
}

// configs は8リージョン分の固定テーブル。リージョンごとの挙動はすべて
// このテーブルで決まり、アクター実装自体はリージョンに依存しない。
var configs = map[Code]Config{
	WNAM: {Namespace: "WNAM_PROCESSOR", LocationHint: "wnam", IsEU: false},
	ENAM: {Namespace: "ENAM_PROCESSOR", LocationHint: "enam", IsEU: false},
	WEUR: {Namespace: "WEUR_PROCESSOR", LocationHint: "weur", IsEU: true},
	EEUR: {Namespace: "EEUR_PROCESSOR", LocationHint: "eeur", IsEU: true},
	APAC: {Namespace: "APAC_PROCESSOR", LocationHint: "apac", IsEU: false},
	OC:   {Namespace: "OC_PROCESSOR", LocationHint: "oc", IsEU: false},
	AF:   {Namespace: "AF_PROCESSOR", LocationHint: "af", IsEU: false},
	ME:   {Namespace: "ME_PROCESSOR", LocationHint: "me", IsEU: false},
}

// Config はリージョンの固定設定を返す。
func (c Code) Config() Config { return configs[c] }

// All は既知の8リージョンをすべて返す。
func All() []Code {
	return []Code{WNAM, ENAM, WEUR, EEUR, APAC, OC, AF, ME}
}

// FromHeader はX-CF-Regionヘッダーの値をリージョンコードにマッピングする。
// 大文字小文字を区別せず、既知の8コード以外はすべてDefaultを返す。
// 戻り値のknownは既知コードにマッチしたかどうかを表す。
func FromHeader(value string) (code Code, known bool) {
	c := Code(strings.ToLower(value))
	if _, ok := configs[c]; ok {
		return c, true
	}
	return Default, false
}

// Kind は転送プロトコルの種別を表す。
type Kind int

const (
	// KindHTTP は汎用HTTPプロキシ転送を表す。既定値。
	KindHTTP Kind = iota
	// KindSOAP はレガシーSOAP統合向けの転送を表す。
	KindSOAP
)

// String はプロトコル種別を文字列として返す。
func (k Kind) String() string {
	if k == KindSOAP {
		return "soap"
	}
	return "http"
}

// KindFromHeader はX-Request-Typeヘッダーの値からプロトコル種別を導出する。
// "soap"（大文字小文字を区別しない）以外はすべてKindHTTPになる。
func KindFromHeader(value string) Kind {
	if strings.EqualFold(value, "soap") {
		return KindSOAP
	}
	return KindHTTP
}
