// Package proxy は汎用HTTPパススルー転送のリクエスト変換を提供する。
//
// 受信したパラメータリストを、HTTPメソッドに応じてクエリ文字列または
// JSONボディに配置した送信用リクエストへ変換する。
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// DefaultTimeout はタイムアウト未指定時の既定値（秒）。
// タイムアウトは参考値であり、コア自身は強制しない。
const DefaultTimeout = 30

// defaultUserAgent はUser-Agent未指定時に付与する識別文字列。
const defaultUserAgent = "ApiProxy/1.0"

// Method は転送に使用するHTTPメソッド（7種）を表す。
// ゼロ値はMethodPost（メソッド未指定時の既定値）。
type Method int

const (
	// MethodPost はPOST。未指定時の既定値。
	MethodPost Method = iota
	// MethodGet はGET。
	MethodGet
	// MethodPut はPUT。
	MethodPut
	// MethodDelete はDELETE。
	MethodDelete
	// MethodPatch はPATCH。
	MethodPatch
	// MethodHead はHEAD。
	MethodHead
	// MethodOptions はOPTIONS。
	MethodOptions
)

// methodNames はJSON上の小文字表記とメソッドの対応表。
var methodNames = map[string]Method{
	"get":     MethodGet,
	"post":    MethodPost,
	"put":     MethodPut,
	"delete":  MethodDelete,
	"patch":   MethodPatch,
	"head":    MethodHead,
	"options": MethodOptions,
}

// UnmarshalJSON は小文字のメソッド名（大文字小文字を区別しない）を解析する。
// 既知の7メソッド以外はエラーになる。
func (m *Method) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("HTTPメソッドの解析に失敗: %w", err)
	}
	method, ok := methodNames[strings.ToLower(s)]
	if !ok {
		return fmt.Errorf("未知のHTTPメソッド: %q（get, post, put, delete, patch, head, optionsのいずれか）", s)
	}
	*m = method
	return nil
}

// String は送信に使用する大文字のメソッド名を返す。
func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPut:
		return http.MethodPut
	case MethodDelete:
		return http.MethodDelete
	case MethodPatch:
		return http.MethodPatch
	case MethodHead:
		return http.MethodHead
	case MethodOptions:
		return http.MethodOptions
	default:
		return http.MethodPost
	}
}

// queryPlacement はパラメータをクエリ文字列に配置するメソッドかどうかを返す。
// GET・HEAD・DELETE以外はJSONオブジェクトのボディとして配置する。
func (m Method) queryPlacement() bool {
	return m == MethodGet || m == MethodHead || m == MethodDelete
}

// RequestData は汎用HTTP転送リクエストの入力スキーマを表す。
type RequestData struct {
	// URL はリクエストの送信先URL。
	URL string `json:"url"`
	// Method は転送に使用するHTTPメソッド。未指定時はPOST。
	Method Method `json:"method"`
	// Params はキーと値のペアで表されるリクエストパラメータ。
	Params map[string]string `json:"params"`
	// Headers は呼び出し元が指定するリクエストヘッダー。
	Headers map[string]string `json:"headers"`
	// Timeout はリクエストタイムアウト（秒）。参考値であり強制されない。
	Timeout uint64 `json:"timeout"`
}

// Decode はJSONボディを汎用HTTP転送リクエストとして解析する。
// urlは必須であり、欠けている場合はエラーを返す。
func Decode(body []byte) (*RequestData, error) {
	var data RequestData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	if data.URL == "" {
		return nil, fmt.Errorf("必須フィールドがありません: url")
	}
	if data.Timeout == 0 {
		data.Timeout = DefaultTimeout
	}
	return &data, nil
}

// BuildHeader は呼び出し元のヘッダーマップを検証してhttp.Headerを構築する。
// ワイヤーフォーマットとして不正な名前・値（制御文字など）は変換エラーに
// なり、黙って捨てられることはない。
func BuildHeader(headers map[string]string) (http.Header, error) {
	header := make(http.Header, len(headers))
	for key, value := range headers {
		if !httpguts.ValidHeaderFieldName(key) {
			return nil, fmt.Errorf("不正なヘッダー名: %q", key)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("不正なヘッダー値: %q（ヘッダー名: %s）", value, key)
		}
		header.Set(key, value)
	}
	return header, nil
}

// BuildRequest は汎用HTTP転送リクエストから送信用の*http.Requestを構築する。
// GET・HEAD・DELETEはパラメータをクエリ文字列に、それ以外のメソッドは
// JSONオブジェクトのボディとして配置する。呼び出し元のヘッダーが優先され、
// User-Agent未指定時のみ既定の識別文字列を付与する。
func BuildRequest(ctx context.Context, data *RequestData) (*http.Request, error) {
	header, err := BuildHeader(data.Headers)
	if err != nil {
		return nil, err
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", defaultUserAgent)
	}

	target := data.URL
	var body *bytes.Reader
	if data.Method.queryPlacement() {
		u, err := url.Parse(data.URL)
		if err != nil {
			return nil, fmt.Errorf("送信先URLの解析に失敗: %w", err)
		}
		query := u.Query()
		for key, value := range data.Params {
			query.Set(key, value)
		}
		u.RawQuery = query.Encode()
		target = u.String()
		body = bytes.NewReader(nil)
	} else {
		params := data.Params
		if params == nil {
			params = map[string]string{}
		}
		jsonBody, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("パラメータのシリアライズに失敗: %w", err)
		}
		body = bytes.NewReader(jsonBody)
		header.Set("Content-Type", "application/json")
	}

	req, err := http.NewRequestWithContext(ctx, data.Method.String(), target, body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header = header
	return req, nil
}
