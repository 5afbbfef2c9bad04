// Package soap はレガシーSOAP統合向けのリクエスト変換を提供する。
//
// 受信側サーバーはワイヤーフォーマットと署名に敏感であり、
// NuSOAPクライアントが送信するバイト列と完全に一致するエンベロープを
// 生成する必要がある。パラメータの順序は互換性に影響するため、
// 受信した順序のまま保持される（マップ型で置き換えてはならない）。
package soap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultTimeout はタイムアウト未指定時の既定値（秒）。
// タイムアウトは参考値であり、コア自身は強制しない。
const DefaultTimeout = 30

// Param はSOAPパラメータの1件（キーと型付き値のペア）を表す。
// JSON上は [キー, 値] の2要素配列として受け取る。
type Param struct {
	// Key はパラメータ名。
	Key string
	// Value はパラメータ値。bool、json.Number、string、nilのいずれか。
	// それ以外のJSON形（オブジェクト・配列）もそのまま保持される。
	Value any
}

// UnmarshalJSON は [キー, 値] の2要素配列からパラメータを復元する。
// 数値はjson.Numberとして保持し、元の数値表記を失わないようにする。
func (p *Param) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("SOAPパラメータの解析に失敗: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("SOAPパラメータは [キー, 値] の2要素配列である必要があります: 要素数=%d", len(pair))
	}

	if err := json.Unmarshal(pair[0], &p.Key); err != nil {
		return fmt.Errorf("SOAPパラメータのキーの解析に失敗: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(pair[1]))
	dec.UseNumber()
	if err := dec.Decode(&p.Value); err != nil {
		return fmt.Errorf("SOAPパラメータの値の解析に失敗: %w", err)
	}
	return nil
}

// MarshalJSON はパラメータを [キー, 値] の2要素配列として書き出す。
func (p Param) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Value})
}

// RequestData はSOAP転送リクエストの入力スキーマを表す。
type RequestData struct {
	// URL はSOAPリクエストの送信先URL。
	URL string `json:"url"`
	// Action はSOAPアクション（メソッド）名。例: "getDIDCountry"。
	Action string `json:"action"`
	// Namespace はアクションのXML名前空間。例: "urn:getDIDCountry"。
	Namespace string `json:"namespace"`
	// Params は順序付きのパラメータリスト。受信順がそのまま出力順になる。
	Params []Param `json:"params"`
	// Headers は呼び出し元が指定するリクエストヘッダー。
	Headers map[string]string `json:"headers"`
	// Timeout はリクエストタイムアウト（秒）。参考値であり強制されない。
	Timeout uint64 `json:"timeout"`
}

// Decode はJSONボディをSOAP転送リクエストとして解析する。
// url・action・namespaceは必須であり、欠けている場合はエラーを返す。
func Decode(body []byte) (*RequestData, error) {
	var data RequestData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	if data.URL == "" {
		return nil, fmt.Errorf("必須フィールドがありません: url")
	}
	if data.Action == "" {
		return nil, fmt.Errorf("必須フィールドがありません: action")
	}
	if data.Namespace == "" {
		return nil, fmt.Errorf("必須フィールドがありません: namespace")
	}
	if data.Timeout == 0 {
		data.Timeout = DefaultTimeout
	}
	return &data, nil
}
