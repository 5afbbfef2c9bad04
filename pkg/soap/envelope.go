package soap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/nao1215/edgerelay/pkg/proxy"
)

// nsPrefix はアクション要素に付与するXML名前空間プレフィックス。
// NuSOAPが生成する形式と一致させるためにns1766を使用する。
const nsPrefix = "ns1766"

// 固定の送信ヘッダー。NuSOAPクライアントと完全に一致させる必要があり、
// 呼び出し元のヘッダーで上書きすることはできない。
const (
	fixedContentType = "text/xml; charset=ISO-8859-1"
	fixedSOAPAction  = `""`
	fixedUserAgent   = "NuSOAP/0.9.17 (1.123)"
)

// envelopeOpen はエンベロープの固定ボイラープレート（Body直前まで）。
// 改行を含めてはならない。
const envelopeOpen = `<?xml version="1.0" encoding="ISO-8859-1"?>` +
	`<SOAP-ENV:Envelope SOAP-ENV:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"` +
	` xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/"` +
	` xmlns:xsd="http://www.w3.org/2001/XMLSchema"` +
	` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"` +
	` xmlns:SOAP-ENC="http://schemas.xmlsoap.org/soap/encoding/"><SOAP-ENV:Body>`

// envelopeClose はエンベロープの閉じタグ。
const envelopeClose = `</SOAP-ENV:Body></SOAP-ENV:Envelope>`

// BuildEnvelope はSOAPエンベロープ全体を1行の文字列として構築する。
// パラメータは入力順のまま、型ヒント付きの要素として出力される。
func BuildEnvelope(action, namespace string, params []Param) string {
	var b strings.Builder
	b.WriteString(envelopeOpen)

	b.WriteString("<" + nsPrefix + ":" + action + ` xmlns:` + nsPrefix + `="` + namespace + `">`)
	for _, p := range params {
		key := elementKey(p.Key)
		typeHint, value := encodeValue(p.Value)
		b.WriteString(`<` + key + ` xsi:type="` + typeHint + `">` + value + `</` + key + `>`)
	}
	b.WriteString("</" + nsPrefix + ":" + action + ">")

	b.WriteString(envelopeClose)
	return b.String()
}

// elementKey はパラメータ名をXML要素名に変換する。
// 数字のみで構成されるキーはNuSOAPと同様に __numeric_<キー> に書き換える。
// この書き換えはトップレベルのパラメータ名にのみ適用される。
func elementKey(key string) string {
	for _, r := range key {
		if !unicode.IsDigit(r) {
			return key
		}
	}
	return "__numeric_" + key
}

// encodeValue はパラメータ値の型ヒントと文字列表現を返す。
func encodeValue(value any) (typeHint, text string) {
	switch v := value.(type) {
	case bool:
		if v {
			return "xsd:boolean", "true"
		}
		return "xsd:boolean", "false"
	case json.Number:
		return "xsd:int", v.String()
	case string:
		return "xsd:string", escapeEntities(v)
	case nil:
		return "xsd:string", ""
	default:
		// オブジェクト・配列などはコンパクトなJSON文字列として出力する。
		return "xsd:string", marshalCompact(v)
	}
}

// entityReplacer はSOAPパラメータ値のHTMLエンティティ置換器。
var entityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escapeEntities は文字列値を & < > " ' についてHTMLエンティティ化する。
func escapeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// marshalCompact は値をHTMLエスケープなしのコンパクトなJSONに変換する。
// 標準のjson.Marshalは < > & を\uXXXXに置き換えてしまうため使えない。
func marshalCompact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// BuildRequest はSOAP転送リクエストから送信用の*http.Requestを構築する。
// 呼び出し元のヘッダーを検証・マージした後、NuSOAP互換の固定ヘッダーで
// Content-Type・SOAPAction・User-Agentを上書きする。
func BuildRequest(ctx context.Context, data *RequestData) (*http.Request, error) {
	header, err := proxy.BuildHeader(data.Headers)
	if err != nil {
		return nil, err
	}

	header.Set("Content-Type", fixedContentType)
	header.Set("SOAPAction", fixedSOAPAction)
	header.Set("User-Agent", fixedUserAgent)

	envelope := BuildEnvelope(data.Action, data.Namespace, data.Params)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, data.URL, strings.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("SOAPリクエストの作成に失敗: %w", err)
	}
	req.Header = header
	return req, nil
}
