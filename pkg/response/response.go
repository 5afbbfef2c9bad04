// Package response は上流HTTPレスポンスの縮約（リダクション）を提供する。
//
// 成功レスポンス（2xx）はヘッダーとボディを保持した公開形へ、
// それ以外はステータスと理由句のみの最小形へ縮約する。失敗時の
// 上流ボディはデータ最小化のため、内容にかかわらず完全に破棄される。
package response

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SuccessData は上流が2xxを返した場合の公開レスポンスを表す。
type SuccessData struct {
	// Status は上流のHTTPステータスコード。
	Status int `json:"status"`
	// Headers は上流のレスポンスヘッダー（ヘッダー名ごとに先頭の値）。
	Headers map[string]string `json:"headers"`
	// Body は上流のレスポンスボディ。JSONとして解析できる場合はそのまま、
	// できない場合は生の文字列として保持する。
	Body any `json:"body"`
}

// ErrorData は上流が2xx以外を返した場合の公開レスポンスを表す。
// 上流のボディは含まれない。
type ErrorData struct {
	// Status は上流のHTTPステータスコード。
	Status int `json:"status"`
	// Message はステータスコードの標準理由句。
	Message string `json:"message"`
}

// APIResponse は縮約後の公開レスポンス（SuccessまたはErrorのどちらか一方）。
// JSON上はタグなしの合併型としてシリアライズされる。
type APIResponse struct {
	// Success は2xxの場合に設定される。
	Success *SuccessData
	// Error は2xx以外の場合に設定される。
	Error *ErrorData
}

// MarshalJSON は設定されている側のデータをそのままJSONとして書き出す。
func (r APIResponse) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(r.Error)
	}
	return json.Marshal(r.Success)
}

// Reduce は上流HTTPレスポンスを公開レスポンス形へ縮約する。
// ステータスが200〜299の場合はヘッダーとボディを保持し、
// それ以外の場合はボディを読み捨ててステータスと理由句のみを返す。
func Reduce(resp *http.Response) (*APIResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIResponse{Error: &ErrorData{
			Status:  resp.StatusCode,
			Message: reasonPhrase(resp.StatusCode),
		}}, nil
	}

	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	return &APIResponse{Success: &SuccessData{
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    reduceBody(body),
	}}, nil
}

// reduceBody はボディをJSONとして解析できる場合はそのまま保持し、
// できない場合は生の文字列として包む。
func reduceBody(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// reasonPhrase はステータスコードの標準理由句を返す。
// 標準理由句が定義されていない場合は "Unknown Status" を返す。
func reasonPhrase(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown Status"
}
