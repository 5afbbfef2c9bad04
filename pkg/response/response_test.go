package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newResponse はテスト用の*http.Responseを生成する。
func newResponse(t *testing.T, status int, headers map[string]string, body string) *http.Response {
	t.Helper()

	rec := httptest.NewRecorder()
	for k, v := range headers {
		rec.Header().Set(k, v)
	}
	rec.WriteHeader(status)
	if _, err := rec.WriteString(body); err != nil {
		t.Fatalf("テスト用レスポンスの構築に失敗: %v", err)
	}
	return rec.Result()
}

// TestReduce は上流レスポンス縮約のテスト。
func TestReduce(t *testing.T) {
	t.Parallel()

	t.Run("2xxはステータス・ヘッダー・ボディを保持する", func(t *testing.T) {
		t.Parallel()

		resp := newResponse(t, 201, map[string]string{"Content-Type": "application/json"}, `{"a":1}`)
		got, err := Reduce(resp)
		if err != nil {
			t.Fatalf("Reduce() error = %v", err)
		}
		if got.Error != nil {
			t.Fatalf("Errorが設定されている: %+v", got.Error)
		}
		if got.Success.Status != 201 {
			t.Errorf("Status = %d, want 201", got.Success.Status)
		}
		if ct := got.Success.Headers["Content-Type"]; ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		raw, ok := got.Success.Body.(json.RawMessage)
		if !ok {
			t.Fatalf("Body = %T, want json.RawMessage", got.Success.Body)
		}
		if string(raw) != `{"a":1}` {
			t.Errorf("Body = %s, want %s", raw, `{"a":1}`)
		}
	})

	t.Run("JSONとして解析できないボディは生文字列として包む", func(t *testing.T) {
		t.Parallel()

		resp := newResponse(t, 200, nil, "<xml>not json</xml>")
		got, err := Reduce(resp)
		if err != nil {
			t.Fatalf("Reduce() error = %v", err)
		}
		s, ok := got.Success.Body.(string)
		if !ok || s != "<xml>not json</xml>" {
			t.Errorf("Body = %v (%T), want 生文字列", got.Success.Body, got.Success.Body)
		}
	})

	t.Run("2xx以外はボディを破棄して理由句のみ返す", func(t *testing.T) {
		t.Parallel()

		resp := newResponse(t, 404, nil, `{"secret":"should not leak"}`)
		got, err := Reduce(resp)
		if err != nil {
			t.Fatalf("Reduce() error = %v", err)
		}
		if got.Success != nil {
			t.Fatalf("Successが設定されている: %+v", got.Success)
		}
		if got.Error.Status != 404 {
			t.Errorf("Status = %d, want 404", got.Error.Status)
		}
		if got.Error.Message != "Not Found" {
			t.Errorf("Message = %q, want %q", got.Error.Message, "Not Found")
		}

		// シリアライズ結果にも上流ボディが漏れないこと。
		out, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("Marshal error = %v", err)
		}
		if strings.Contains(string(out), "secret") {
			t.Errorf("エラーレスポンスに上流ボディが漏れている: %s", out)
		}
	})

	t.Run("標準理由句がないステータスはUnknown Statusになる", func(t *testing.T) {
		t.Parallel()

		resp := newResponse(t, 599, nil, "body")
		got, err := Reduce(resp)
		if err != nil {
			t.Fatalf("Reduce() error = %v", err)
		}
		if got.Error.Message != "Unknown Status" {
			t.Errorf("Message = %q, want %q", got.Error.Message, "Unknown Status")
		}
	})

	t.Run("JSONシリアライズはタグなしの合併型になる", func(t *testing.T) {
		t.Parallel()

		success := APIResponse{Success: &SuccessData{Status: 200, Headers: map[string]string{}, Body: json.RawMessage(`[1,2]`)}}
		out, err := json.Marshal(success)
		if err != nil {
			t.Fatalf("Marshal error = %v", err)
		}
		if string(out) != `{"status":200,"headers":{},"body":[1,2]}` {
			t.Errorf("Success JSON = %s", out)
		}

		failure := APIResponse{Error: &ErrorData{Status: 502, Message: "Bad Gateway"}}
		out, err = json.Marshal(failure)
		if err != nil {
			t.Fatalf("Marshal error = %v", err)
		}
		if string(out) != `{"status":502,"message":"Bad Gateway"}` {
			t.Errorf("Error JSON = %s", out)
		}
	})
}
