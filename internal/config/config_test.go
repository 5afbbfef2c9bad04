package config

import (
	"os"
	"testing"

	"github.com/nao1215/edgerelay/pkg/region"
)

// 環境変数を操作するためt.Parallel()は使用しない。

// TestLoadEdge はエッジ設定の読み込みのテスト。
func TestLoadEdge(t *testing.T) {
	t.Run("AUTH_TOKEN未設定はエラー", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN", "x") // 後始末をテストに任せるための登録
		os.Unsetenv("AUTH_TOKEN")

		if _, err := LoadEdge(); err == nil {
			t.Error("AUTH_TOKEN未設定でエラーが返らない")
		}
	})

	t.Run("既定値が適用される", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN", "secret")

		c, err := LoadEdge()
		if err != nil {
			t.Fatalf("LoadEdge() error = %v", err)
		}
		if c.Port != "8080" {
			t.Errorf("Port = %q, want 8080", c.Port)
		}
		if c.DispatchMode != DispatchModeHTTP {
			t.Errorf("DispatchMode = %q, want %q", c.DispatchMode, DispatchModeHTTP)
		}
		if c.InternalJWTSecret != "dev-secret-key" {
			t.Errorf("InternalJWTSecret = %q, want dev-secret-key", c.InternalJWTSecret)
		}
	})

	t.Run("8リージョンすべてのプロセッサURLが揃う", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN", "secret")
		t.Setenv("PROCESSOR_URL_WEUR", "http://weur-processor:9000")

		c, err := LoadEdge()
		if err != nil {
			t.Fatalf("LoadEdge() error = %v", err)
		}
		urls := c.ProcessorURLs()
		if len(urls) != len(region.All()) {
			t.Errorf("ProcessorURLs()の要素数 = %d, want %d", len(urls), len(region.All()))
		}
		for _, code := range region.All() {
			if urls[code] == "" {
				t.Errorf("リージョン %s のURLが空", code)
			}
		}
		if urls[region.WEUR] != "http://weur-processor:9000" {
			t.Errorf("WEURのURL = %q, want 環境変数の値", urls[region.WEUR])
		}
	})

	t.Run("不正なDISPATCH_MODEはエラー", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN", "secret")
		t.Setenv("DISPATCH_MODE", "grpc")

		if _, err := LoadEdge(); err == nil {
			t.Error("不正なDISPATCH_MODEでエラーが返らない")
		}
	})
}

// TestLoadProcessor はプロセッサ設定の読み込みのテスト。
func TestLoadProcessor(t *testing.T) {
	t.Run("既定値が適用される", func(t *testing.T) {
		c, err := LoadProcessor()
		if err != nil {
			t.Fatalf("LoadProcessor() error = %v", err)
		}
		if c.RegionCode() != region.WNAM {
			t.Errorf("RegionCode() = %v, want wnam", c.RegionCode())
		}
	})

	t.Run("REGIONを指定できる", func(t *testing.T) {
		t.Setenv("REGION", "eeur")

		c, err := LoadProcessor()
		if err != nil {
			t.Fatalf("LoadProcessor() error = %v", err)
		}
		if c.RegionCode() != region.EEUR {
			t.Errorf("RegionCode() = %v, want eeur", c.RegionCode())
		}
	})

	t.Run("未知のREGIONはエラー", func(t *testing.T) {
		t.Setenv("REGION", "mars")

		if _, err := LoadProcessor(); err == nil {
			t.Error("未知のREGIONでエラーが返らない")
		}
	})
}
