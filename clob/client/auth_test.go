package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/betbot/polytrader/clob/signing"
	"github.com/betbot/polytrader/clob/types"
)

const testKeyHex = "0000000000000000000000000000000000000000000000000000000000000001"

func newTestClient(t *testing.T, host string) *Client {
	t.Helper()
	key, err := signing.PrivateKeyFromHex(testKeyHex)
	if err != nil {
		t.Fatalf("解析测试私钥失败: %v", err)
	}
	return NewClient(host, types.ChainPolygon, key, nil)
}

func TestCreateOrDeriveAPIKeyCreatesOnce(t *testing.T) {
	var deriveCalls, createCalls atomic.Int64
	registered := atomic.Bool{}

	mux := http.NewServeMux()
	mux.HandleFunc(EndpointDeriveAPIKey, func(w http.ResponseWriter, r *http.Request) {
		deriveCalls.Add(1)
		if r.Header.Get("POLY_ADDRESS") == "" || r.Header.Get("POLY_SIGNATURE") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !registered.Load() {
			// 尚无凭证可派生
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"api key not found"}`))
			return
		}
		w.Write([]byte(`{"apiKey":"key-1","secret":"c2VjcmV0","passphrase":"pass-1"}`))
	})
	mux.HandleFunc(EndpointCreateAPIKey, func(w http.ResponseWriter, r *http.Request) {
		createCalls.Add(1)
		registered.Store(true)
		w.Write([]byte(`{"apiKey":"key-1","secret":"c2VjcmV0","passphrase":"pass-1"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx := context.Background()

	// 首次：派生失败（400）转为创建
	creds, err := c.CreateOrDeriveAPIKey(ctx, 0)
	if err != nil {
		t.Fatalf("首次获取凭证失败: %v", err)
	}
	if creds.Key != "key-1" || !creds.Complete() {
		t.Errorf("凭证内容不符: %+v", creds)
	}
	if createCalls.Load() != 1 {
		t.Errorf("创建应被调用 1 次，实际 %d", createCalls.Load())
	}

	// 再次：派生命中已有凭证，不再创建
	creds2, err := c.CreateOrDeriveAPIKey(ctx, 0)
	if err != nil {
		t.Fatalf("二次获取凭证失败: %v", err)
	}
	if *creds2 != *creds {
		t.Errorf("两次获取的凭证应等价: %+v != %+v", creds2, creds)
	}
	if createCalls.Load() != 1 {
		t.Errorf("重复获取不应再创建凭证，创建调用数 %d", createCalls.Load())
	}
	if deriveCalls.Load() != 2 {
		t.Errorf("派生应被调用 2 次，实际 %d", deriveCalls.Load())
	}
}

func TestCreateOrDeriveAPIKeyUnauthorizedNotRetriedAsCreate(t *testing.T) {
	var createCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc(EndpointDeriveAPIKey, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid signature"}`))
	})
	mux.HandleFunc(EndpointCreateAPIKey, func(w http.ResponseWriter, r *http.Request) {
		createCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, server.URL)

	_, err := c.CreateOrDeriveAPIKey(context.Background(), 0)
	if err == nil {
		t.Fatal("401 应返回错误")
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("应保留 401 状态码: %v", err)
	}
	// 401 不是「凭证不存在」，不应转为创建
	if createCalls.Load() != 0 {
		t.Errorf("401 后不应调用创建端点，实际调用 %d 次", createCalls.Load())
	}
}

func TestCanL2AuthWithoutCreds(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0")
	if err := c.CanL2Auth(); err == nil {
		t.Error("无凭证时 L2 认证检查应失败")
	}
	c.SetCreds(&types.ApiKeyCreds{Key: "k", Secret: "s", Passphrase: "p"})
	if err := c.CanL2Auth(); err != nil {
		t.Errorf("凭证齐全时 L2 认证检查应通过: %v", err)
	}
}
