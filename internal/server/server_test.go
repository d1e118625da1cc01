package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/betbot/polytrader/pkg/config"
)

func newTestServer() *Server {
	cfg := &config.Config{}
	cfg.Wallet.PrivateKey = "0000000000000000000000000000000000000000000000000000000000000001"
	cfg.Exchange.Host = "http://127.0.0.1:0"
	cfg.Exchange.ChainID = 137
	return New(cfg, nil, nil, nil)
}

func TestHealthWithoutSession(t *testing.T) {
	srv := newTestServer()
	router := srv.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("无会话时健康检查应返回 503，实际 %d", w.Code)
	}
}

func TestStatusWithoutSession(t *testing.T) {
	srv := newTestServer()
	router := srv.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("状态查询应返回 200，实际 %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body["session"] != false {
		t.Errorf("无会话时 session 字段应为 false: %v", body)
	}
}

func TestSubmitOrderWithoutSession(t *testing.T) {
	srv := newTestServer()
	router := srv.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{"token_id":"100","price":0.5,"size":10,"side":"BUY"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("无会话时下单应返回 409，实际 %d", w.Code)
	}
}

func TestGetConfigRedacted(t *testing.T) {
	srv := newTestServer()
	router := srv.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("配置查询应返回 200，实际 %d", w.Code)
	}
	if strings.Contains(w.Body.String(), srv.cfg.Wallet.PrivateKey) {
		t.Error("配置响应不应包含完整私钥")
	}
}
