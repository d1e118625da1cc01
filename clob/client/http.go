package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoPrivateKey L1 认证不可用
var ErrNoPrivateKey = errors.New("私钥未配置，L1 认证不可用")

// ErrNoCreds L2 认证不可用
var ErrNoCreds = errors.New("API 凭证未配置，L2 认证不可用")

// APIError 交易所返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP 错误 %d: %s", e.StatusCode, e.Body)
}

// IsStatus 判断错误是否为指定状态码的 APIError
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsAuthStatus 判断错误是否为 401/403 类认证失败
func IsAuthStatus(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// httpClient HTTP 客户端封装
type httpClient struct {
	client *http.Client
	host   string
}

func newHTTPClient(host string) *httpClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &httpClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		host: strings.TrimSuffix(host, "/"),
	}
}

// get 执行 GET 请求
func (h *httpClient) get(ctx context.Context, endpoint string, headers map[string]string, params map[string]string) (*http.Response, error) {
	reqURL, err := buildURL(h.host+endpoint, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	h.setDefaultHeaders(req)
	req.Header.Set("Accept-Encoding", "gzip")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.client.Do(req)
}

// post 执行 POST 请求
// body 传入已序列化的字节，保证发送内容与 HMAC 签名内容一致
func (h *httpClient) post(ctx context.Context, endpoint string, headers map[string]string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.host+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	h.setDefaultHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.client.Do(req)
}

// delete 执行 DELETE 请求
func (h *httpClient) delete(ctx context.Context, endpoint string, headers map[string]string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, h.host+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	h.setDefaultHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.client.Do(req)
}

func (h *httpClient) setDefaultHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "polytrader-clob")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Content-Type", "application/json")
}

func buildURL(base string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("解析 URL 失败: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseResponse 解析响应；非 2xx 返回 *APIError
func parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("创建 gzip 读取器失败: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	bodyBytes, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("解析响应失败: %w, 响应体: %s", err, string(bodyBytes))
		}
	}

	return nil
}
