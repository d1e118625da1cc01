package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/betbot/polytrader/clob/signing"
	"github.com/betbot/polytrader/clob/types"
)

// CreateAPIKey 创建新的 API 凭证（L1 认证）
func (c *Client) CreateAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	if err := c.CanL1Auth(); err != nil {
		return nil, err
	}

	headers, err := signing.CreateL1Headers(c.privateKey, c.chainID, nonce, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L1 认证头失败: %w", err)
	}

	resp, err := c.httpClient.post(ctx, EndpointCreateAPIKey, headers.ToMap(), nil)
	if err != nil {
		return nil, fmt.Errorf("创建 API 密钥请求失败: %w", err)
	}

	var raw types.ApiKeyRaw
	if err := parseResponse(resp, &raw); err != nil {
		return nil, fmt.Errorf("创建 API 密钥失败: %w", err)
	}

	return &types.ApiKeyCreds{
		Key:        raw.ApiKey,
		Secret:     raw.Secret,
		Passphrase: raw.Passphrase,
	}, nil
}

// DeriveAPIKey 派生已有的 API 凭证（L1 认证）
// 同一私钥与 nonce 始终派生出同一份凭证
func (c *Client) DeriveAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	if err := c.CanL1Auth(); err != nil {
		return nil, err
	}

	headers, err := signing.CreateL1Headers(c.privateKey, c.chainID, nonce, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L1 认证头失败: %w", err)
	}

	resp, err := c.httpClient.get(ctx, EndpointDeriveAPIKey, headers.ToMap(), nil)
	if err != nil {
		return nil, fmt.Errorf("派生 API 密钥请求失败: %w", err)
	}

	var raw types.ApiKeyRaw
	if err := parseResponse(resp, &raw); err != nil {
		return nil, fmt.Errorf("派生 API 密钥失败: %w", err)
	}

	return &types.ApiKeyCreds{
		Key:        raw.ApiKey,
		Secret:     raw.Secret,
		Passphrase: raw.Passphrase,
	}, nil
}

// CreateOrDeriveAPIKey 获取 API 凭证：先尝试派生，凭证不存在时再创建
// 幂等：重复调用不会产生新凭证
func (c *Client) CreateOrDeriveAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	creds, err := c.DeriveAPIKey(ctx, nonce)
	if err == nil {
		return creds, nil
	}

	// 400 表示该私钥尚未注册过凭证，转为创建
	// 401/网络错误原样返回，避免对同一把无效的钥匙做两次认证
	if !IsStatus(err, http.StatusBadRequest) {
		return nil, err
	}

	return c.CreateAPIKey(ctx, nonce)
}
