package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/betbot/polytrader/clob/signing"
	"github.com/betbot/polytrader/clob/types"
)

// GetBalanceAllowance 查询余额与授权额度（L2 认证）
// 这是最轻量的已认证只读请求，也用作凭证与签名方案的有效性探针
func (c *Client) GetBalanceAllowance(ctx context.Context, params *types.BalanceAllowanceParams) (*types.BalanceAllowanceResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"asset_type": string(params.AssetType),
	}
	if params.TokenID != nil {
		queryParams["token_id"] = *params.TokenID
	}
	sigType := c.signatureType
	if params.SignatureType != nil {
		sigType = *params.SignatureType
	}
	queryParams["signature_type"] = strconv.Itoa(int(sigType))

	headers, err := signing.CreateL2Headers(c.privateKey, c.creds, &types.L2HeaderArgs{
		Method:      http.MethodGet,
		RequestPath: EndpointGetBalanceAllowance,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	resp, err := c.httpClient.get(ctx, EndpointGetBalanceAllowance, headers.ToMap(), queryParams)
	if err != nil {
		return nil, fmt.Errorf("余额查询请求失败: %w", err)
	}

	var result types.BalanceAllowanceResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("余额查询失败: %w", err)
	}

	return &result, nil
}
