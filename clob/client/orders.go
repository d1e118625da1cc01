package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/betbot/polytrader/clob/signing"
	"github.com/betbot/polytrader/clob/types"
)

// PostOrder 提交已签名订单（L2 认证）
// 签名与发送使用同一份序列化字节，保证 HMAC 校验一致
func (c *Client) PostOrder(ctx context.Context, order *types.SignedOrder, orderType types.OrderType) (*types.OrderResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	payload := types.NewOrder{
		Order:     *order,
		Owner:     c.creds.Key,
		OrderType: orderType,
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化订单载荷失败: %w", err)
	}
	bodyStr := string(bodyBytes)

	headers, err := signing.CreateL2Headers(c.privateKey, c.creds, &types.L2HeaderArgs{
		Method:      http.MethodPost,
		RequestPath: EndpointPostOrder,
		Body:        &bodyStr,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	resp, err := c.httpClient.post(ctx, EndpointPostOrder, headers.ToMap(), bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("提交订单请求失败: %w", err)
	}

	var orderResp types.OrderResponse
	if err := parseResponse(resp, &orderResp); err != nil {
		return nil, err
	}

	return &orderResp, nil
}

// CancelOrder 取消订单（L2 认证）
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*types.OrderResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	bodyBytes, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return nil, fmt.Errorf("序列化取消载荷失败: %w", err)
	}
	bodyStr := string(bodyBytes)

	headers, err := signing.CreateL2Headers(c.privateKey, c.creds, &types.L2HeaderArgs{
		Method:      http.MethodDelete,
		RequestPath: EndpointCancelOrder,
		Body:        &bodyStr,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	resp, err := c.httpClient.delete(ctx, EndpointCancelOrder, headers.ToMap(), bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("取消订单请求失败: %w", err)
	}

	var orderResp types.OrderResponse
	if err := parseResponse(resp, &orderResp); err != nil {
		return nil, fmt.Errorf("取消订单失败 (orderID=%s): %w", orderID, err)
	}

	return &orderResp, nil
}

// GetOrder 获取订单详情（L2 认证）
func (c *Client) GetOrder(ctx context.Context, orderID string) (*types.OpenOrder, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	endpoint := EndpointGetOrder + orderID

	headers, err := signing.CreateL2Headers(c.privateKey, c.creds, &types.L2HeaderArgs{
		Method:      http.MethodGet,
		RequestPath: endpoint,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	resp, err := c.httpClient.get(ctx, endpoint, headers.ToMap(), nil)
	if err != nil {
		return nil, fmt.Errorf("获取订单详情请求失败: %w", err)
	}

	var order types.OpenOrder
	if err := parseResponse(resp, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// GetOpenOrders 获取当前挂单列表（L2 认证）
func (c *Client) GetOpenOrders(ctx context.Context, params *types.OpenOrderParams) ([]types.OpenOrder, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}

	queryParams := make(map[string]string)
	if params != nil {
		if params.ID != nil {
			queryParams["id"] = *params.ID
		}
		if params.Market != nil {
			queryParams["market"] = *params.Market
		}
		if params.AssetID != nil {
			queryParams["asset_id"] = *params.AssetID
		}
	}

	headers, err := signing.CreateL2Headers(c.privateKey, c.creds, &types.L2HeaderArgs{
		Method:      http.MethodGet,
		RequestPath: EndpointGetOpenOrders,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	resp, err := c.httpClient.get(ctx, EndpointGetOpenOrders, headers.ToMap(), queryParams)
	if err != nil {
		return nil, fmt.Errorf("获取挂单请求失败: %w", err)
	}

	var apiResp types.OpenOrdersAPIResponse
	if err := parseResponse(resp, &apiResp); err != nil {
		return nil, err
	}

	return apiResp.Data, nil
}

// GetServerTime 获取服务端时间（无需认证，可用作连通性探测）
func (c *Client) GetServerTime(ctx context.Context) (string, error) {
	resp, err := c.httpClient.get(ctx, EndpointTime, nil, nil)
	if err != nil {
		return "", fmt.Errorf("获取服务端时间请求失败: %w", err)
	}

	var result json.RawMessage
	if err := parseResponse(resp, &result); err != nil {
		return "", err
	}

	return string(result), nil
}
