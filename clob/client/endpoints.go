package client

// API 端点常量
const (
	EndpointTime = "/time"

	// API Key
	EndpointCreateAPIKey = "/auth/api-key"
	EndpointDeriveAPIKey = "/auth/derive-api-key"

	// Markets
	EndpointGetOrderBook = "/book"
	EndpointGetPrice     = "/price"

	// Orders
	EndpointPostOrder     = "/order"
	EndpointCancelOrder   = "/order"
	EndpointGetOrder      = "/data/order/"
	EndpointGetOpenOrders = "/data/orders"

	// Balance
	EndpointGetBalanceAllowance = "/balance-allowance"
)
