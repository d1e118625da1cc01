package types

// UserOrder 用户订单（下单入参）
type UserOrder struct {
	// TokenID 条件代币资产 ID
	TokenID string

	// Price 订单价格（0-1 概率计价）
	Price float64

	// Size 条件代币的数量
	Size float64

	// Side 订单方向
	Side Side

	// FeeRateBps 手续费率（基点），可选
	FeeRateBps *int

	// Nonce 用于链上取消订单的 nonce，可选
	Nonce *int

	// Expiration 订单过期时间戳（秒），可选
	Expiration *int64

	// Taker 订单接受者地址，零地址表示公开订单，可选
	Taker *string
}

// SignedOrder 已签名的订单，构建后不可变
type SignedOrder struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          Side   `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// NewOrder 订单提交载荷（order + owner + orderType）
type NewOrder struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"`
	OrderType OrderType   `json:"orderType"`
}

// OrderResponse 订单提交响应
type OrderResponse struct {
	Success           bool     `json:"success"`
	ErrorMsg          string   `json:"errorMsg"`
	OrderID           string   `json:"orderID"`
	TransactionHashes []string `json:"transactionsHashes"`
	Status            string   `json:"status"`
	TakingAmount      string   `json:"takingAmount"`
	MakingAmount      string   `json:"makingAmount"`
}

// OpenOrder 订单簿中的挂单
type OpenOrder struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Owner        string `json:"owner"`
	MakerAddress string `json:"maker_address"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Price        string `json:"price"`
	Outcome      string `json:"outcome"`
	CreatedAt    int64  `json:"created_at"`
	Expiration   string `json:"expiration"`
	OrderType    string `json:"order_type"`
}

// OpenOrdersAPIResponse API 返回的挂单列表结构
type OpenOrdersAPIResponse struct {
	Data       []OpenOrder `json:"data"`
	NextCursor string      `json:"next_cursor"`
	Limit      int         `json:"limit"`
	Count      int         `json:"count"`
}

// OpenOrderParams 查询挂单参数
type OpenOrderParams struct {
	ID      *string
	Market  *string
	AssetID *string
}

// CreateOrderOptions 创建订单选项
type CreateOrderOptions struct {
	TickSize TickSize
	NegRisk  *bool
}
