package types

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType 订单执行类型
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancel - 一直有效直到取消
	OrderTypeFOK OrderType = "FOK" // Fill or Kill - 全部成交或全部取消
	OrderTypeFAK OrderType = "FAK" // Fill and Kill - 部分成交，剩余取消
)

// Chain 区块链网络
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType 签名方案
// 决定订单 maker 与 signer 的关系，以及交易所如何验证签名
type SignatureType int

const (
	// SignatureTypeEOA 外部账户：签名者即资金持有者
	SignatureTypeEOA SignatureType = 0
	// SignatureTypeEmailProxy 邮箱登录（Magic）：托管私钥代表代理合约地址签名
	SignatureTypeEmailProxy SignatureType = 1
	// SignatureTypeGnosisSafe Gnosis Safe 多签合约钱包
	SignatureTypeGnosisSafe SignatureType = 2
)

// String 返回签名方案名称（用于日志和诊断输出）
func (s SignatureType) String() string {
	switch s {
	case SignatureTypeEOA:
		return "EOA"
	case SignatureTypeEmailProxy:
		return "EmailProxy"
	case SignatureTypeGnosisSafe:
		return "GnosisSafe"
	default:
		return "Unknown"
	}
}

// Valid 检查签名方案是否为已知值
func (s SignatureType) Valid() bool {
	switch s {
	case SignatureTypeEOA, SignatureTypeEmailProxy, SignatureTypeGnosisSafe:
		return true
	}
	return false
}

// AssetType 资产类型
type AssetType string

const (
	AssetTypeCollateral  AssetType = "COLLATERAL"
	AssetTypeConditional AssetType = "CONDITIONAL"
)

// TickSize 价格精度
type TickSize string

const (
	TickSize01    TickSize = "0.1"
	TickSize001   TickSize = "0.01"
	TickSize0001  TickSize = "0.001"
	TickSize00001 TickSize = "0.0001"
)

// ApiKeyCreds API 密钥凭证（key/secret/passphrase 三元组）
// 凭证归创建它的会话所有，不跨账号流水线共享
type ApiKeyCreds struct {
	Key        string `json:"key"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Complete 三个字段均非空时凭证才可用于 L2 认证
func (c *ApiKeyCreds) Complete() bool {
	return c != nil && c.Key != "" && c.Secret != "" && c.Passphrase != ""
}

// ApiKeyRaw 原始 API 密钥（API 返回格式）
type ApiKeyRaw struct {
	ApiKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// BalanceAllowanceParams 余额查询参数
type BalanceAllowanceParams struct {
	AssetType     AssetType
	TokenID       *string
	SignatureType *SignatureType
}

// BalanceAllowanceResponse 余额查询响应（原始单位，USDC 为 6 位精度）
type BalanceAllowanceResponse struct {
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}
