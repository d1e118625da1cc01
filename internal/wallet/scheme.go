package wallet

import (
	"github.com/betbot/polytrader/clob/types"
)

// Scheme 签名方案的封闭变体
// 每个方案只携带自己需要的字段，非法组合在构造时即被拒绝
type Scheme interface {
	// SignatureType 返回交易所侧的签名类型编号
	SignatureType() types.SignatureType
	// Funder 返回资金持有者地址（EOA 未设置时为空串）
	Funder() string

	isScheme()
}

// EOAScheme 外部账户：签名者即资金持有者
type EOAScheme struct {
	// FunderAddress 可选；设置时应等于签名地址，不一致仅产生警告
	FunderAddress string
}

func (s EOAScheme) SignatureType() types.SignatureType { return types.SignatureTypeEOA }
func (s EOAScheme) Funder() string                     { return s.FunderAddress }
func (s EOAScheme) isScheme()                          {}

// EmailProxyScheme 邮箱登录（Magic）：托管私钥代表代理合约地址签名
type EmailProxyScheme struct {
	// FunderAddress 代理合约地址，必填，且应不同于签名地址
	FunderAddress string
}

func (s EmailProxyScheme) SignatureType() types.SignatureType { return types.SignatureTypeEmailProxy }
func (s EmailProxyScheme) Funder() string                     { return s.FunderAddress }
func (s EmailProxyScheme) isScheme()                          {}

// GnosisSafeScheme Gnosis Safe 多签合约钱包
type GnosisSafeScheme struct {
	// SafeAddress Safe 合约地址，必填
	SafeAddress string
}

func (s GnosisSafeScheme) SignatureType() types.SignatureType { return types.SignatureTypeGnosisSafe }
func (s GnosisSafeScheme) Funder() string                     { return s.SafeAddress }
func (s GnosisSafeScheme) isScheme()                          {}
