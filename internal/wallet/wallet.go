package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/betbot/polytrader/clob/signing"
	"github.com/betbot/polytrader/clob/types"
)

// DefaultDerivationPath 助记词派生路径（第一个账户）
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// ConfigError 钱包配置错误
// 纯本地校验产生，出现时不应发起任何网络请求
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("钱包配置错误 [%s]: %s", e.Field, e.Reason)
}

// Config 钱包原始配置（来自环境变量或配置文件）
// PrivateKey 与 Mnemonic 二选一
type Config struct {
	PrivateKey    string
	Mnemonic      string
	SignatureType types.SignatureType
	FunderAddress string
}

// Wallet 已解析的钱包：私钥、派生地址与签名方案
type Wallet struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
	Scheme     Scheme

	// Warnings 非阻断性的疑似配置问题（如 EOA 的 funder 与签名地址不一致）
	Warnings []string
}

// SignatureType 返回签名方案编号
func (w *Wallet) SignatureType() types.SignatureType {
	return w.Scheme.SignatureType()
}

// Funder 返回资金持有者地址（未设置时为空串）
func (w *Wallet) Funder() string {
	return w.Scheme.Funder()
}

// Resolve 解析并校验钱包配置
// 校验完全在本地进行，配置错误在任何网络请求之前暴露
func (cfg *Config) Resolve() (*Wallet, error) {
	privateKey, err := cfg.parseKey()
	if err != nil {
		return nil, err
	}

	address := signing.GetAddressFromPrivateKey(privateKey)

	scheme, warnings, err := buildScheme(cfg.SignatureType, cfg.FunderAddress, address)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		PrivateKey: privateKey,
		Address:    address,
		Scheme:     scheme,
		Warnings:   warnings,
	}, nil
}

// parseKey 从私钥或助记词解析出 ECDSA 私钥
// 错误信息不包含密钥内容
func (cfg *Config) parseKey() (*ecdsa.PrivateKey, error) {
	if cfg.PrivateKey == "" && cfg.Mnemonic == "" {
		return nil, &ConfigError{Field: "signingKey", Reason: "私钥与助记词均未配置"}
	}

	if cfg.PrivateKey != "" {
		privateKey, err := signing.PrivateKeyFromHex(cfg.PrivateKey)
		if err != nil {
			return nil, &ConfigError{Field: "signingKey", Reason: "私钥格式无效，应为 64 位十六进制字符串"}
		}
		return privateKey, nil
	}

	hdWallet, err := hdwallet.NewFromMnemonic(strings.TrimSpace(cfg.Mnemonic))
	if err != nil {
		return nil, &ConfigError{Field: "signingKey", Reason: "助记词无效"}
	}
	path := hdwallet.MustParseDerivationPath(DefaultDerivationPath)
	account, err := hdWallet.Derive(path, false)
	if err != nil {
		return nil, &ConfigError{Field: "signingKey", Reason: "助记词派生账户失败"}
	}
	privateKey, err := hdWallet.PrivateKey(account)
	if err != nil {
		return nil, &ConfigError{Field: "signingKey", Reason: "助记词导出私钥失败"}
	}
	return privateKey, nil
}

// buildScheme 按方案规则构造封闭变体
func buildScheme(sigType types.SignatureType, funder string, address common.Address) (Scheme, []string, error) {
	if !sigType.Valid() {
		return nil, nil, &ConfigError{
			Field:  "signatureScheme",
			Reason: fmt.Sprintf("未知的签名方案: %d，有效值为 0=EOA 1=EmailProxy 2=GnosisSafe", sigType),
		}
	}

	if funder != "" && !common.IsHexAddress(funder) {
		return nil, nil, &ConfigError{Field: "funderAddress", Reason: "funder 地址格式无效"}
	}

	var warnings []string

	switch sigType {
	case types.SignatureTypeEOA:
		// EOA 不需要 funder；设置了且与签名地址不一致时仅警告，不阻断
		if funder != "" && !sameAddress(funder, address) {
			warnings = append(warnings, fmt.Sprintf(
				"EOA 方案的 funder 地址 %s 与签名地址 %s 不一致，疑似配置错误",
				funder, address.Hex(),
			))
		}
		return EOAScheme{FunderAddress: funder}, warnings, nil

	case types.SignatureTypeEmailProxy:
		if funder == "" {
			return nil, nil, &ConfigError{
				Field:  "funderAddress",
				Reason: "EmailProxy 方案必须配置 funder（代理合约）地址",
			}
		}
		// 代理地址等于签名地址说明配置方案可能选错了
		if sameAddress(funder, address) {
			warnings = append(warnings, fmt.Sprintf(
				"EmailProxy 方案的 funder 地址与签名地址相同 (%s)，该方案下两者应不同，疑似应使用 EOA 方案",
				address.Hex(),
			))
		}
		return EmailProxyScheme{FunderAddress: funder}, warnings, nil

	case types.SignatureTypeGnosisSafe:
		if funder == "" {
			return nil, nil, &ConfigError{
				Field:  "funderAddress",
				Reason: "GnosisSafe 方案必须配置 Safe 合约地址",
			}
		}
		return GnosisSafeScheme{SafeAddress: funder}, warnings, nil
	}

	return nil, nil, &ConfigError{Field: "signatureScheme", Reason: "未知的签名方案"}
}

func sameAddress(a string, b common.Address) bool {
	return common.HexToAddress(a) == b
}
