package signing

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betbot/polytrader/clob/types"
)

const (
	// ClobDomainName L1 认证 EIP712 域名
	ClobDomainName = "ClobAuthDomain"

	// ClobVersion EIP712 版本
	ClobVersion = "1"

	// MsgToSign L1 认证签名消息（交易所固定文案）
	MsgToSign = "This message attests that I control the given wallet"
)

// BuildClobAuthSignature 构建 CLOB L1 认证的 EIP712 签名
// 对 ClobAuth 结构（address/timestamp/nonce/message）签名，交易所据此验证钱包归属
func BuildClobAuthSignature(
	privateKey *ecdsa.PrivateKey,
	chainID types.Chain,
	timestamp int64,
	nonce int64,
) (string, error) {
	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": {
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "ClobAuth",
		Domain: apitypes.TypedDataDomain{
			Name:    ClobDomainName,
			Version: ClobVersion,
			ChainId: math.NewHexOrDecimal256(int64(chainID)),
		},
		Message: map[string]interface{}{
			"address":   address.Hex(),
			"timestamp": fmt.Sprintf("%d", timestamp),
			"nonce":     big.NewInt(nonce),
			"message":   MsgToSign,
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("计算 EIP712 哈希失败: %w", err)
	}

	// crypto.Sign 返回 65 字节：r(32) + s(32) + v(1)
	signature, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return "", fmt.Errorf("签名失败: %w", err)
	}

	return "0x" + common.Bytes2Hex(signature), nil
}

// GetAddressFromPrivateKey 从私钥获取地址
func GetAddressFromPrivateKey(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// PrivateKeyFromHex 从十六进制字符串解析私钥（允许 0x 前缀）
func PrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
}
