package signing

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betbot/polytrader/clob/types"
)

// OrderData 订单签名数据
type OrderData struct {
	Salt          int64
	Maker         string
	Signer        string
	Taker         string
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          types.Side
	SignatureType types.SignatureType
}

// BuildOrderSignature 构建订单的 EIP712 签名
// domain 固定为 "Polymarket CTF Exchange"，verifyingContract 为交易所合约地址
func BuildOrderSignature(
	privateKey *ecdsa.PrivateKey,
	chainID types.Chain,
	exchangeAddress string,
	order *OrderData,
) (string, error) {
	// BUY = 0, SELL = 1
	sideUint8 := int64(1)
	if order.Side == types.SideBuy {
		sideUint8 = 0
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Order": {
				{Name: "salt", Type: "uint256"},
				{Name: "maker", Type: "address"},
				{Name: "signer", Type: "address"},
				{Name: "taker", Type: "address"},
				{Name: "tokenId", Type: "uint256"},
				{Name: "makerAmount", Type: "uint256"},
				{Name: "takerAmount", Type: "uint256"},
				{Name: "expiration", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "feeRateBps", Type: "uint256"},
				{Name: "side", Type: "uint8"},
				{Name: "signatureType", Type: "uint8"},
			},
		},
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              "Polymarket CTF Exchange",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: exchangeAddress,
		},
		Message: map[string]interface{}{
			"salt":          big.NewInt(order.Salt),
			"maker":         common.HexToAddress(order.Maker).Hex(),
			"signer":        common.HexToAddress(order.Signer).Hex(),
			"taker":         common.HexToAddress(order.Taker).Hex(),
			"tokenId":       order.TokenID,
			"makerAmount":   order.MakerAmount,
			"takerAmount":   order.TakerAmount,
			"expiration":    order.Expiration,
			"nonce":         order.Nonce,
			"feeRateBps":    order.FeeRateBps,
			"side":          big.NewInt(sideUint8),
			"signatureType": big.NewInt(int64(order.SignatureType)),
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("计算 EIP712 哈希失败: %w", err)
	}

	signature, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return "", fmt.Errorf("签名失败: %w", err)
	}

	return "0x" + common.Bytes2Hex(signature), nil
}
