package client

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/polytrader/clob/signing"
	"github.com/betbot/polytrader/clob/types"
)

// RoundConfig 舍入配置
type RoundConfig struct {
	Price  int // 价格小数位数
	Size   int // 数量小数位数
	Amount int // 金额小数位数
}

// RoundingConfig 根据 tick size 返回舍入配置
var RoundingConfig = map[types.TickSize]RoundConfig{
	types.TickSize01: {
		Price:  1,
		Size:   2,
		Amount: 3,
	},
	types.TickSize001: {
		Price:  2,
		Size:   2,
		Amount: 4,
	},
	types.TickSize0001: {
		Price:  3,
		Size:   2,
		Amount: 5,
	},
	types.TickSize00001: {
		Price:  4,
		Size:   2,
		Amount: 6,
	},
}

// BuildOrder 构建并签名订单
// maker 取 funder 地址（代理方案），未设置 funder 时取签名者本身
func (c *Client) BuildOrder(userOrder *types.UserOrder, options *types.CreateOrderOptions) (*types.SignedOrder, error) {
	if err := c.CanL1Auth(); err != nil {
		return nil, err
	}

	contractConfig := GetContractConfig(c.chainID)
	if contractConfig == nil {
		return nil, fmt.Errorf("不支持的链 ID: %d", c.chainID)
	}

	tickSize := types.TickSize001
	negRisk := false
	if options != nil {
		if options.TickSize != "" {
			tickSize = options.TickSize
		}
		if options.NegRisk != nil {
			negRisk = *options.NegRisk
		}
	}

	roundConfig, ok := RoundingConfig[tickSize]
	if !ok {
		return nil, fmt.Errorf("不支持的 tick size: %s", tickSize)
	}

	signerAddress := signing.GetAddressFromPrivateKey(c.privateKey)

	maker := signerAddress.Hex()
	if c.funderAddress != "" {
		maker = c.funderAddress
	}

	rawMakerAmt, rawTakerAmt := getOrderRawAmounts(
		userOrder.Side,
		userOrder.Size,
		userOrder.Price,
		roundConfig,
	)

	// 转换为链上最小单位（USDC 精度为 6）
	makerAmount := parseUnits(rawMakerAmt, CollateralTokenDecimals)
	takerAmount := parseUnits(rawTakerAmt, CollateralTokenDecimals)

	taker := "0x0000000000000000000000000000000000000000"
	if userOrder.Taker != nil && *userOrder.Taker != "" {
		taker = *userOrder.Taker
	}

	feeRateBps := big.NewInt(0)
	if userOrder.FeeRateBps != nil {
		feeRateBps = big.NewInt(int64(*userOrder.FeeRateBps))
	}

	nonce := big.NewInt(0)
	if userOrder.Nonce != nil {
		nonce = big.NewInt(int64(*userOrder.Nonce))
	}

	expiration := big.NewInt(0)
	if userOrder.Expiration != nil {
		expiration = big.NewInt(*userOrder.Expiration)
	}

	// salt 使用当前时间戳纳秒
	salt := time.Now().UnixNano()

	tokenID := new(big.Int)
	tokenID, ok = tokenID.SetString(userOrder.TokenID, 10)
	if !ok {
		return nil, fmt.Errorf("无效的 tokenID: %s", userOrder.TokenID)
	}

	exchangeAddress := contractConfig.Exchange
	if negRisk {
		exchangeAddress = contractConfig.NegRiskExchange
	}

	orderData := &signing.OrderData{
		Salt:          salt,
		Maker:         maker,
		Signer:        signerAddress.Hex(),
		Taker:         taker,
		TokenID:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    expiration,
		Nonce:         nonce,
		FeeRateBps:    feeRateBps,
		Side:          userOrder.Side,
		SignatureType: c.signatureType,
	}

	signature, err := signing.BuildOrderSignature(
		c.privateKey,
		c.chainID,
		exchangeAddress,
		orderData,
	)
	if err != nil {
		return nil, fmt.Errorf("签名订单失败: %w", err)
	}

	return &types.SignedOrder{
		Salt:          salt,
		Maker:         maker,
		Signer:        signerAddress.Hex(),
		Taker:         taker,
		TokenID:       userOrder.TokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    expiration.String(),
		Nonce:         nonce.String(),
		FeeRateBps:    feeRateBps.String(),
		Side:          userOrder.Side,
		SignatureType: int(c.signatureType),
		Signature:     signature,
	}, nil
}

// decimalPlaces 返回数字的小数位数
func decimalPlaces(num float64) int {
	if num == math.Trunc(num) {
		return 0
	}
	str := strconv.FormatFloat(num, 'f', -1, 64)
	parts := strings.Split(str, ".")
	if len(parts) < 2 {
		return 0
	}
	return len(parts[1])
}

// roundNormal 四舍五入到指定小数位数
func roundNormal(num float64, decimals int) float64 {
	if decimalPlaces(num) <= decimals {
		return num
	}
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(num*multiplier) / multiplier
}

// roundDown 向下舍入到指定小数位数
func roundDown(num float64, decimals int) float64 {
	if decimalPlaces(num) <= decimals {
		return num
	}
	multiplier := math.Pow(10, float64(decimals))
	return math.Floor(num*multiplier) / multiplier
}

// roundUp 向上舍入到指定小数位数
func roundUp(num float64, decimals int) float64 {
	if decimalPlaces(num) <= decimals {
		return num
	}
	multiplier := math.Pow(10, float64(decimals))
	return math.Ceil(num*multiplier) / multiplier
}

// getOrderRawAmounts 计算订单的 maker/taker 金额
func getOrderRawAmounts(
	side types.Side,
	size float64,
	price float64,
	roundConfig RoundConfig,
) (rawMakerAmt float64, rawTakerAmt float64) {
	rawPrice := roundNormal(price, roundConfig.Price)

	if side == types.SideBuy {
		// 买入：taker 获得 tokens，maker 支付 USDC
		rawTakerAmt = roundDown(size, roundConfig.Size)

		rawMakerAmt = rawTakerAmt * rawPrice
		if decimalPlaces(rawMakerAmt) > roundConfig.Amount {
			rawMakerAmt = roundUp(rawMakerAmt, roundConfig.Amount+4)
			if decimalPlaces(rawMakerAmt) > roundConfig.Amount {
				rawMakerAmt = roundDown(rawMakerAmt, roundConfig.Amount)
			}
		}
	} else {
		// 卖出：maker 给出 tokens（最多 2 位小数），taker 支付 USDC（最多 4 位小数）
		rawMakerAmt = roundDown(size, roundConfig.Size)

		rawTakerAmt = rawMakerAmt * rawPrice
		if decimalPlaces(rawTakerAmt) > 4 {
			rawTakerAmt = roundDown(rawTakerAmt, 4)
		}
		if decimalPlaces(rawMakerAmt) > 2 {
			rawMakerAmt = roundDown(rawMakerAmt, 2)
			rawTakerAmt = rawMakerAmt * rawPrice
			if decimalPlaces(rawTakerAmt) > 4 {
				rawTakerAmt = roundDown(rawTakerAmt, 4)
			}
		}
	}

	return rawMakerAmt, rawTakerAmt
}

// parseUnits 将金额转换为链上最小单位
func parseUnits(value float64, decimals int) *big.Int {
	multiplier := new(big.Float).SetFloat64(math.Pow(10, float64(decimals)))
	valueBig := new(big.Float).SetFloat64(value)
	result := new(big.Float).Mul(valueBig, multiplier)

	resultInt, _ := result.Int(nil)
	return resultInt
}
