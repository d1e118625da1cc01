package client

import (
	"strings"
	"testing"

	"github.com/betbot/polytrader/clob/signing"
	"github.com/betbot/polytrader/clob/types"
)

func TestGetOrderRawAmountsBuy(t *testing.T) {
	roundConfig := RoundingConfig[types.TickSize001]

	maker, taker := getOrderRawAmounts(types.SideBuy, 10, 0.5, roundConfig)
	// 买入：taker 是 token 数量，maker 是支付的 USDC
	if taker != 10 {
		t.Errorf("taker 数量应为 10，实际 %v", taker)
	}
	if maker != 5 {
		t.Errorf("maker 金额应为 5，实际 %v", maker)
	}
}

func TestGetOrderRawAmountsSell(t *testing.T) {
	roundConfig := RoundingConfig[types.TickSize001]

	maker, taker := getOrderRawAmounts(types.SideSell, 10, 0.5, roundConfig)
	// 卖出：maker 是 token 数量，taker 是收到的 USDC
	if maker != 10 {
		t.Errorf("maker 数量应为 10，实际 %v", maker)
	}
	if taker != 5 {
		t.Errorf("taker 金额应为 5，实际 %v", taker)
	}
}

func TestGetOrderRawAmountsRounding(t *testing.T) {
	roundConfig := RoundingConfig[types.TickSize001]

	// 数量超过 2 位小数应向下舍入
	maker, _ := getOrderRawAmounts(types.SideSell, 10.999, 0.5, roundConfig)
	if maker != 10.99 {
		t.Errorf("数量应向下舍入到 10.99，实际 %v", maker)
	}
}

func TestParseUnits(t *testing.T) {
	if got := parseUnits(5, 6).String(); got != "5000000" {
		t.Errorf("5 USDC 应为 5000000，实际 %s", got)
	}
	if got := parseUnits(0.5, 6).String(); got != "500000" {
		t.Errorf("0.5 USDC 应为 500000，实际 %s", got)
	}
}

func TestBuildOrderUsesFunderAsMaker(t *testing.T) {
	key, err := signing.PrivateKeyFromHex(testKeyHex)
	if err != nil {
		t.Fatalf("解析测试私钥失败: %v", err)
	}
	funder := "0x00000000000000000000000000000000000000AA"

	c := NewClient("http://127.0.0.1:0", types.ChainPolygon, key, &Options{
		SignatureType: types.SignatureTypeEmailProxy,
		FunderAddress: funder,
	})

	order, err := c.BuildOrder(&types.UserOrder{
		TokenID: "100",
		Price:   0.5,
		Size:    10,
		Side:    types.SideBuy,
	}, &types.CreateOrderOptions{TickSize: types.TickSize001})
	if err != nil {
		t.Fatalf("构建订单失败: %v", err)
	}

	if order.Maker != funder {
		t.Errorf("代理方案下 maker 应为 funder 地址: %s", order.Maker)
	}
	if order.Signer == order.Maker {
		t.Error("代理方案下 signer 应与 maker 不同")
	}
	if order.SignatureType != int(types.SignatureTypeEmailProxy) {
		t.Errorf("签名类型应为 EmailProxy: %d", order.SignatureType)
	}
	if order.MakerAmount != "5000000" || order.TakerAmount != "10000000" {
		t.Errorf("订单金额不符: maker=%s taker=%s", order.MakerAmount, order.TakerAmount)
	}
	if !strings.HasPrefix(order.Signature, "0x") {
		t.Errorf("订单应已签名: %s", order.Signature)
	}
}

func TestBuildOrderDefaultsMakerToSigner(t *testing.T) {
	key, err := signing.PrivateKeyFromHex(testKeyHex)
	if err != nil {
		t.Fatalf("解析测试私钥失败: %v", err)
	}

	c := NewClient("http://127.0.0.1:0", types.ChainPolygon, key, nil)

	order, err := c.BuildOrder(&types.UserOrder{
		TokenID: "100",
		Price:   0.5,
		Size:    10,
		Side:    types.SideBuy,
	}, nil)
	if err != nil {
		t.Fatalf("构建订单失败: %v", err)
	}

	if order.Maker != order.Signer {
		t.Errorf("EOA 方案下 maker 应等于 signer: maker=%s signer=%s", order.Maker, order.Signer)
	}
	if order.SignatureType != int(types.SignatureTypeEOA) {
		t.Errorf("默认签名类型应为 EOA: %d", order.SignatureType)
	}
}

func TestBuildOrderInvalidTokenID(t *testing.T) {
	key, err := signing.PrivateKeyFromHex(testKeyHex)
	if err != nil {
		t.Fatalf("解析测试私钥失败: %v", err)
	}
	c := NewClient("http://127.0.0.1:0", types.ChainPolygon, key, nil)

	if _, err := c.BuildOrder(&types.UserOrder{
		TokenID: "not-a-number",
		Price:   0.5,
		Size:    10,
		Side:    types.SideBuy,
	}, nil); err == nil {
		t.Error("非数字 tokenID 应返回错误")
	}
}
