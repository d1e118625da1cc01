package wallet

import (
	"errors"
	"strings"
	"testing"

	"github.com/betbot/polytrader/clob/types"
)

// 公开测试向量：私钥 0x...01 对应地址 0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf
const (
	testKeyHex  = "0000000000000000000000000000000000000000000000000000000000000001"
	testAddress = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
	otherFunder = "0x00000000000000000000000000000000000000AA"
)

// 公开测试助记词，首个账户地址为 0x9858EfFD232B4033E47d90003D41EC34EcaEda94
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestResolveEOA(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureTypeEOA,
	}
	w, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("EOA 配置应通过校验: %v", err)
	}
	if w.Address.Hex() != testAddress {
		t.Errorf("派生地址不符: %s", w.Address.Hex())
	}
	if _, ok := w.Scheme.(EOAScheme); !ok {
		t.Errorf("方案类型应为 EOA: %T", w.Scheme)
	}
	if len(w.Warnings) != 0 {
		t.Errorf("不应产生警告: %v", w.Warnings)
	}
}

func TestResolveEOAFunderMismatchWarnsOnly(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureTypeEOA,
		FunderAddress: otherFunder,
	}
	w, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("EOA 的 funder 不一致只应警告，不应阻断: %v", err)
	}
	if len(w.Warnings) != 1 {
		t.Fatalf("应产生 1 条警告，实际 %d", len(w.Warnings))
	}
	if !strings.Contains(w.Warnings[0], "不一致") {
		t.Errorf("警告文案应指出地址不一致: %s", w.Warnings[0])
	}
}

func TestResolveEOAFunderMatchesNoWarning(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureTypeEOA,
		FunderAddress: testAddress,
	}
	w, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("funder 等于签名地址的 EOA 配置应通过: %v", err)
	}
	if len(w.Warnings) != 0 {
		t.Errorf("地址一致时不应警告: %v", w.Warnings)
	}
}

func TestResolveEmailProxyRequiresFunder(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureTypeEmailProxy,
	}
	_, err := cfg.Resolve()
	if err == nil {
		t.Fatal("EmailProxy 缺少 funder 应返回配置错误")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("错误类型应为 ConfigError: %T", err)
	}
	if cfgErr.Field != "funderAddress" {
		t.Errorf("错误应指向 funderAddress 字段: %s", cfgErr.Field)
	}
}

func TestResolveEmailProxy(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureTypeEmailProxy,
		FunderAddress: otherFunder,
	}
	w, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("EmailProxy 配置应通过校验: %v", err)
	}
	if w.Funder() != otherFunder {
		t.Errorf("funder 地址不符: %s", w.Funder())
	}
	if w.SignatureType() != types.SignatureTypeEmailProxy {
		t.Errorf("签名类型不符: %v", w.SignatureType())
	}
}

func TestResolveEmailProxyFunderEqualsSignerWarns(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureTypeEmailProxy,
		FunderAddress: testAddress,
	}
	w, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("funder 等于签名地址只应警告: %v", err)
	}
	if len(w.Warnings) != 1 {
		t.Errorf("应产生 1 条警告，实际 %d", len(w.Warnings))
	}
}

func TestResolveGnosisSafeRequiresFunder(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureTypeGnosisSafe,
	}
	if _, err := cfg.Resolve(); err == nil {
		t.Fatal("GnosisSafe 缺少 Safe 地址应返回配置错误")
	}

	cfg.FunderAddress = otherFunder
	w, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("GnosisSafe 配置应通过校验: %v", err)
	}
	if _, ok := w.Scheme.(GnosisSafeScheme); !ok {
		t.Errorf("方案类型应为 GnosisSafe: %T", w.Scheme)
	}
}

func TestResolveUnknownScheme(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureType(9),
	}
	if _, err := cfg.Resolve(); err == nil {
		t.Fatal("未知签名方案应返回配置错误")
	}
}

func TestResolveMissingKey(t *testing.T) {
	cfg := &Config{SignatureType: types.SignatureTypeEOA}
	if _, err := cfg.Resolve(); err == nil {
		t.Fatal("缺少私钥与助记词应返回配置错误")
	}
}

func TestResolveBadKeyErrorOmitsSecret(t *testing.T) {
	secret := "deadbeef-not-a-key"
	cfg := &Config{
		PrivateKey:    secret,
		SignatureType: types.SignatureTypeEOA,
	}
	_, err := cfg.Resolve()
	if err == nil {
		t.Fatal("非法私钥应返回配置错误")
	}
	if strings.Contains(err.Error(), secret) {
		t.Error("错误信息不应包含私钥内容")
	}
}

func TestResolveBadFunderAddress(t *testing.T) {
	cfg := &Config{
		PrivateKey:    testKeyHex,
		SignatureType: types.SignatureTypeEmailProxy,
		FunderAddress: "not-an-address",
	}
	if _, err := cfg.Resolve(); err == nil {
		t.Fatal("非法 funder 地址应返回配置错误")
	}
}

func TestResolveFromMnemonic(t *testing.T) {
	cfg := &Config{
		Mnemonic:      testMnemonic,
		SignatureType: types.SignatureTypeEOA,
	}
	w, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("助记词配置应通过校验: %v", err)
	}
	if w.Address.Hex() != "0x9858EfFD232B4033E47d90003D41EC34EcaEda94" {
		t.Errorf("助记词派生地址不符: %s", w.Address.Hex())
	}
}
