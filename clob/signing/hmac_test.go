package signing

import (
	"encoding/base64"
	"strings"
	"testing"
)

// 测试用密钥（base64url 编码的 32 字节）
const testSecret = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

func TestBuildPolyHmacSignatureDeterministic(t *testing.T) {
	sig1, err := BuildPolyHmacSignature(testSecret, 1700000000, "GET", "/balance-allowance", nil)
	if err != nil {
		t.Fatalf("构建 HMAC 签名失败: %v", err)
	}
	sig2, err := BuildPolyHmacSignature(testSecret, 1700000000, "GET", "/balance-allowance", nil)
	if err != nil {
		t.Fatalf("构建 HMAC 签名失败: %v", err)
	}
	if sig1 != sig2 {
		t.Errorf("相同输入应产生相同签名: %s != %s", sig1, sig2)
	}
}

func TestBuildPolyHmacSignatureURLSafe(t *testing.T) {
	body := `{"orderID":"0x123"}`
	sig, err := BuildPolyHmacSignature(testSecret, 1700000000, "POST", "/order", &body)
	if err != nil {
		t.Fatalf("构建 HMAC 签名失败: %v", err)
	}

	if strings.ContainsAny(sig, "+/") {
		t.Errorf("签名应使用 URL 安全的 base64 字符集: %s", sig)
	}
	if _, err := base64.URLEncoding.DecodeString(sig); err != nil {
		t.Errorf("签名应是合法的 base64url: %v", err)
	}
}

func TestBuildPolyHmacSignatureVariesWithInput(t *testing.T) {
	base, err := BuildPolyHmacSignature(testSecret, 1700000000, "GET", "/balance-allowance", nil)
	if err != nil {
		t.Fatalf("构建 HMAC 签名失败: %v", err)
	}

	body := `{"x":1}`
	withBody, err := BuildPolyHmacSignature(testSecret, 1700000000, "GET", "/balance-allowance", &body)
	if err != nil {
		t.Fatalf("构建 HMAC 签名失败: %v", err)
	}
	if base == withBody {
		t.Error("带 body 的签名应与不带 body 的不同")
	}

	otherTS, err := BuildPolyHmacSignature(testSecret, 1700000001, "GET", "/balance-allowance", nil)
	if err != nil {
		t.Fatalf("构建 HMAC 签名失败: %v", err)
	}
	if base == otherTS {
		t.Error("不同时间戳的签名应不同")
	}
}

func TestBuildPolyHmacSignatureBadSecret(t *testing.T) {
	if _, err := BuildPolyHmacSignature("not-base64!!!", 1700000000, "GET", "/time", nil); err == nil {
		t.Error("非法密钥应返回错误")
	}
}
