package types

// L2HeaderArgs L2 认证头参数
type L2HeaderArgs struct {
	Method      string
	RequestPath string
	Body        *string
}

// L1PolyHeader L1 认证头（EIP712 签名验证）
type L1PolyHeader struct {
	PolyAddress   string `json:"POLY_ADDRESS"`
	PolySignature string `json:"POLY_SIGNATURE"`
	PolyTimestamp string `json:"POLY_TIMESTAMP"`
	PolyNonce     string `json:"POLY_NONCE"`
}

// ToMap 转换为请求头 map
func (h *L1PolyHeader) ToMap() map[string]string {
	return map[string]string{
		"POLY_ADDRESS":   h.PolyAddress,
		"POLY_SIGNATURE": h.PolySignature,
		"POLY_TIMESTAMP": h.PolyTimestamp,
		"POLY_NONCE":     h.PolyNonce,
	}
}

// L2PolyHeader L2 认证头（API 密钥 HMAC 验证）
type L2PolyHeader struct {
	PolyAddress    string `json:"POLY_ADDRESS"`
	PolySignature  string `json:"POLY_SIGNATURE"`
	PolyTimestamp  string `json:"POLY_TIMESTAMP"`
	PolyAPIKey     string `json:"POLY_API_KEY"`
	PolyPassphrase string `json:"POLY_PASSPHRASE"`
}

// ToMap 转换为请求头 map
func (h *L2PolyHeader) ToMap() map[string]string {
	return map[string]string{
		"POLY_ADDRESS":    h.PolyAddress,
		"POLY_SIGNATURE":  h.PolySignature,
		"POLY_TIMESTAMP":  h.PolyTimestamp,
		"POLY_API_KEY":    h.PolyAPIKey,
		"POLY_PASSPHRASE": h.PolyPassphrase,
	}
}
