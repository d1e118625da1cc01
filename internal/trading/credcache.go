package trading

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/betbot/polytrader/clob/types"
	"github.com/betbot/polytrader/pkg/secretstore"
)

// credKeyPrefix 凭证在密钥库中的 key 前缀
const credKeyPrefix = "clob:creds:"

// SecretCredentialCache 基于加密 KV 库的凭证缓存
// 缓存只是加速：命中失败时回落到派生流程，派生结果与缓存内容等价
type SecretCredentialCache struct {
	store *secretstore.Store
}

// NewSecretCredentialCache 创建凭证缓存
func NewSecretCredentialCache(store *secretstore.Store) *SecretCredentialCache {
	return &SecretCredentialCache{store: store}
}

// Load 读取指定签名地址的缓存凭证
func (c *SecretCredentialCache) Load(address string) (*types.ApiKeyCreds, bool, error) {
	raw, ok, err := c.store.GetString(credKey(address))
	if err != nil {
		return nil, false, fmt.Errorf("读取凭证缓存失败: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var creds types.ApiKeyCreds
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, false, fmt.Errorf("解析缓存凭证失败: %w", err)
	}
	if !creds.Complete() {
		return nil, false, nil
	}
	return &creds, true, nil
}

// Store 写入指定签名地址的凭证
func (c *SecretCredentialCache) Store(address string, creds *types.ApiKeyCreds) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("序列化凭证失败: %w", err)
	}
	return c.store.SetString(credKey(address), string(raw))
}

// Invalidate 删除指定签名地址的缓存凭证（凭证被交易所拒绝后调用）
func (c *SecretCredentialCache) Invalidate(address string) error {
	return c.store.Delete(credKey(address))
}

func credKey(address string) string {
	return credKeyPrefix + strings.ToLower(address)
}
