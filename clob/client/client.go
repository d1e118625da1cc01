package client

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betbot/polytrader/clob/signing"
	"github.com/betbot/polytrader/clob/types"
)

// Client CLOB 客户端
// 持有一个账号的完整认证上下文：私钥（L1）、API 凭证（L2）、签名方案与 funder 地址
type Client struct {
	host          string
	chainID       types.Chain
	privateKey    *ecdsa.PrivateKey
	creds         *types.ApiKeyCreds
	signatureType types.SignatureType
	funderAddress string
	httpClient    *httpClient
}

// Options 客户端可选配置
type Options struct {
	// SignatureType 签名方案（默认 EOA）
	SignatureType types.SignatureType
	// FunderAddress 资金持有者地址（EmailProxy/GnosisSafe 必需）
	FunderAddress string
	// Creds 已有的 API 凭证（为空则需调用 CreateOrDeriveAPIKey）
	Creds *types.ApiKeyCreds
}

// NewClient 创建新的 CLOB 客户端
func NewClient(host string, chainID types.Chain, privateKey *ecdsa.PrivateKey, opts *Options) *Client {
	c := &Client{
		host:       strings.TrimSuffix(host, "/"),
		chainID:    chainID,
		privateKey: privateKey,
		httpClient: newHTTPClient(host),
	}
	if opts != nil {
		c.signatureType = opts.SignatureType
		c.funderAddress = opts.FunderAddress
		c.creds = opts.Creds
	}
	return c
}

// SetCreds 设置 API 凭证（派生/创建成功后调用）
func (c *Client) SetCreds(creds *types.ApiKeyCreds) {
	c.creds = creds
}

// Creds 返回当前 API 凭证
func (c *Client) Creds() *types.ApiKeyCreds {
	return c.creds
}

// Host 返回主机地址
func (c *Client) Host() string {
	return c.host
}

// ChainID 返回链 ID
func (c *Client) ChainID() types.Chain {
	return c.chainID
}

// SignatureType 返回签名方案
func (c *Client) SignatureType() types.SignatureType {
	return c.signatureType
}

// FunderAddress 返回 funder 地址（未设置时为空串）
func (c *Client) FunderAddress() string {
	return c.funderAddress
}

// Address 返回签名地址（从私钥计算）
func (c *Client) Address() (common.Address, error) {
	if c.privateKey == nil {
		return common.Address{}, ErrNoPrivateKey
	}
	return signing.GetAddressFromPrivateKey(c.privateKey), nil
}

// CanL1Auth 检查是否可以进行 L1 认证
func (c *Client) CanL1Auth() error {
	if c.privateKey == nil {
		return ErrNoPrivateKey
	}
	return nil
}

// CanL2Auth 检查是否可以进行 L2 认证
func (c *Client) CanL2Auth() error {
	if !c.creds.Complete() {
		return ErrNoCreds
	}
	return nil
}
