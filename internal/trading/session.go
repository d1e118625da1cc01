package trading

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"

	"github.com/betbot/polytrader/clob/client"
	"github.com/betbot/polytrader/clob/types"
	"github.com/betbot/polytrader/internal/wallet"
	"github.com/betbot/polytrader/pkg/logger"
)

// DefaultHealthWindow 余额探针健康窗口
const DefaultHealthWindow = 5 * time.Minute

// collateralScale USDC 原始单位到小数的换算（6 位精度）
var collateralScale = decimal.New(1, 6)

// CredentialCache 跨进程的凭证缓存
// 实现方必须保持派生幂等语义：同一签名地址只对应一份逻辑凭证
type CredentialCache interface {
	Load(address string) (*types.ApiKeyCreds, bool, error)
	Store(address string, creds *types.ApiKeyCreds) error
	Invalidate(address string) error
}

// EstablishOptions 会话建立参数
type EstablishOptions struct {
	Host    string
	ChainID types.Chain
	// Nonce 凭证派生 nonce，同一 nonce 始终派生出同一份凭证
	Nonce int64
	// MaxTries 临时失败的最大尝试次数（含首次），0 取默认值 3
	MaxTries uint
	// HealthWindow 探针健康窗口，0 取默认值
	HealthWindow time.Duration
	// Cache 可选的凭证缓存
	Cache CredentialCache
}

// Session 一个账号的认证会话
// 凭证归本会话独占，不跨账号流水线共享
type Session struct {
	wallet *wallet.Wallet
	client *client.Client

	mu          sync.Mutex
	probed      bool
	lastProbeOK time.Time

	healthWindow time.Duration
}

// Establish 建立认证会话：解析签名地址、绑定方案与 funder、获取 API 凭证
// 凭证获取先派生后创建，重复调用不会产生重复凭证
func Establish(ctx context.Context, w *wallet.Wallet, opts EstablishOptions) (*Session, error) {
	if w == nil {
		return nil, fmt.Errorf("钱包未解析")
	}

	healthWindow := opts.HealthWindow
	if healthWindow <= 0 {
		healthWindow = DefaultHealthWindow
	}

	c := client.NewClient(opts.Host, opts.ChainID, w.PrivateKey, &client.Options{
		SignatureType: w.SignatureType(),
		FunderAddress: w.Funder(),
	})

	s := &Session{
		wallet:       w,
		client:       c,
		healthWindow: healthWindow,
	}

	address := w.Address.Hex()

	// 先查缓存，避免重复向交易所请求凭证
	// 缓存命中的凭证先验证再复用，被拒绝时作废并回落到派生流程
	if opts.Cache != nil {
		creds, ok, err := opts.Cache.Load(address)
		if err != nil {
			logger.Warnf("读取凭证缓存失败: %v", err)
		} else if ok && creds.Complete() {
			c.SetCreds(creds)
			verr := validateCreds(ctx, c)
			if verr == nil {
				logger.WithField("address", address).Debug("使用缓存的 API 凭证")
				return s, nil
			}
			if client.IsAuthStatus(verr) {
				logger.Warnf("缓存凭证已被交易所拒绝，作废后重新派生: %v", verr)
				if err := opts.Cache.Invalidate(address); err != nil {
					logger.Warnf("作废缓存凭证失败: %v", err)
				}
			} else {
				logger.Warnf("缓存凭证验证未完成，回落到派生流程: %v", verr)
			}
			c.SetCreds(nil)
		}
	}

	maxTries := opts.MaxTries
	if maxTries == 0 {
		maxTries = 3
	}

	creds, err := backoff.Retry(ctx, func() (*types.ApiKeyCreds, error) {
		creds, err := c.CreateOrDeriveAPIKey(ctx, opts.Nonce)
		if err != nil {
			authErr := classifyEstablishErr(err)
			if !authErr.Retryable() {
				return nil, backoff.Permanent(error(authErr))
			}
			logger.Warnf("获取 API 凭证临时失败，准备重试: %v", err)
			return nil, authErr
		}
		return creds, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxTries))
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, classifyEstablishErr(err)
	}

	c.SetCreds(creds)
	logger.WithField("address", address).Info("API 凭证已就绪")

	if opts.Cache != nil {
		if err := opts.Cache.Store(address, creds); err != nil {
			logger.Warnf("写入凭证缓存失败: %v", err)
		}
	}

	return s, nil
}

// validateCreds 用最轻量的已认证只读请求验证凭证是否仍被交易所接受
func validateCreds(ctx context.Context, c *client.Client) error {
	_, err := c.GetBalanceAllowance(ctx, &types.BalanceAllowanceParams{
		AssetType: types.AssetTypeCollateral,
	})
	return err
}

// classifyEstablishErr 分类会话建立阶段的失败
func classifyEstablishErr(err error) *AuthError {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return &AuthError{
				Kind: AuthCredentialRejected,
				Hint: "凭证端点拒绝该签名，检查私钥与链 ID 配置",
				Err:  err,
			}
		case apiErr.StatusCode >= 500:
			return &AuthError{Kind: AuthTransient, Err: err}
		default:
			return &AuthError{
				Kind: AuthBadKey,
				Hint: "交易所拒绝该签名私钥，检查私钥格式与账户状态",
				Err:  err,
			}
		}
	}
	// 非 HTTP 层错误：网络、超时、取消
	return &AuthError{Kind: AuthTransient, Err: err}
}

// BalanceStatus 余额探针结果
type BalanceStatus struct {
	// Balance 抵押品余额（USDC）
	Balance decimal.Decimal
	// Allowance 交易所合约授权额度（USDC）
	Allowance decimal.Decimal
	// Warning 认证通过但需要人工关注的情况（如余额为 0）
	Warning string
}

// ProbeBalance 余额探针：最便宜的走完整签名路径的只读请求
// 401 类响应是签名配置错误的确凿证据，而不是交易错误
func (s *Session) ProbeBalance(ctx context.Context) (*BalanceStatus, error) {
	resp, err := s.client.GetBalanceAllowance(ctx, &types.BalanceAllowanceParams{
		AssetType: types.AssetTypeCollateral,
	})
	if err != nil {
		return nil, s.classifyProbeErr(err)
	}

	rawBalance, err := decimal.NewFromString(resp.Balance)
	if err != nil {
		return nil, fmt.Errorf("解析余额失败: %w", err)
	}
	rawAllowance, err := decimal.NewFromString(resp.Allowance)
	if err != nil {
		return nil, fmt.Errorf("解析授权额度失败: %w", err)
	}

	status := &BalanceStatus{
		Balance:   rawBalance.Div(collateralScale),
		Allowance: rawAllowance.Div(collateralScale),
	}

	// 认证已通过，零余额只是警告
	if status.Balance.IsZero() {
		status.Warning = "签名验证通过，但抵押品余额为 0，下单前需充值"
	} else if status.Allowance.IsZero() {
		status.Warning = "签名验证通过，但交易所合约授权额度为 0，需先授权 USDC"
	}

	s.mu.Lock()
	s.probed = true
	s.lastProbeOK = time.Now()
	s.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"address": s.wallet.Address.Hex(),
		"balance": status.Balance.String(),
	}).Debug("余额探针通过")

	return status, nil
}

// classifyProbeErr 分类余额探针失败
// 授权类失败归为 InvalidSignature，提示文案按方案给出具体排查方向
func (s *Session) classifyProbeErr(err error) error {
	if client.IsAuthStatus(err) {
		return &AuthError{
			Kind: AuthInvalidSignature,
			Hint: s.remediationHint(),
			Err:  err,
		}
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 {
			return &AuthError{Kind: AuthTransient, Err: err}
		}
		// 其余 4xx 是请求本身的问题，不是签名配置错误
		return fmt.Errorf("余额探针请求被拒绝: %w", err)
	}

	// 超时归为临时失败，不得误判为签名无效
	return &AuthError{Kind: AuthTransient, Err: err}
}

// remediationHint 按签名方案给出针对性的排查提示
func (s *Session) remediationHint() string {
	switch s.wallet.Scheme.(type) {
	case wallet.EmailProxyScheme:
		return "检查 funder（代理合约）地址是否与该私钥的 Polymarket 账户配对，以及签名方案是否确为 EmailProxy"
	case wallet.GnosisSafeScheme:
		return "检查 Safe 合约地址是否正确，且该私钥是 Safe 的 owner"
	default:
		return "检查私钥是否正确；若账户通过邮箱或 Safe 创建，应改用对应的签名方案并配置 funder 地址"
	}
}

// Healthy 健康信号：最近一次成功探针落在窗口内
func (s *Session) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probed && time.Since(s.lastProbeOK) <= s.healthWindow
}

// ReadyToSubmit 会话生命周期内至少通过一次余额探针后才允许下单
func (s *Session) ReadyToSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.probed {
		return fmt.Errorf("会话尚未通过余额探针，先执行诊断或探针再下单")
	}
	return nil
}

// Wallet 返回会话绑定的钱包
func (s *Session) Wallet() *wallet.Wallet {
	return s.wallet
}

// Client 返回底层 CLOB 客户端
func (s *Session) Client() *client.Client {
	return s.client
}

// Creds 返回会话持有的 API 凭证
func (s *Session) Creds() *types.ApiKeyCreds {
	return s.client.Creds()
}
