package trading

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betbot/polytrader/clob/client"
	"github.com/betbot/polytrader/clob/types"
	"github.com/betbot/polytrader/pkg/logger"
)

// ErrorKind 提交失败分类（对外输出，驱动上层的提示文案）
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "Validation"
	ErrorKindInvalidSignature  ErrorKind = "InvalidSignature"
	ErrorKindInsufficientFunds ErrorKind = "InsufficientFunds"
	ErrorKindTransient         ErrorKind = "Transient"
	ErrorKindAmbiguous         ErrorKind = "Ambiguous"
	ErrorKindRejected          ErrorKind = "Rejected"
)

// OrderRequest 下单请求
type OrderRequest struct {
	TokenID string
	// Price 概率计价，闭区间 [0, 1]
	Price float64
	// Size 合约数量，必须为正
	Size float64
	Side types.Side
	// OrderType 执行类型，为空默认 GTC
	OrderType types.OrderType
	// TickSize 市场价格精度，为空默认 0.01
	TickSize types.TickSize
	NegRisk  bool
}

// SubmissionResult 提交结果，订单本身在构建后不再变更
type SubmissionResult struct {
	Accepted bool      `json:"accepted"`
	OrderID  string    `json:"orderId,omitempty"`
	Status   string    `json:"status,omitempty"`
	Error    ErrorKind `json:"error,omitempty"`
	ErrorMsg string    `json:"errorMsg,omitempty"`
	// Ref 本地幂等引用，写入提交历史，用于事后对账
	Ref string `json:"ref"`
}

// SubmissionRecord 提交历史记录
type SubmissionRecord struct {
	Ref       string
	Address   string
	TokenID   string
	Side      string
	Price     float64
	Size      float64
	OrderType string
	OrderID   string
	Status    string
	ErrorMsg  string
	CreatedAt time.Time
}

// History 提交历史存储
type History interface {
	RecordAttempt(ctx context.Context, rec *SubmissionRecord) error
	UpdateOutcome(ctx context.Context, ref string, status string, orderID string, errMsg string) error
}

// Engine 订单构建与提交引擎
type Engine struct {
	session *Session
	history History
	// maxTries 临时失败的最大尝试次数（含首次）
	maxTries uint
}

// NewEngine 创建提交引擎；history 可为 nil
func NewEngine(session *Session, history History) *Engine {
	return &Engine{
		session:  session,
		history:  history,
		maxTries: 3,
	}
}

// Submit 构建、签名并提交订单
// 参数校验在任何签名和网络请求之前完成；签名无效类拒绝不做自动重试
func (e *Engine) Submit(ctx context.Context, req *OrderRequest) (*SubmissionResult, error) {
	if err := validateRequest(req); err != nil {
		return &SubmissionResult{Error: ErrorKindValidation, ErrorMsg: err.Error()}, err
	}

	if err := e.session.ReadyToSubmit(); err != nil {
		return &SubmissionResult{Error: ErrorKindValidation, ErrorMsg: err.Error()}, err
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = types.OrderTypeGTC
	}

	options := &types.CreateOrderOptions{TickSize: req.TickSize}
	if req.NegRisk {
		negRisk := true
		options.NegRisk = &negRisk
	}

	signedOrder, err := e.session.Client().BuildOrder(&types.UserOrder{
		TokenID: req.TokenID,
		Price:   req.Price,
		Size:    req.Size,
		Side:    req.Side,
	}, options)
	if err != nil {
		verr := &ValidationError{Field: "order", Reason: err.Error()}
		return &SubmissionResult{Error: ErrorKindValidation, ErrorMsg: verr.Error()}, verr
	}

	ref := uuid.NewString()
	e.recordAttempt(ctx, ref, req, orderType)

	result, err := e.postWithRetry(ctx, ref, signedOrder, orderType)
	if result != nil {
		result.Ref = ref
		e.updateOutcome(ctx, ref, result)
	}
	return result, err
}

// postWithRetry 提交已签名订单，临时失败做有界退避重试
// 传输层失败视为结果不确定，先对账再决定是否重试，绝不盲目重发
func (e *Engine) postWithRetry(ctx context.Context, ref string, order *types.SignedOrder, orderType types.OrderType) (*SubmissionResult, error) {
	result, err := backoff.Retry(ctx, func() (*SubmissionResult, error) {
		resp, postErr := e.session.Client().PostOrder(ctx, order, orderType)
		if postErr == nil {
			res, fatal := classifyResponse(resp)
			if fatal != nil {
				return nil, backoff.Permanent(fatal)
			}
			return res, nil
		}

		var apiErr *client.APIError
		if errors.As(postErr, &apiErr) {
			// 收到确定响应，订单未被接受，可按类别处理
			res, fatal := classifyAPIError(apiErr)
			if fatal != nil {
				return nil, backoff.Permanent(fatal)
			}
			if res != nil {
				return res, nil
			}
			logger.Warnf("订单提交临时失败 (ref=%s)，准备重试: %v", ref, postErr)
			return nil, postErr
		}

		// 传输层失败：请求可能已被接受，先对账
		logger.Warnf("订单提交响应丢失 (ref=%s)，开始对账: %v", ref, postErr)
		matched, recErr := e.reconcile(ctx, order)
		if recErr != nil {
			return nil, backoff.Permanent(error(&AmbiguousError{Ref: ref, Err: postErr}))
		}
		if matched != nil {
			logger.Infof("对账发现订单已被接受 (ref=%s, orderID=%s)", ref, matched.ID)
			return &SubmissionResult{Accepted: true, OrderID: matched.ID, Status: matched.Status}, nil
		}
		// 对账确认订单未入簿，重试是安全的
		return nil, postErr
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(e.maxTries))

	if err != nil {
		var ambiguous *AmbiguousError
		if errors.As(err, &ambiguous) {
			return &SubmissionResult{Error: ErrorKindAmbiguous, ErrorMsg: ambiguous.Error()}, ambiguous
		}
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return &SubmissionResult{Error: ErrorKindInvalidSignature, ErrorMsg: authErr.Error()}, authErr
		}
		var insufficient *insufficientFundsError
		if errors.As(err, &insufficient) {
			return &SubmissionResult{Error: ErrorKindInsufficientFunds, ErrorMsg: insufficient.Error()}, insufficient
		}
		return &SubmissionResult{Error: ErrorKindTransient, ErrorMsg: err.Error()}, err
	}

	return result, nil
}

// reconcile 在挂单中查找与本次签名订单完全一致的订单
// maker、方向、token、价格、数量必须全部吻合；同 token 同方向可能存在
// 历史挂单，只按 maker/side 匹配会把旧单误认成本次提交
func (e *Engine) reconcile(ctx context.Context, order *types.SignedOrder) (*types.OpenOrder, error) {
	open, err := e.session.Client().GetOpenOrders(ctx, &types.OpenOrderParams{
		AssetID: &order.TokenID,
	})
	if err != nil {
		return nil, fmt.Errorf("对账查询挂单失败: %w", err)
	}

	price, size, err := signedOrderPriceSize(order)
	if err != nil {
		return nil, fmt.Errorf("对账解析订单金额失败: %w", err)
	}

	for i := range open {
		o := &open[i]
		if !strings.EqualFold(o.MakerAddress, order.Maker) {
			continue
		}
		if !strings.EqualFold(o.Side, string(order.Side)) {
			continue
		}
		if o.AssetID != order.TokenID {
			continue
		}
		oPrice, err := decimal.NewFromString(o.Price)
		if err != nil {
			continue
		}
		oSize, err := decimal.NewFromString(o.OriginalSize)
		if err != nil {
			continue
		}
		if !oPrice.Equal(price) || !oSize.Equal(size) {
			continue
		}
		return o, nil
	}
	return nil, nil
}

// signedOrderPriceSize 从签名订单的链上金额反推价格与数量
func signedOrderPriceSize(order *types.SignedOrder) (price, size decimal.Decimal, err error) {
	makerAmt, err := decimal.NewFromString(order.MakerAmount)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("解析 makerAmount 失败: %w", err)
	}
	takerAmt, err := decimal.NewFromString(order.TakerAmount)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("解析 takerAmount 失败: %w", err)
	}

	if order.Side == types.SideBuy {
		// 买入：taker 是 token 数量，maker 是支付的 USDC
		if takerAmt.IsZero() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("takerAmount 为零")
		}
		return makerAmt.Div(takerAmt), takerAmt.Div(collateralScale), nil
	}
	// 卖出：maker 是 token 数量，taker 是收到的 USDC
	if makerAmt.IsZero() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("makerAmount 为零")
	}
	return takerAmt.Div(makerAmt), makerAmt.Div(collateralScale), nil
}

// insufficientFundsError 余额或授权不足被交易所拒单
type insufficientFundsError struct {
	msg string
}

func (e *insufficientFundsError) Error() string {
	return fmt.Sprintf("余额不足被拒单: %s", e.msg)
}

// classifyResponse 分类交易所的 2xx 响应
func classifyResponse(resp *types.OrderResponse) (*SubmissionResult, error) {
	if resp.Success {
		return &SubmissionResult{
			Accepted: true,
			OrderID:  resp.OrderID,
			Status:   resp.Status,
		}, nil
	}

	msg := resp.ErrorMsg
	switch {
	case isInsufficientFundsMsg(msg):
		return nil, &insufficientFundsError{msg: msg}
	case isSignatureMsg(msg):
		return nil, &AuthError{
			Kind: AuthInvalidSignature,
			Hint: "签名被拒绝后重发同一订单无法自愈，重新运行诊断流程定位方案/funder 配置",
			Err:  fmt.Errorf("交易所拒绝订单签名: %s", msg),
		}
	default:
		return &SubmissionResult{Error: ErrorKindRejected, ErrorMsg: msg}, nil
	}
}

// classifyAPIError 分类非 2xx 响应
// 返回 (结果, fatal 错误)；两者都为 nil 表示可重试
func classifyAPIError(apiErr *client.APIError) (*SubmissionResult, error) {
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return nil, &AuthError{
			Kind: AuthInvalidSignature,
			Hint: "签名被拒绝后重发同一订单无法自愈，重新运行诊断流程定位方案/funder 配置",
			Err:  apiErr,
		}
	case isInsufficientFundsMsg(apiErr.Body):
		return nil, &insufficientFundsError{msg: apiErr.Body}
	case apiErr.StatusCode >= 500:
		// 服务端临时故障，允许重试
		return nil, nil
	default:
		return &SubmissionResult{
			Error:    ErrorKindRejected,
			ErrorMsg: fmt.Sprintf("HTTP %d: %s", apiErr.StatusCode, apiErr.Body),
		}, nil
	}
}

func isInsufficientFundsMsg(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not enough balance") ||
		strings.Contains(lower, "insufficient") ||
		strings.Contains(lower, "allowance")
}

func isSignatureMsg(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "signature") || strings.Contains(lower, "unauthorized")
}

// validateRequest 校验订单参数，不发起任何网络请求
func validateRequest(req *OrderRequest) error {
	if req == nil {
		return &ValidationError{Field: "order", Reason: "请求为空"}
	}
	if strings.TrimSpace(req.TokenID) == "" {
		return &ValidationError{Field: "tokenId", Reason: "tokenId 不能为空"}
	}
	if req.Price < 0 || req.Price > 1 {
		return &ValidationError{Field: "price", Reason: fmt.Sprintf("价格 %v 超出 [0, 1] 区间", req.Price)}
	}
	if req.Size <= 0 {
		return &ValidationError{Field: "size", Reason: fmt.Sprintf("数量 %v 必须为正", req.Size)}
	}
	if req.Side != types.SideBuy && req.Side != types.SideSell {
		return &ValidationError{Field: "side", Reason: "side 必须为 BUY 或 SELL"}
	}
	return nil
}

func (e *Engine) recordAttempt(ctx context.Context, ref string, req *OrderRequest, orderType types.OrderType) {
	if e.history == nil {
		return
	}
	err := e.history.RecordAttempt(ctx, &SubmissionRecord{
		Ref:       ref,
		Address:   e.session.Wallet().Address.Hex(),
		TokenID:   req.TokenID,
		Side:      string(req.Side),
		Price:     req.Price,
		Size:      req.Size,
		OrderType: string(orderType),
		Status:    "pending",
		CreatedAt: time.Now(),
	})
	if err != nil {
		logger.Warnf("写入提交历史失败 (ref=%s): %v", ref, err)
	}
}

func (e *Engine) updateOutcome(ctx context.Context, ref string, result *SubmissionResult) {
	if e.history == nil {
		return
	}
	status := result.Status
	if status == "" {
		if result.Accepted {
			status = "accepted"
		} else {
			status = "failed"
		}
	}
	if err := e.history.UpdateOutcome(ctx, ref, status, result.OrderID, result.ErrorMsg); err != nil {
		logger.Warnf("更新提交历史失败 (ref=%s): %v", ref, err)
	}
}
