package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/betbot/polytrader/clob/types"
	"github.com/betbot/polytrader/internal/diagnose"
	"github.com/betbot/polytrader/internal/notify"
	"github.com/betbot/polytrader/internal/storage"
	"github.com/betbot/polytrader/internal/trading"
	"github.com/betbot/polytrader/internal/wallet"
	"github.com/betbot/polytrader/pkg/config"
	"github.com/betbot/polytrader/pkg/logger"
)

// RuntimeConfigPath 运行期配置落盘路径
const RuntimeConfigPath = "data/config.json"

// Server HTTP 服务
// 会话与引擎在启动时注入，配置热更新后需重新诊断才会重建会话
type Server struct {
	cfg      *config.Config
	store    *storage.SubmissionStore
	notifier notify.Notifier
	cache    trading.CredentialCache

	mu      sync.RWMutex
	session *trading.Session
	engine  *trading.Engine
}

// New 创建 HTTP 服务
func New(cfg *config.Config, store *storage.SubmissionStore, notifier notify.Notifier, cache trading.CredentialCache) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		cache:    cache,
	}
}

// SetSession 注入已建立的会话
func (s *Server) SetSession(session *trading.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	if session != nil {
		s.engine = trading.NewEngine(session, s.store)
	} else {
		s.engine = nil
	}
}

func (s *Server) currentSession() (*trading.Session, *trading.Engine) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.engine
}

// Router 构建路由
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/status", s.handleStatus)
		api.POST("/diagnose", s.handleDiagnose)
		api.POST("/orders", s.handleSubmitOrder)
		api.GET("/history", s.handleHistory)
		api.GET("/config", s.handleGetConfig)
		api.PUT("/config", s.handlePutConfig)
	}

	return r
}

// Run 启动 HTTP 服务
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	logger.Infof("HTTP 服务启动: %s", addr)
	return s.Router().Run(addr)
}

// handleHealth 健康检查：会话已建立且探针在窗口内成功
func (s *Server) handleHealth(c *gin.Context) {
	session, _ := s.currentSession()
	healthy := session != nil && session.Healthy()

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy})
}

// handleStatus 当前会话状态
func (s *Server) handleStatus(c *gin.Context) {
	session, _ := s.currentSession()
	if session == nil {
		c.JSON(http.StatusOK, gin.H{
			"session": false,
			"healthy": false,
		})
		return
	}

	w := session.Wallet()
	c.JSON(http.StatusOK, gin.H{
		"session":  true,
		"healthy":  session.Healthy(),
		"address":  w.Address.Hex(),
		"scheme":   w.SignatureType().String(),
		"funder":   w.Funder(),
		"creds":    session.Creds().Complete(),
		"warnings": w.Warnings,
	})
}

// handleDiagnose 运行诊断流水线，通过后刷新会话
func (s *Server) handleDiagnose(c *gin.Context) {
	walletCfg := s.walletConfig()
	opts := s.establishOptions()

	runner := diagnose.NewRunner(walletCfg, opts)
	report := runner.Run(c.Request.Context())

	if s.notifier != nil {
		text := "诊断全部通过，签名路径可用"
		if !report.Healthy {
			text = "诊断未通过，根因: " + report.RootCause
		}
		if err := s.notifier.Send(c.Request.Context(), text); err != nil {
			logger.Warnf("发送诊断通知失败: %v", err)
		}
	}

	// 诊断通过时重建会话，让交易路径复用已验证的配置
	if report.Healthy {
		if w, err := walletCfg.Resolve(); err == nil {
			if session, err := trading.Establish(c.Request.Context(), w, opts); err == nil {
				if _, err := session.ProbeBalance(c.Request.Context()); err == nil {
					s.SetSession(session)
				}
			}
		}
	}

	c.JSON(http.StatusOK, report)
}

// orderPayload 下单请求体
type orderPayload struct {
	TokenID   string  `json:"token_id" binding:"required"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Side      string  `json:"side" binding:"required"`
	OrderType string  `json:"order_type"`
	TickSize  string  `json:"tick_size"`
	NegRisk   bool    `json:"neg_risk"`
}

// handleSubmitOrder 提交订单
func (s *Server) handleSubmitOrder(c *gin.Context) {
	_, engine := s.currentSession()
	if engine == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "会话未建立，先调用 /api/diagnose"})
		return
	}

	var payload orderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("请求体无效: %v", err)})
		return
	}

	req := &trading.OrderRequest{
		TokenID:   payload.TokenID,
		Price:     payload.Price,
		Size:      payload.Size,
		Side:      types.Side(payload.Side),
		OrderType: types.OrderType(payload.OrderType),
		TickSize:  types.TickSize(payload.TickSize),
		NegRisk:   payload.NegRisk,
	}

	result, err := engine.Submit(c.Request.Context(), req)
	s.notifyResult(c, req, result)

	if err != nil {
		status := http.StatusBadGateway
		switch result.Error {
		case trading.ErrorKindValidation:
			status = http.StatusBadRequest
		case trading.ErrorKindInvalidSignature:
			status = http.StatusUnauthorized
		case trading.ErrorKindInsufficientFunds:
			status = http.StatusPaymentRequired
		}
		c.JSON(status, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// notifyResult 推送下单结果通知
func (s *Server) notifyResult(c *gin.Context, req *trading.OrderRequest, result *trading.SubmissionResult) {
	if s.notifier == nil || result == nil {
		return
	}
	var text string
	if result.Accepted {
		text = fmt.Sprintf("订单已接受: %s %s %.4f @ %.4f (orderID=%s)",
			req.Side, req.TokenID, req.Size, req.Price, result.OrderID)
	} else {
		text = fmt.Sprintf("订单失败 [%s]: %s %s %.4f @ %.4f: %s",
			result.Error, req.Side, req.TokenID, req.Size, req.Price, result.ErrorMsg)
	}
	if err := s.notifier.Send(c.Request.Context(), text); err != nil {
		logger.Warnf("发送通知失败: %v", err)
	}
}

// handleHistory 最近的提交历史
func (s *Server) handleHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusOK, gin.H{"records": []interface{}{}})
		return
	}
	records, err := s.store.Recent(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// handleGetConfig 返回打码后的配置
func (s *Server) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Redacted())
}

// configUpdatePayload 运行期可调整的配置字段
type configUpdatePayload struct {
	SignatureType *int    `json:"signature_type"`
	FunderAddress *string `json:"funder_address"`
	TelegramChat  *string `json:"telegram_chat_id"`
	LogLevel      *string `json:"log_level"`
}

// handlePutConfig 更新运行期配置并落盘；钱包相关变更需重新诊断后生效
func (s *Server) handlePutConfig(c *gin.Context) {
	var payload configUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("请求体无效: %v", err)})
		return
	}

	walletChanged := false
	if payload.SignatureType != nil {
		s.cfg.Wallet.SignatureType = *payload.SignatureType
		walletChanged = true
	}
	if payload.FunderAddress != nil {
		s.cfg.Wallet.FunderAddress = *payload.FunderAddress
		walletChanged = true
	}
	if payload.TelegramChat != nil {
		s.cfg.Telegram.ChatID = *payload.TelegramChat
	}
	if payload.LogLevel != nil {
		s.cfg.LogLevel = *payload.LogLevel
	}

	if err := s.cfg.SaveRuntime(RuntimeConfigPath); err != nil {
		logger.Warnf("保存运行期配置失败: %v", err)
	}

	// 钱包配置变更后旧会话不再可信
	if walletChanged {
		s.SetSession(nil)
	}

	c.JSON(http.StatusOK, gin.H{
		"updated":           true,
		"diagnose_required": walletChanged,
		"config":            s.cfg.Redacted(),
	})
}

// walletConfig 从应用配置构造钱包配置
func (s *Server) walletConfig() *wallet.Config {
	return &wallet.Config{
		PrivateKey:    s.cfg.Wallet.PrivateKey,
		Mnemonic:      s.cfg.Wallet.Mnemonic,
		SignatureType: types.SignatureType(s.cfg.Wallet.SignatureType),
		FunderAddress: s.cfg.Wallet.FunderAddress,
	}
}

// establishOptions 从应用配置构造会话参数
func (s *Server) establishOptions() trading.EstablishOptions {
	return trading.EstablishOptions{
		Host:    s.cfg.Exchange.Host,
		ChainID: types.Chain(s.cfg.Exchange.ChainID),
		Nonce:   s.cfg.Exchange.Nonce,
		Cache:   s.cache,
	}
}
