package diagnose

import (
	"context"
	"fmt"
	"strings"

	"github.com/betbot/polytrader/internal/trading"
	"github.com/betbot/polytrader/internal/wallet"
	"github.com/betbot/polytrader/pkg/logger"
)

// Outcome 阶段结果
type Outcome string

const (
	OutcomePass    Outcome = "pass"
	OutcomeFail    Outcome = "fail"
	OutcomeSkipped Outcome = "skipped"
)

// 诊断阶段名称
const (
	StageSchemeValidator    = "SchemeValidator"
	StageSessionEstablisher = "SessionEstablisher"
	StageBalanceProbe       = "BalanceProbe"
	StageReadiness          = "Readiness"
)

// StageResult 单个阶段的诊断结果
type StageResult struct {
	Stage   string  `json:"stage"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

// Report 诊断报告
// 阶段按依赖顺序执行，首个失败阶段即根因，其后阶段标记 skipped
type Report struct {
	Stages    []StageResult `json:"stages"`
	Healthy   bool          `json:"healthy"`
	RootCause string        `json:"rootCause,omitempty"`
}

// Runner 诊断流程执行器
// 走与交易完全相同的校验/会话/探针路径，但不下任何真实订单
type Runner struct {
	cfg  *wallet.Config
	opts trading.EstablishOptions
}

// NewRunner 创建诊断执行器
func NewRunner(cfg *wallet.Config, opts trading.EstablishOptions) *Runner {
	return &Runner{cfg: cfg, opts: opts}
}

// 全部阶段，按依赖顺序
var allStages = []string{
	StageSchemeValidator,
	StageSessionEstablisher,
	StageBalanceProbe,
	StageReadiness,
}

// Run 依序执行各诊断阶段
func (r *Runner) Run(ctx context.Context) *Report {
	report := &Report{}

	// 阶段 1：方案校验（纯本地，不发任何请求）
	w, err := r.cfg.Resolve()
	if err != nil {
		report.failFrom(StageSchemeValidator, err.Error())
		return report
	}
	detail := fmt.Sprintf("方案=%s 签名地址=%s", w.SignatureType(), w.Address.Hex())
	if funder := w.Funder(); funder != "" {
		detail += " funder=" + funder
	}
	if len(w.Warnings) > 0 {
		detail += "；警告: " + strings.Join(w.Warnings, "；")
	}
	report.pass(StageSchemeValidator, detail)

	// 阶段 2：会话建立（派生或创建 API 凭证）
	session, err := trading.Establish(ctx, w, r.opts)
	if err != nil {
		report.failFrom(StageSessionEstablisher, err.Error())
		return report
	}
	report.pass(StageSessionEstablisher, "API 凭证已就绪")

	// 阶段 3：余额探针（走完整签名路径的只读请求）
	status, err := session.ProbeBalance(ctx)
	if err != nil {
		report.failFrom(StageBalanceProbe, err.Error())
		return report
	}
	probeDetail := fmt.Sprintf("余额=%s USDC 授权=%s USDC", status.Balance.String(), status.Allowance.String())
	if status.Warning != "" {
		probeDetail += "；警告: " + status.Warning
	}
	report.pass(StageBalanceProbe, probeDetail)

	// 阶段 4：下单就绪
	if err := session.ReadyToSubmit(); err != nil {
		report.failFrom(StageReadiness, err.Error())
		return report
	}
	report.pass(StageReadiness, "签名路径验证通过，可以下单")
	report.Healthy = true

	logger.WithField("address", w.Address.Hex()).Info("诊断流程全部通过")
	return report
}

// pass 记录通过的阶段
func (r *Report) pass(stage, detail string) {
	r.Stages = append(r.Stages, StageResult{Stage: stage, Outcome: OutcomePass, Detail: detail})
}

// failFrom 记录失败阶段为根因，其后所有阶段标记 skipped
func (r *Report) failFrom(stage, detail string) {
	r.Stages = append(r.Stages, StageResult{Stage: stage, Outcome: OutcomeFail, Detail: detail})
	r.RootCause = fmt.Sprintf("%s: %s", stage, detail)

	skipping := false
	for _, name := range allStages {
		if name == stage {
			skipping = true
			continue
		}
		if skipping {
			r.Stages = append(r.Stages, StageResult{Stage: name, Outcome: OutcomeSkipped})
		}
	}
}
