package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/polytrader/clob/types"
	"github.com/betbot/polytrader/internal/diagnose"
	"github.com/betbot/polytrader/internal/trading"
	"github.com/betbot/polytrader/internal/wallet"
	"github.com/betbot/polytrader/pkg/config"
	"github.com/betbot/polytrader/pkg/logger"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（yaml/json，可选）")
	timeout := flag.Duration("timeout", 60*time.Second, "诊断总超时")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "加载配置文件失败: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Load()
	}

	// CLI 只输出到控制台
	if err := logger.Init(logger.Config{Level: "warn"}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	runner := diagnose.NewRunner(&wallet.Config{
		PrivateKey:    cfg.Wallet.PrivateKey,
		Mnemonic:      cfg.Wallet.Mnemonic,
		SignatureType: types.SignatureType(cfg.Wallet.SignatureType),
		FunderAddress: cfg.Wallet.FunderAddress,
	}, trading.EstablishOptions{
		Host:    cfg.Exchange.Host,
		ChainID: types.Chain(cfg.Exchange.ChainID),
		Nonce:   cfg.Exchange.Nonce,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println(titleStyle.Render("签名方案诊断"))
	fmt.Println(detailStyle.Render(fmt.Sprintf("交易所: %s (chain %d)", cfg.Exchange.Host, cfg.Exchange.ChainID)))
	fmt.Println()

	report := runner.Run(ctx)

	for _, stage := range report.Stages {
		var mark string
		switch stage.Outcome {
		case diagnose.OutcomePass:
			mark = passStyle.Render("✓ PASS")
		case diagnose.OutcomeFail:
			mark = failStyle.Render("✗ FAIL")
		default:
			mark = skipStyle.Render("- SKIP")
		}
		fmt.Printf("%s  %s\n", mark, stage.Stage)
		if stage.Detail != "" {
			fmt.Println(detailStyle.Render("        " + stage.Detail))
		}
	}

	fmt.Println()
	if report.Healthy {
		fmt.Println(passStyle.Render("诊断全部通过，签名路径可用"))
		return
	}

	fmt.Println(failStyle.Render("诊断未通过"))
	if report.RootCause != "" {
		fmt.Println(detailStyle.Render("根因: " + report.RootCause))
	}
	os.Exit(1)
}
