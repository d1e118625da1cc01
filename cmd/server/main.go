package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/betbot/polytrader/clob/types"
	"github.com/betbot/polytrader/internal/notify"
	"github.com/betbot/polytrader/internal/server"
	"github.com/betbot/polytrader/internal/storage"
	"github.com/betbot/polytrader/internal/trading"
	"github.com/betbot/polytrader/internal/wallet"
	"github.com/betbot/polytrader/pkg/config"
	"github.com/betbot/polytrader/pkg/logger"
	"github.com/betbot/polytrader/pkg/secretstore"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（yaml/json，可选）")
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

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Errorf("打开提交历史数据库失败: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var cache trading.CredentialCache
	if cfg.Storage.SecretStorePath != "" {
		encKey, err := secretstore.ParseKey(cfg.Storage.SecretStoreKey)
		if err != nil {
			logger.Errorf("解析凭证缓存密钥失败: %v", err)
			os.Exit(1)
		}
		secretStore, err := secretstore.Open(secretstore.OpenOptions{
			Path:          cfg.Storage.SecretStorePath,
			EncryptionKey: encKey,
		})
		if err != nil {
			logger.Warnf("打开凭证缓存失败，将不使用缓存: %v", err)
		} else {
			defer secretStore.Close()
			cache = trading.NewSecretCredentialCache(secretStore)
		}
	}

	notifier := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	srv := server.New(cfg, store, notifier, cache)

	// 启动时尝试建立会话，失败不阻塞服务，可通过 /api/diagnose 修复后重建
	bootstrapSession(cfg, cache, srv)

	if err := srv.Run(); err != nil {
		logger.Errorf("HTTP 服务退出: %v", err)
		os.Exit(1)
	}
}

// bootstrapSession 启动时的会话预热
func bootstrapSession(cfg *config.Config, cache trading.CredentialCache, srv *server.Server) {
	walletCfg := &wallet.Config{
		PrivateKey:    cfg.Wallet.PrivateKey,
		Mnemonic:      cfg.Wallet.Mnemonic,
		SignatureType: types.SignatureType(cfg.Wallet.SignatureType),
		FunderAddress: cfg.Wallet.FunderAddress,
	}

	w, err := walletCfg.Resolve()
	if err != nil {
		logger.Warnf("钱包配置校验未通过，跳过会话预热: %v", err)
		return
	}
	for _, warning := range w.Warnings {
		logger.Warn(warning)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := trading.Establish(ctx, w, trading.EstablishOptions{
		Host:    cfg.Exchange.Host,
		ChainID: types.Chain(cfg.Exchange.ChainID),
		Nonce:   cfg.Exchange.Nonce,
		Cache:   cache,
	})
	if err != nil {
		logger.Warnf("会话预热失败: %v", err)
		return
	}

	if status, err := session.ProbeBalance(ctx); err != nil {
		logger.Warnf("余额探针未通过: %v", err)
		return
	} else if status.Warning != "" {
		logger.Warn(status.Warning)
	}

	srv.SetSession(session)
	logger.WithField("address", w.Address.Hex()).Info("会话预热完成，可以下单")
}
