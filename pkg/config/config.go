package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// WalletConfig 钱包配置
type WalletConfig struct {
	PrivateKey    string `yaml:"private_key" json:"private_key"`
	Mnemonic      string `yaml:"mnemonic" json:"mnemonic"`
	SignatureType int    `yaml:"signature_type" json:"signature_type"`
	FunderAddress string `yaml:"funder_address" json:"funder_address"`
}

// ExchangeConfig 交易所连接配置
type ExchangeConfig struct {
	Host    string `yaml:"host" json:"host"`
	ChainID int    `yaml:"chain_id" json:"chain_id"`
	// Nonce 凭证派生 nonce，默认 0
	Nonce int64 `yaml:"nonce" json:"nonce"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// TelegramConfig Telegram 通知配置
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" json:"bot_token"`
	ChatID   string `yaml:"chat_id" json:"chat_id"`
}

// StorageConfig 本地存储配置
type StorageConfig struct {
	// DatabasePath 提交历史 SQLite 文件路径
	DatabasePath string `yaml:"database_path" json:"database_path"`
	// SecretStorePath 凭证缓存目录（Badger）
	SecretStorePath string `yaml:"secret_store_path" json:"secret_store_path"`
	// SecretStoreKey 凭证缓存加密密钥（32 字节 hex/base64，可为空）
	SecretStoreKey string `yaml:"secret_store_key" json:"secret_store_key"`
}

// Config 应用配置
type Config struct {
	Wallet   WalletConfig   `yaml:"wallet" json:"wallet"`
	Exchange ExchangeConfig `yaml:"exchange" json:"exchange"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	LogLevel string         `yaml:"log_level" json:"log_level"`
	LogFile  string         `yaml:"log_file" json:"log_file"`
}

// DefaultHost Polymarket CLOB 主网地址
const DefaultHost = "https://clob.polymarket.com"

// defaults 返回带默认值的配置
func defaults() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			Host:    DefaultHost,
			ChainID: 137,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			DatabasePath:    "data/trader.db",
			SecretStorePath: "data/secrets",
		},
		LogLevel: "info",
	}
}

// Load 从环境变量加载配置（自动读取 .env）
func Load() *Config {
	_ = godotenv.Load()

	cfg := defaults()

	cfg.Wallet.PrivateKey = os.Getenv("POLY_PRIVATE_KEY")
	cfg.Wallet.Mnemonic = os.Getenv("POLY_MNEMONIC")
	cfg.Wallet.FunderAddress = os.Getenv("POLY_FUNDER")
	if v := os.Getenv("POLY_SIGNATURE_TYPE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Wallet.SignatureType = n
		}
	}

	if v := os.Getenv("CLOB_HOST"); v != "" {
		cfg.Exchange.Host = v
	}
	if v := os.Getenv("CHAIN_ID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Exchange.ChainID = n
		}
	}
	if v := os.Getenv("POLY_NONCE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Exchange.Nonce = n
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")

	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv("SECRET_STORE_PATH"); v != "" {
		cfg.Storage.SecretStorePath = v
	}
	cfg.Storage.SecretStoreKey = os.Getenv("SECRET_STORE_KEY")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	return cfg
}

// LoadFromFile 从 YAML 或 JSON 文件加载配置，未设置的字段保留环境变量/默认值
func LoadFromFile(path string) (*Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s", path)
	}

	return cfg, nil
}

// SaveRuntime 将运行期可调整的配置写回 JSON 文件（原子替换）
// 写出内容不包含私钥与助记词
func (c *Config) SaveRuntime(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	redacted := *c
	redacted.Wallet.PrivateKey = ""
	redacted.Wallet.Mnemonic = ""
	redacted.Telegram.BotToken = ""
	redacted.Storage.SecretStoreKey = ""

	b, err := json.MarshalIndent(&redacted, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Redacted 返回可安全对外展示的配置视图，敏感字段打码
func (c *Config) Redacted() map[string]interface{} {
	return map[string]interface{}{
		"wallet": map[string]interface{}{
			"private_key":    maskSecret(c.Wallet.PrivateKey),
			"mnemonic":       maskSecret(c.Wallet.Mnemonic),
			"signature_type": c.Wallet.SignatureType,
			"funder_address": c.Wallet.FunderAddress,
		},
		"exchange": map[string]interface{}{
			"host":     c.Exchange.Host,
			"chain_id": c.Exchange.ChainID,
			"nonce":    c.Exchange.Nonce,
		},
		"server": map[string]interface{}{
			"host": c.Server.Host,
			"port": c.Server.Port,
		},
		"telegram": map[string]interface{}{
			"bot_token": maskSecret(c.Telegram.BotToken),
			"chat_id":   c.Telegram.ChatID,
		},
		"storage": map[string]interface{}{
			"database_path":     c.Storage.DatabasePath,
			"secret_store_path": c.Storage.SecretStorePath,
		},
		"log_level": c.LogLevel,
		"log_file":  c.LogFile,
	}
}

// maskSecret 打码敏感值，只保留首尾各 4 个字符
func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "****" + v[len(v)-4:]
}
