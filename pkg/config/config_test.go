package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLY_PRIVATE_KEY", "")
	t.Setenv("CLOB_HOST", "")
	t.Setenv("CHAIN_ID", "")

	cfg := Load()
	if cfg.Exchange.Host != DefaultHost {
		t.Errorf("默认主机不符: %s", cfg.Exchange.Host)
	}
	if cfg.Exchange.ChainID != 137 {
		t.Errorf("默认链 ID 应为 137: %d", cfg.Exchange.ChainID)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("默认端口应为 8080: %d", cfg.Server.Port)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POLY_PRIVATE_KEY", "deadbeef")
	t.Setenv("POLY_SIGNATURE_TYPE", "1")
	t.Setenv("POLY_FUNDER", "0x00000000000000000000000000000000000000AA")
	t.Setenv("CHAIN_ID", "80002")

	cfg := Load()
	if cfg.Wallet.PrivateKey != "deadbeef" {
		t.Error("私钥应从环境变量读取")
	}
	if cfg.Wallet.SignatureType != 1 {
		t.Errorf("签名类型不符: %d", cfg.Wallet.SignatureType)
	}
	if cfg.Wallet.FunderAddress == "" {
		t.Error("funder 地址应从环境变量读取")
	}
	if cfg.Exchange.ChainID != 80002 {
		t.Errorf("链 ID 不符: %d", cfg.Exchange.ChainID)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
wallet:
  signature_type: 2
  funder_address: "0x00000000000000000000000000000000000000BB"
exchange:
  chain_id: 80002
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入测试配置失败: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("加载 YAML 配置失败: %v", err)
	}
	if cfg.Wallet.SignatureType != 2 {
		t.Errorf("签名类型不符: %d", cfg.Wallet.SignatureType)
	}
	if cfg.Exchange.ChainID != 80002 {
		t.Errorf("链 ID 不符: %d", cfg.Exchange.ChainID)
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := Load()
	cfg.Wallet.PrivateKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	cfg.Telegram.BotToken = "123456:secret-bot-token"

	redacted := cfg.Redacted()
	b, err := json.Marshal(redacted)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	out := string(b)

	if strings.Contains(out, cfg.Wallet.PrivateKey) {
		t.Error("打码视图不应包含完整私钥")
	}
	if strings.Contains(out, cfg.Telegram.BotToken) {
		t.Error("打码视图不应包含完整 bot token")
	}
	if !strings.Contains(out, "0123****cdef") {
		t.Errorf("私钥应保留首尾 4 位: %s", out)
	}
}

func TestSaveRuntimeOmitsSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Load()
	cfg.Wallet.PrivateKey = "super-secret-key-material-0000000000"
	cfg.Wallet.Mnemonic = "abandon abandon abandon"
	if err := cfg.SaveRuntime(path); err != nil {
		t.Fatalf("保存运行期配置失败: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取落盘配置失败: %v", err)
	}
	if strings.Contains(string(data), "super-secret") {
		t.Error("落盘配置不应包含私钥")
	}
	if strings.Contains(string(data), "abandon") {
		t.Error("落盘配置不应包含助记词")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Errorf("空值应返回空串: %q", got)
	}
	if got := maskSecret("short"); got != "****" {
		t.Errorf("短值应完全打码: %q", got)
	}
	if got := maskSecret("abcdefghijkl"); got != "abcd****ijkl" {
		t.Errorf("长值应保留首尾: %q", got)
	}
}
