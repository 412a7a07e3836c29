// Package config 负责加载应用配置：YAML 文件为主，环境变量覆盖敏感项。
// 每条链的市场、桥接代币、中继地址、EIP-712 域都在这里声明，
// 由调用方显式传给 registry 构造运行时——没有任何进程级单例。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fillbot/gofill/clob/types"
)

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`    // MB
	MaxBackups int    `yaml:"max_backups"` // 保留的旧文件数
	MaxAge     int    `yaml:"max_age"`     // 天
	Compress   bool   `yaml:"compress"`
}

// WalletConfig 钱包配置。
// 私钥与助记词二选一；都为空时从 keystore 读取。
type WalletConfig struct {
	PrivateKey     string `yaml:"private_key"`
	Mnemonic       string `yaml:"mnemonic"`
	DerivationPath string `yaml:"derivation_path"`
	KeystorePath   string `yaml:"keystore_path"`
	KeystoreKey    string `yaml:"keystore_key"` // 32 字节，hex 或 base64
}

// DomainConfig EIP-712 域（verifyingContract 取链配置里的 reactor）
type DomainConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ChainConfig 单条链的连接与市场配置
type ChainConfig struct {
	ChainID              int64          `yaml:"chain_id"`
	RelayURL             string         `yaml:"relay_url"`
	FeedURL              string         `yaml:"feed_url"` // 行情推送地址，可为空
	Reactor              string         `yaml:"reactor"`  // 结算合约地址
	Domain               DomainConfig   `yaml:"domain"`
	OrderDurationSeconds int64          `yaml:"order_duration_seconds"`
	FetchTimeoutMS       int64          `yaml:"fetch_timeout_ms"`
	Markets              []types.Market `yaml:"markets"`
	BridgeTokens         []types.Token  `yaml:"bridge_tokens"`
}

// OrderDuration 新订单从创建到过期的时长（未配置时默认 120s）
func (c *ChainConfig) OrderDuration() time.Duration {
	if c.OrderDurationSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.OrderDurationSeconds) * time.Second
}

// FetchTimeout 单次订单簿拉取的超时（未配置时默认 5s）
func (c *ChainConfig) FetchTimeout() time.Duration {
	if c.FetchTimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// Config 应用配置
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Wallet WalletConfig `yaml:"wallet"`
	// NoncePath 持久化 nonce 数据库路径（空表示用内存 nonce）
	NoncePath string        `yaml:"nonce_path"`
	Chains    []ChainConfig `yaml:"chains"`
}

// Load 从 YAML 文件读取配置并套用环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv 套用环境变量覆盖（敏感项优先从环境取，避免写进文件）
func (c *Config) applyEnv() {
	if v := os.Getenv("GOFILL_PRIVATE_KEY"); v != "" {
		c.Wallet.PrivateKey = v
	}
	if v := os.Getenv("GOFILL_MNEMONIC"); v != "" {
		c.Wallet.Mnemonic = v
	}
	if v := os.Getenv("GOFILL_KEYSTORE_KEY"); v != "" {
		c.Wallet.KeystoreKey = v
	}
	if v := os.Getenv("GOFILL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GOFILL_NONCE_PATH"); v != "" {
		c.NoncePath = v
	}
	// GOFILL_RELAY_URL 覆盖所有链的中继地址（本地联调用）
	if v := os.Getenv("GOFILL_RELAY_URL"); v != "" {
		for i := range c.Chains {
			c.Chains[i].RelayURL = v
		}
	}
	if v := os.Getenv("GOFILL_ORDER_DURATION_SECONDS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			for i := range c.Chains {
				c.Chains[i].OrderDurationSeconds = n
			}
		}
	}
}

// Validate 校验配置完整性
func (c *Config) Validate() error {
	if len(c.Chains) == 0 {
		return fmt.Errorf("配置中没有任何链")
	}
	seen := make(map[int64]bool, len(c.Chains))
	for i := range c.Chains {
		ch := &c.Chains[i]
		if ch.ChainID <= 0 {
			return fmt.Errorf("chains[%d]: chain_id 必须为正", i)
		}
		if seen[ch.ChainID] {
			return fmt.Errorf("chains[%d]: chain_id=%d 重复", i, ch.ChainID)
		}
		seen[ch.ChainID] = true
		if strings.TrimSpace(ch.RelayURL) == "" {
			return fmt.Errorf("chain %d: relay_url 缺失", ch.ChainID)
		}
		if strings.TrimSpace(ch.Reactor) == "" {
			return fmt.Errorf("chain %d: reactor 缺失", ch.ChainID)
		}
		if ch.Domain.Name == "" || ch.Domain.Version == "" {
			return fmt.Errorf("chain %d: EIP-712 域不完整", ch.ChainID)
		}
		for j, m := range ch.Markets {
			if m.Symbol == "" || m.Base.Address == "" || m.Quote.Address == "" {
				return fmt.Errorf("chain %d markets[%d]: 市场定义不完整", ch.ChainID, j)
			}
			if m.Base.Decimals < 0 || m.Quote.Decimals < 0 {
				return fmt.Errorf("chain %d markets[%d]: decimals 非法", ch.ChainID, j)
			}
		}
	}
	return nil
}

// Chain 按链 ID 查找链配置
func (c *Config) Chain(chainID int64) (*ChainConfig, bool) {
	for i := range c.Chains {
		if c.Chains[i].ChainID == chainID {
			return &c.Chains[i], true
		}
	}
	return nil, false
}
