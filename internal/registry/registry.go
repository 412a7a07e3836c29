// Package registry 把配置装配成各链的运行时组件。
// 这是对"进程级单例缓存"的替代：调用方显式构造一个 Registry
// 并向下传递，组件之间没有任何隐藏的全局状态。
package registry

import (
	"fmt"
	"time"

	"github.com/fillbot/gofill/clob/client"
	"github.com/fillbot/gofill/internal/book"
	"github.com/fillbot/gofill/internal/gateway"
	"github.com/fillbot/gofill/internal/guard"
	"github.com/fillbot/gofill/internal/nonce"
	"github.com/fillbot/gofill/internal/router"
	"github.com/fillbot/gofill/internal/wallet"
	"github.com/fillbot/gofill/pkg/config"
)

// ChainRuntime 一条链的全套运行时组件
type ChainRuntime struct {
	Config  config.ChainConfig
	Client  *client.Client
	Books   *book.Source
	Finder  *router.Finder
	Locks   *guard.Table
	Gateway *gateway.Gateway
}

// FetchTimeout 该链单次订单簿拉取的超时
func (r *ChainRuntime) FetchTimeout() time.Duration {
	return r.Config.FetchTimeout()
}

// Registry 按链 ID 索引的运行时集合
type Registry struct {
	chains map[int64]*ChainRuntime
}

// New 从配置装配所有链的运行时。
// signer 为 nil 时只装配只读组件（查簿、找路），不装配网关。
func New(cfg *config.Config, signer wallet.Signer, nonces nonce.Authority) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置为空")
	}
	if signer != nil && nonces == nil {
		return nil, fmt.Errorf("有签名器时必须提供 nonce 权威")
	}

	chains := make(map[int64]*ChainRuntime, len(cfg.Chains))
	for i := range cfg.Chains {
		ch := cfg.Chains[i]
		cl := client.New(ch.RelayURL, ch.ChainID)
		rt := &ChainRuntime{
			Config: ch,
			Client: cl,
			Books:  book.NewSource(cl),
			Finder: router.NewFinder(ch.Markets, ch.BridgeTokens),
			Locks:  guard.NewTable(),
		}
		if signer != nil {
			rt.Gateway = gateway.New(gateway.Config{
				ChainID:       ch.ChainID,
				Reactor:       ch.Reactor,
				DomainName:    ch.Domain.Name,
				DomainVersion: ch.Domain.Version,
				OrderDuration: ch.OrderDuration(),
			}, cl, signer, nonces, rt.Locks)
		}
		chains[ch.ChainID] = rt
	}
	return &Registry{chains: chains}, nil
}

// Chain 按链 ID 取运行时
func (r *Registry) Chain(chainID int64) (*ChainRuntime, bool) {
	rt, ok := r.chains[chainID]
	return rt, ok
}

// ChainIDs 已装配的链 ID 列表
func (r *Registry) ChainIDs() []int64 {
	ids := make([]int64, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	return ids
}

// SignerFromConfig 按钱包配置构造签名器：
// 私钥 > 助记词 > keystore，全都没有则返回 nil（只读模式）。
func SignerFromConfig(w config.WalletConfig) (wallet.Signer, error) {
	if w.PrivateKey != "" {
		return wallet.NewLocalSigner(w.PrivateKey)
	}
	if w.Mnemonic != "" {
		return wallet.FromMnemonic(w.Mnemonic, w.DerivationPath)
	}
	if w.KeystorePath != "" {
		key, err := wallet.ParseEncryptionKey(w.KeystoreKey)
		if err != nil {
			return nil, err
		}
		ks, err := wallet.OpenKeystore(w.KeystorePath, key)
		if err != nil {
			return nil, err
		}
		defer ks.Close()
		return ks.Signer(w.DerivationPath)
	}
	return nil, nil
}

// NonceFromConfig 按配置构造 nonce 权威：
// 配了路径用 SQLite 持久化，否则用内存实现。
func NonceFromConfig(cfg *config.Config) (nonce.Authority, func() error, error) {
	if cfg.NoncePath == "" {
		return nonce.NewMemory(), func() error { return nil }, nil
	}
	s, err := nonce.OpenSQLite(cfg.NoncePath)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
