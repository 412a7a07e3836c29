// Package nonce 实现按 swapper 地址递增的 nonce 权威。
// nonce 进了签名就不可复用：同一 swapper 的每次 UseNonce
// 必须返回严格递增的值，否则中继会按重放拒单。
package nonce

import (
	"context"
	"math/big"
	"strings"
	"sync"
)

// Authority 外部 nonce 权威
type Authority interface {
	// UseNonce 消费并返回 swapper 的下一个 nonce（按地址单调递增）
	UseNonce(ctx context.Context, swapper string) (*big.Int, error)
}

// Memory 进程内 nonce 权威。重启后从零开始，
// 只适合短生命周期工具；长期运行请用 SQLite 版。
type Memory struct {
	mu   sync.Mutex
	next map[string]*big.Int
}

// NewMemory 创建内存 nonce 权威
func NewMemory() *Memory {
	return &Memory{next: make(map[string]*big.Int)}
}

// UseNonce 消费下一个 nonce
func (m *Memory) UseNonce(_ context.Context, swapper string) (*big.Int, error) {
	key := normalize(swapper)
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.next[key]
	if !ok {
		cur = big.NewInt(0)
	}
	m.next[key] = new(big.Int).Add(cur, big.NewInt(1))
	return cur, nil
}

// normalize swapper 地址作键：小写、去 0x
func normalize(addr string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(addr)), "0x")
}
