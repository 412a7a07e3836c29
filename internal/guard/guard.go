// Package guard 维护进行中订单的锁表，防止同一订单被并发地
// 重复取消或重复成交处理。
//
// 设计目标：
// - 订单哈希是不透明字符串键：只做相等比较，永不转成数字
// - 锁状态只为受管订单存在；不受管的哈希视为"隐式可用"
// - Lock/Release 幂等，TryLock 原子抢占，全部操作可线性化
//
// 锁表是整个聚合/执行层里唯一的共享可变状态，其余组件都是
// 纯函数或构造后只读。
package guard

import (
	"fmt"
	"sort"
	"sync"
)

// ErrOrderLocked 表示订单已被其它操作占用，调用方应稍后重试
var ErrOrderLocked = fmt.Errorf("order locked")

// Table 以订单哈希为键的锁表
type Table struct {
	mu    sync.RWMutex
	locks map[string]bool // hash -> 是否被占用
}

// NewTable 创建空锁表
func NewTable() *Table {
	return &Table{locks: make(map[string]bool)}
}

// AddOrders 把订单哈希纳入管理（幂等：新哈希初始未占用，已存在的保持原状态）
func (t *Table) AddOrders(hashes ...string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, h := range hashes {
		if h == "" {
			continue
		}
		if _, ok := t.locks[h]; !ok {
			t.locks[h] = false
		}
	}
}

// RemoveOrders 把订单移出管理，锁状态一并丢弃。
// 终态订单（成交/取消/过期）应尽快调用本方法移除。
func (t *Table) RemoveOrders(hashes ...string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, h := range hashes {
		delete(t.locks, h)
	}
}

// UpdateOrders 用新的哈希集合整体替换受管集，所有锁状态归零。
// 用于整批刷新未成交订单快照的场景。
func (t *Table) UpdateOrders(hashes []string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locks = make(map[string]bool, len(hashes))
	for _, h := range hashes {
		if h == "" {
			continue
		}
		t.locks[h] = false
	}
}

// Reset 释放所有锁但保留受管集
func (t *Table) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for h := range t.locks {
		t.locks[h] = false
	}
}

// Lock 占用订单（幂等）。不受管的哈希会被自动纳入管理并占用：
// 锁状态在产生的那一刻起就是受管状态。
func (t *Table) Lock(hash string) {
	if t == nil || hash == "" {
		return
	}
	t.mu.Lock()
	t.locks[hash] = true
	t.mu.Unlock()
}

// Release 释放订单（幂等）。不受管的哈希是 no-op。
func (t *Table) Release(hash string) {
	if t == nil || hash == "" {
		return
	}
	t.mu.Lock()
	if _, ok := t.locks[hash]; ok {
		t.locks[hash] = false
	}
	t.mu.Unlock()
}

// TryLock 原子地检查并占用订单。
// 已被占用返回 false；否则占用并返回 true。
// 不受管的哈希视为可用：抢占成功并自动纳入管理，
// 这样并发的第二次 TryLock 一定失败。
func (t *Table) TryLock(hash string) bool {
	if t == nil || hash == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.locks[hash] {
		return false
	}
	t.locks[hash] = true
	return true
}

// IsLocked 查询占用状态。不受管的哈希返回 false，从不报错。
func (t *Table) IsLocked(hash string) bool {
	if t == nil || hash == "" {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locks[hash]
}

// IsManaged 哈希是否在受管集内
func (t *Table) IsManaged(hash string) bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.locks[hash]
	return ok
}

// Len 受管订单数量
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.locks)
}

// Hashes 受管订单哈希快照，按字典序排序
func (t *Table) Hashes() []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	out := make([]string, 0, len(t.locks))
	for h := range t.locks {
		out = append(out, h)
	}
	t.mu.RUnlock()
	sort.Strings(out)
	return out
}
