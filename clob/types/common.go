package types

import (
	"math/big"
	"strings"
)

// Side 吃单方向（taker 视角）：BUY 买入 base，SELL 卖出 base
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus 订单在中继侧的状态
type OrderStatus string

const (
	OrderStatusOpen              OrderStatus = "open"               // 开放中，可被成交
	OrderStatusFilled            OrderStatus = "filled"             // 已成交
	OrderStatusCancelled         OrderStatus = "cancelled"          // 已取消
	OrderStatusExpired           OrderStatus = "expired"            // 已过期
	OrderStatusError             OrderStatus = "error"              // 异常
	OrderStatusInsufficientFunds OrderStatus = "insufficient-funds" // swapper 余额不足
)

// IsFinal 是否为终态（终态订单不应再出现在订单簿或锁表中）
func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// Chain 区块链网络
type Chain int64

const (
	ChainMainnet  Chain = 1
	ChainBase     Chain = 8453
	ChainArbitrum Chain = 42161
)

// ParseAmount 解析十进制整数金额字符串（最小单位计价，不允许小数点）
func ParseAmount(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}

// EqualAddress 地址比较（忽略大小写与 0x 前缀差异）
func EqualAddress(a, b string) bool {
	return normalizeAddress(a) == normalizeAddress(b)
}

func normalizeAddress(a string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	return strings.TrimPrefix(a, "0x")
}
