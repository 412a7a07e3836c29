// Package pricing 实现 Dutch 订单的时间衰减定价。
//
// Dutch 订单的输出量随时间从 startAmount 线性滑向 endAmount，
// 终值对 taker 最有利。本包全程用 *big.Int 做整数插值，
// 只在最后换算报价时引入 decimal，任何环节都不经过浮点。
package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fillbot/gofill/pkg/logger"
)

// DecayedAmount 计算 now 时刻的衰减量：
//
//	out(t) = start + (end-start) * (t-t0) / (t1-t0)
//
// 整数除法向零截断，结果始终落在 start 与 end 之间。
// 边界：
//   - start == end：不衰减，直接返回终值
//   - 窗口长度为 0 或倒置（t1 <= t0）：视为已完全衰减，返回终值并记录日志
//   - now <= t0：返回起始值；now >= t1：返回终值
func DecayedAmount(start, end *big.Int, decayStart, decayEnd, now int64) *big.Int {
	if start.Cmp(end) == 0 {
		return new(big.Int).Set(end)
	}
	if decayEnd <= decayStart {
		logger.Warnf("衰减窗口无效 decayStart=%d decayEnd=%d，按完全衰减处理", decayStart, decayEnd)
		return new(big.Int).Set(end)
	}
	if now <= decayStart {
		return new(big.Int).Set(start)
	}
	if now >= decayEnd {
		return new(big.Int).Set(end)
	}

	elapsed := big.NewInt(now - decayStart)
	window := big.NewInt(decayEnd - decayStart)
	step := new(big.Int).Sub(end, start)
	step.Mul(step, elapsed)
	step.Quo(step, window)
	return step.Add(step, start)
}

// Price 计算一个 Dutch 订单在 now 时刻的限价（quote 计价 base）。
//
// isAsk=true：订单输入侧是 base（swapper 卖出 base 换 quote），
// 价格 = 衰减后的 quote 输出 / base 输入，随时间下降；
// isAsk=false：订单输入侧是 quote（swapper 用 quote 买 base），
// 价格 = quote 输入 / 衰减后的 base 输出，随时间上升。
// 两个方向都朝着对 taker 更有利的方向移动。
//
// 入参为 nil 或分母为零时返回零值并记录日志，从不 panic；
// 衰减窗口异常时落到参考价（endOut 推导的终值价格）。
func Price(isAsk bool, inputAmount, startOut, endOut *big.Int, decayStart, decayEnd, now int64, baseDecimals, quoteDecimals int32) decimal.Decimal {
	if inputAmount == nil || startOut == nil || endOut == nil {
		logger.Warnf("定价入参缺失 isAsk=%v，返回零价", isAsk)
		return decimal.Zero
	}

	out := DecayedAmount(startOut, endOut, decayStart, decayEnd, now)
	if isAsk {
		return ratio(out, quoteDecimals, inputAmount, baseDecimals)
	}
	return ratio(inputAmount, quoteDecimals, out, baseDecimals)
}

// ReferencePrice 订单的参考价：衰减终点（endOut）对应的价格，
// 是该订单对 taker 最有利的终值，用于降级兜底和对外展示。
func ReferencePrice(isAsk bool, inputAmount, endOut *big.Int, baseDecimals, quoteDecimals int32) decimal.Decimal {
	if inputAmount == nil || endOut == nil {
		return decimal.Zero
	}
	if isAsk {
		return ratio(endOut, quoteDecimals, inputAmount, baseDecimals)
	}
	return ratio(inputAmount, quoteDecimals, endOut, baseDecimals)
}

// ratio = (quoteAmt / 10^quoteDecimals) / (baseAmt / 10^baseDecimals)
func ratio(quoteAmt *big.Int, quoteDecimals int32, baseAmt *big.Int, baseDecimals int32) decimal.Decimal {
	if baseAmt.Sign() == 0 {
		logger.Warnf("定价分母为零，返回零价")
		return decimal.Zero
	}
	q := decimal.NewFromBigInt(quoteAmt, -quoteDecimals)
	b := decimal.NewFromBigInt(baseAmt, -baseDecimals)
	return q.Div(b)
}

// HumanAmount 把最小单位整数金额换算成自然单位
func HumanAmount(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}
