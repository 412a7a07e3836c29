// Package book 把原始 Dutch 订单聚合成按价格排序的订单簿。
//
// 档位是纯派生值：每次查询都基于查询时刻重新计算衰减价格，
// 从不缓存、从不持久化。一个未成交订单对应一档，相同价格不合并。
package book

import (
	"sort"
	"time"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/internal/pricing"
	"github.com/fillbot/gofill/pkg/logger"
)

// Aggregate 用两组未成交订单构建 market 的订单簿：
// sellingBase 是输入侧为 base 的订单（挂在 ask 侧），
// sellingQuote 是输入侧为 quote 的订单（挂在 bid 侧）。
//
// 过期（deadline <= now）、非 open 状态、金额畸形、零价或零量的订单
// 一律跳过并告警，绝不让单个坏订单拖垮整个簿。
// asks 按价格升序，bids 按价格降序，最优档在前。
func Aggregate(market types.Market, sellingBase, sellingQuote []types.Order, now time.Time) *types.OrderBook {
	book := &types.OrderBook{Market: market.Symbol, Timestamp: now}
	ts := now.Unix()

	for i := range sellingBase {
		level, ok := askLevel(market, &sellingBase[i], ts)
		if !ok {
			continue
		}
		level.Timestamp = now
		book.Asks = append(book.Asks, level)
	}
	for i := range sellingQuote {
		level, ok := bidLevel(market, &sellingQuote[i], ts)
		if !ok {
			continue
		}
		level.Timestamp = now
		book.Bids = append(book.Bids, level)
	}

	// asks 升序（最低卖价优先），bids 降序（最高买价优先）
	sort.Slice(book.Asks, func(i, j int) bool {
		return book.Asks[i].Price.LessThan(book.Asks[j].Price)
	})
	sort.Slice(book.Bids, func(i, j int) bool {
		return book.Bids[i].Price.GreaterThan(book.Bids[j].Price)
	})

	return book
}

// askLevel swapper 卖出 base 换 quote：
// 数量 = base 输入量，价格 = 衰减后的 quote 输出 / base 输入（随时间下降）。
func askLevel(market types.Market, o *types.Order, now int64) (types.PriceLevel, bool) {
	if !tradeable(o, now) {
		return types.PriceLevel{}, false
	}
	if !types.EqualAddress(o.Input.Token, market.Base.Address) {
		logger.Warnf("ask 订单输入代币与市场不符，跳过: hash=%s token=%s", o.OrderHash, o.Input.Token)
		return types.PriceLevel{}, false
	}
	out, ok := o.PrimaryOutput()
	if !ok {
		logger.Warnf("订单缺少输出侧，跳过: hash=%s", o.OrderHash)
		return types.PriceLevel{}, false
	}

	baseIn, ok1 := types.ParseAmount(o.Input.StartAmount)
	startOut, ok2 := types.ParseAmount(out.StartAmount)
	endOut, ok3 := types.ParseAmount(out.EndAmount)
	if !ok1 || !ok2 || !ok3 {
		logger.Warnf("订单金额无法解析，跳过: hash=%s", o.OrderHash)
		return types.PriceLevel{}, false
	}

	price := pricing.Price(true, baseIn, startOut, endOut, o.DecayStartTime, o.DecayEndTime, now, market.Base.Decimals, market.Quote.Decimals)
	qty := pricing.HumanAmount(baseIn, market.Base.Decimals)
	if price.Sign() <= 0 || qty.Sign() <= 0 {
		return types.PriceLevel{}, false
	}
	return types.PriceLevel{Price: price, Quantity: qty, OrderHash: o.OrderHash}, true
}

// bidLevel swapper 用 quote 买入 base：
// 价格 = quote 输入 / 衰减后的 base 输出（随时间上升），
// 数量 = 衰减后的 base 输出量。
func bidLevel(market types.Market, o *types.Order, now int64) (types.PriceLevel, bool) {
	if !tradeable(o, now) {
		return types.PriceLevel{}, false
	}
	if !types.EqualAddress(o.Input.Token, market.Quote.Address) {
		logger.Warnf("bid 订单输入代币与市场不符，跳过: hash=%s token=%s", o.OrderHash, o.Input.Token)
		return types.PriceLevel{}, false
	}
	out, ok := o.PrimaryOutput()
	if !ok {
		logger.Warnf("订单缺少输出侧，跳过: hash=%s", o.OrderHash)
		return types.PriceLevel{}, false
	}

	quoteIn, ok1 := types.ParseAmount(o.Input.StartAmount)
	startOut, ok2 := types.ParseAmount(out.StartAmount)
	endOut, ok3 := types.ParseAmount(out.EndAmount)
	if !ok1 || !ok2 || !ok3 {
		logger.Warnf("订单金额无法解析，跳过: hash=%s", o.OrderHash)
		return types.PriceLevel{}, false
	}

	baseOut := pricing.DecayedAmount(startOut, endOut, o.DecayStartTime, o.DecayEndTime, now)
	price := pricing.Price(false, quoteIn, startOut, endOut, o.DecayStartTime, o.DecayEndTime, now, market.Base.Decimals, market.Quote.Decimals)
	qty := pricing.HumanAmount(baseOut, market.Base.Decimals)
	if price.Sign() <= 0 || qty.Sign() <= 0 {
		return types.PriceLevel{}, false
	}
	return types.PriceLevel{Price: price, Quantity: qty, OrderHash: o.OrderHash}, true
}

// tradeable 订单是否还能进簿：未过期且状态为 open（状态缺省视为 open）
func tradeable(o *types.Order, now int64) bool {
	if o.Deadline <= now {
		return false
	}
	if o.OrderStatus != "" && o.OrderStatus != types.OrderStatusOpen {
		return false
	}
	return true
}
