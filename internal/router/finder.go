// Package router 在碎片化市场之间寻找成交路径并估算最优报价。
//
// 路径最多两跳：有直达市场时只走直达；没有时尝试经过配置的
// 桥接代币中转。桥接候选在构造时按代币地址排序，
// 保证同样的输入永远枚举出同样的路径顺序。
package router

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/pkg/logger"
)

// errInvalidAmount 询价数量非正，属于调用方错误
var errInvalidAmount = errors.New("estimate amount must be positive")

// Quote 一次路径询价的结果
type Quote struct {
	// Route 选中的路径
	Route types.Route

	// Side 询价方向
	Side types.Side

	// AmountIn 卖出侧数量（side=BUY 时为按最优档推导出的需付数量）
	AmountIn decimal.Decimal

	// AmountOut 买入侧数量（side=SELL 时为按最优档推导出的可得数量）
	AmountOut decimal.Decimal

	// Price 复合价格：
	// side=BUY 时为每买入一单位需付出的卖出代币（越低越好）；
	// side=SELL 时为每卖出一单位可换回的买入代币（越高越好）。
	Price decimal.Decimal

	// Levels 每跳选中的档位，与 Route.Markets 顺序一致；
	// 档位的 OrderHash 回指实际要成交的订单
	Levels []types.PriceLevel
}

// Finder 路径查找器。构造后只读，可被多个 goroutine 并发使用。
type Finder struct {
	markets map[string]types.Market
	bridges []types.Token
}

// NewFinder 用市场清单和桥接代币集构造查找器。
// 桥接代币按地址排序后保存，使两跳路径的枚举顺序与平手裁决确定。
func NewFinder(markets []types.Market, bridges []types.Token) *Finder {
	m := make(map[string]types.Market, len(markets))
	for _, mk := range markets {
		m[mk.Symbol] = mk
	}
	bs := append([]types.Token(nil), bridges...)
	sort.Slice(bs, func(i, j int) bool {
		return strings.ToLower(bs[i].Address) < strings.ToLower(bs[j].Address)
	})
	return &Finder{markets: m, bridges: bs}
}

// PossibleRoutes 枚举从 sell 到 buy 的候选路径（代币符号）。
// 直达市场存在时只返回那一条（直达排他）；否则对每个桥接代币，
// sell-bridge 与 bridge-buy 两个市场都存在才产生一条两跳路径。
// 永远不会超过两跳。找不到任何路径返回空切片。
func (f *Finder) PossibleRoutes(sell, buy string) []types.Route {
	sell = strings.ToUpper(sell)
	buy = strings.ToUpper(buy)
	if sell == buy {
		return nil
	}

	if m, ok := f.marketFor(sell, buy); ok {
		return []types.Route{{Markets: []types.Market{m}}}
	}

	var routes []types.Route
	for _, bridge := range f.bridges {
		mid := strings.ToUpper(bridge.Symbol)
		if mid == sell || mid == buy {
			continue
		}
		first, ok1 := f.marketFor(sell, mid)
		second, ok2 := f.marketFor(mid, buy)
		if ok1 && ok2 {
			routes = append(routes, types.Route{Markets: []types.Market{first, second}})
		}
	}
	return routes
}

// marketFor 双向查找交易对：A-B 或 B-A 任一存在即可
func (f *Finder) marketFor(a, b string) (types.Market, bool) {
	if m, ok := f.markets[types.MarketSymbol(a, b)]; ok {
		return m, true
	}
	if m, ok := f.markets[types.MarketSymbol(b, a)]; ok {
		return m, true
	}
	return types.Market{}, false
}

// Estimate 在候选路径中挑选复合价格最优的一条。
//
// side=SELL：amount 是要卖出的 sell 代币数量，沿路径正向传播，
// 每跳吃对应方向的最优一档（持有 base 吃 bid、持有 quote 吃 ask），
// 复合价格越高越好；
// side=BUY：amount 是想买到的 buy 代币数量，沿路径反向回推
// 所需投入，复合价格越低越好。
//
// 估价只看每跳的最优一档，不校验档位深度。
// 所有路径都缺流动性时返回 (nil, nil)：没有路是一个正常结果，
// 不是故障。平手时保留先枚举到的路径。
func (f *Finder) Estimate(routes []types.Route, books map[string]*types.OrderBook, side types.Side, sell, buy string, amount decimal.Decimal) (*Quote, error) {
	if amount.Sign() <= 0 {
		return nil, errInvalidAmount
	}
	sell = strings.ToUpper(sell)
	buy = strings.ToUpper(buy)

	var best *Quote
	for _, route := range routes {
		var q *Quote
		var ok bool
		if side == types.SideSell {
			q, ok = f.walkForward(route, books, sell, buy, amount)
		} else {
			q, ok = f.walkBackward(route, books, sell, buy, amount)
		}
		if !ok {
			continue
		}
		if best == nil || better(side, q.Price, best.Price) {
			best = q
		}
	}
	return best, nil
}

// better side=SELL 价高者胜，side=BUY 价低者胜；相等不换（先到先得）
func better(side types.Side, candidate, incumbent decimal.Decimal) bool {
	if side == types.SideSell {
		return candidate.GreaterThan(incumbent)
	}
	return candidate.LessThan(incumbent)
}

// walkForward 正向传播：依次把持有量换成下一跳的对侧代币
func (f *Finder) walkForward(route types.Route, books map[string]*types.OrderBook, sell, buy string, amount decimal.Decimal) (*Quote, bool) {
	cur := sell
	remaining := amount
	levels := make([]types.PriceLevel, 0, len(route.Markets))
	for _, mkt := range route.Markets {
		bk := books[mkt.Symbol]
		if bk == nil {
			return nil, false
		}
		switch cur {
		case strings.ToUpper(mkt.Base.Symbol):
			// 持有 base，卖给最优 bid
			lvl, ok := bk.BestBid()
			if !ok || lvl.Price.Sign() <= 0 {
				return nil, false
			}
			remaining = remaining.Mul(lvl.Price)
			cur = strings.ToUpper(mkt.Quote.Symbol)
			levels = append(levels, lvl)
		case strings.ToUpper(mkt.Quote.Symbol):
			// 持有 quote，从最优 ask 买入 base
			lvl, ok := bk.BestAsk()
			if !ok || lvl.Price.Sign() <= 0 {
				return nil, false
			}
			remaining = remaining.Div(lvl.Price)
			cur = strings.ToUpper(mkt.Base.Symbol)
			levels = append(levels, lvl)
		default:
			logger.Warnf("路径与持仓代币不连续: market=%s token=%s", mkt.Symbol, cur)
			return nil, false
		}
	}
	if cur != buy {
		logger.Warnf("路径终点不是目标代币: got=%s want=%s", cur, buy)
		return nil, false
	}
	return &Quote{
		Route:     route,
		Side:      types.SideSell,
		AmountIn:  amount,
		AmountOut: remaining,
		Price:     remaining.Div(amount),
		Levels:    levels,
	}, true
}

// walkBackward 反向回推：从目标数量倒算每跳需要投入多少
func (f *Finder) walkBackward(route types.Route, books map[string]*types.OrderBook, sell, buy string, amount decimal.Decimal) (*Quote, bool) {
	cur := buy
	needed := amount
	levels := make([]types.PriceLevel, len(route.Markets))
	for i := len(route.Markets) - 1; i >= 0; i-- {
		mkt := route.Markets[i]
		bk := books[mkt.Symbol]
		if bk == nil {
			return nil, false
		}
		switch cur {
		case strings.ToUpper(mkt.Base.Symbol):
			// 要买到 base：从最优 ask 买，需付 quote = needed * askPrice
			lvl, ok := bk.BestAsk()
			if !ok || lvl.Price.Sign() <= 0 {
				return nil, false
			}
			needed = needed.Mul(lvl.Price)
			cur = strings.ToUpper(mkt.Quote.Symbol)
			levels[i] = lvl
		case strings.ToUpper(mkt.Quote.Symbol):
			// 要拿到 quote：把 base 卖给最优 bid，需投入 base = needed / bidPrice
			lvl, ok := bk.BestBid()
			if !ok || lvl.Price.Sign() <= 0 {
				return nil, false
			}
			needed = needed.Div(lvl.Price)
			cur = strings.ToUpper(mkt.Base.Symbol)
			levels[i] = lvl
		default:
			logger.Warnf("路径与持仓代币不连续: market=%s token=%s", mkt.Symbol, cur)
			return nil, false
		}
	}
	if cur != sell {
		logger.Warnf("路径起点不是卖出代币: got=%s want=%s", cur, sell)
		return nil, false
	}
	return &Quote{
		Route:     route,
		Side:      types.SideBuy,
		AmountIn:  needed,
		AmountOut: amount,
		Price:     needed.Div(amount),
		Levels:    levels,
	}, true
}
