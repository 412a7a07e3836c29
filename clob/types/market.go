package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Token 代币元数据
type Token struct {
	Address  string `json:"address" yaml:"address"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int32  `json:"decimals" yaml:"decimals"`
}

// Market 交易对（BASE-QUOTE）。价格一律以 quote 计价 base。
type Market struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Base   Token  `json:"base" yaml:"base"`
	Quote  Token  `json:"quote" yaml:"quote"`
}

// MarketSymbol 规范化交易对符号（"WETH-USDC"）
func MarketSymbol(base, quote string) string {
	return strings.ToUpper(base) + "-" + strings.ToUpper(quote)
}

// PriceLevel 订单簿中的一档。
// 由单个 Dutch 订单在查询时刻推导，纯派生值，从不持久化或缓存。
type PriceLevel struct {
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Timestamp time.Time
	// OrderHash 产生该档位的订单哈希，询价结果用它回指成交订单
	OrderHash string
}

// OrderBook 聚合订单簿：bids 按价格降序，asks 按价格升序。
// 每个未成交订单恰好对应一档，相同价格不合并。
type OrderBook struct {
	Market    string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BestBid 最优买价（最高 bid）。空簿返回 false。
func (b *OrderBook) BestBid() (PriceLevel, bool) {
	if b == nil || len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk 最优卖价（最低 ask）。空簿返回 false。
func (b *OrderBook) BestAsk() (PriceLevel, bool) {
	if b == nil || len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	return b.Asks[0], true
}

// Route 一条成交路径：1 跳直达，或 2 跳经桥接代币。
// Markets 按执行顺序排列，最多两跳。
type Route struct {
	Markets []Market
}

// String 形如 "WETH-USDC" 或 "WETH-WBTC -> WBTC-USDC"
func (r Route) String() string {
	parts := make([]string, 0, len(r.Markets))
	for _, m := range r.Markets {
		parts = append(parts, m.Symbol)
	}
	return strings.Join(parts, " -> ")
}

// FillEvent 市场成交事件（行情推送，仅用于展示）
type FillEvent struct {
	Market    string `json:"market"`
	OrderHash string `json:"orderHash"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
	Side      Side   `json:"side"`
	Timestamp int64  `json:"timestamp"`
}
