package book

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fillbot/gofill/clob/types"
)

var (
	weth = types.Token{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH", Decimals: 18}
	usdc = types.Token{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6}

	market = types.Market{Symbol: "WETH-USDC", Base: weth, Quote: usdc}
)

const swapper = "0x1111111111111111111111111111111111111111"

// askOrder swapper 卖 baseIn 个 WETH（18位原始量），quote 输出从 startOut 衰减到 endOut（6位原始量）
func askOrder(hash, baseIn, startOut, endOut string, t0, t1, deadline int64) types.Order {
	return types.Order{
		OrderHash:      hash,
		OrderStatus:    types.OrderStatusOpen,
		Swapper:        swapper,
		Input:          types.OrderInput{Token: weth.Address, StartAmount: baseIn, EndAmount: baseIn},
		Outputs:        []types.OrderOutput{{Token: usdc.Address, StartAmount: startOut, EndAmount: endOut, Recipient: swapper}},
		DecayStartTime: t0,
		DecayEndTime:   t1,
		Deadline:       deadline,
	}
}

// bidOrder swapper 用 quoteIn 个 USDC 买 base，base 输出从 startOut 衰减到 endOut（18位原始量）
func bidOrder(hash, quoteIn, startOut, endOut string, t0, t1, deadline int64) types.Order {
	return types.Order{
		OrderHash:      hash,
		OrderStatus:    types.OrderStatusOpen,
		Swapper:        swapper,
		Input:          types.OrderInput{Token: usdc.Address, StartAmount: quoteIn, EndAmount: quoteIn},
		Outputs:        []types.OrderOutput{{Token: weth.Address, StartAmount: startOut, EndAmount: endOut, Recipient: swapper}},
		DecayStartTime: t0,
		DecayEndTime:   t1,
		Deadline:       deadline,
	}
}

func TestAggregate_SortsAndFilters(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := now.Unix()
	t0, t1 := ts-100, ts+100
	deadline := ts + 600

	sellingBase := []types.Order{
		// 两个 ask 故意乱序给入：3600 和 3550（取 now == 衰减中点之前的值无所谓，
		// 这里让衰减区间退化为常数，方便断言）
		askOrder("0xa1", "1000000000000000000", "3600000000", "3600000000", t0, t1, deadline),
		askOrder("0xa2", "1000000000000000000", "3550000000", "3550000000", t0, t1, deadline),
		// 已过期，必须被过滤
		askOrder("0xa3", "1000000000000000000", "9000000000", "9000000000", t0, t1, ts),
		// 金额畸形，必须被跳过而不是中断聚合
		askOrder("0xa4", "not-a-number", "3600000000", "3600000000", t0, t1, deadline),
		// 已成交状态不进簿
		func() types.Order {
			o := askOrder("0xa5", "1000000000000000000", "3700000000", "3700000000", t0, t1, deadline)
			o.OrderStatus = types.OrderStatusFilled
			return o
		}(),
	}
	sellingQuote := []types.Order{
		bidOrder("0xb1", "3400000000", "1000000000000000000", "1000000000000000000", t0, t1, deadline),
		bidOrder("0xb2", "3450000000", "1000000000000000000", "1000000000000000000", t0, t1, deadline),
	}

	book := Aggregate(market, sellingBase, sellingQuote, now)

	if len(book.Asks) != 2 {
		t.Fatalf("asks 数量 got=%d want=2", len(book.Asks))
	}
	if len(book.Bids) != 2 {
		t.Fatalf("bids 数量 got=%d want=2", len(book.Bids))
	}

	// asks 升序：3550 在前
	if !book.Asks[0].Price.Equal(decimal.NewFromInt(3550)) || !book.Asks[1].Price.Equal(decimal.NewFromInt(3600)) {
		t.Fatalf("asks 排序错误: %s, %s", book.Asks[0].Price, book.Asks[1].Price)
	}
	// bids 降序：3450 在前
	if !book.Bids[0].Price.Equal(decimal.NewFromInt(3450)) || !book.Bids[1].Price.Equal(decimal.NewFromInt(3400)) {
		t.Fatalf("bids 排序错误: %s, %s", book.Bids[0].Price, book.Bids[1].Price)
	}

	// ask 数量 = base 输入的自然单位
	if !book.Asks[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("ask 数量 got=%s want=1", book.Asks[0].Quantity)
	}

	best, ok := book.BestAsk()
	if !ok || !best.Price.Equal(decimal.NewFromInt(3550)) {
		t.Fatalf("BestAsk got=%v ok=%v", best.Price, ok)
	}
}

func TestAggregate_OneLevelPerOrder(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := now.Unix()

	// 相同价格的两个订单不合并，各占一档
	sellingBase := []types.Order{
		askOrder("0xa1", "1000000000000000000", "3600000000", "3600000000", ts-10, ts+10, ts+600),
		askOrder("0xa2", "2000000000000000000", "7200000000", "7200000000", ts-10, ts+10, ts+600),
	}

	book := Aggregate(market, sellingBase, nil, now)
	if len(book.Asks) != 2 {
		t.Fatalf("相同价格应各占一档 got=%d want=2", len(book.Asks))
	}
	if !book.Asks[0].Price.Equal(book.Asks[1].Price) {
		t.Fatalf("两档价格应相同: %s vs %s", book.Asks[0].Price, book.Asks[1].Price)
	}
}

func TestAggregate_BidPriceRisesQuantityDecays(t *testing.T) {
	ts := int64(1_700_000_000)
	t0, t1 := ts-50, ts+50 // now 正好是衰减中点

	// base 输出 1.0 -> 0.875，中点 0.9375；价格 3500/0.9375
	bid := bidOrder("0xb1", "3500000000", "1000000000000000000", "875000000000000000", t0, t1, ts+600)

	book := Aggregate(market, nil, []types.Order{bid}, time.Unix(ts, 0))
	if len(book.Bids) != 1 {
		t.Fatalf("bids 数量 got=%d want=1", len(book.Bids))
	}

	wantQty := decimal.RequireFromString("0.9375")
	if !book.Bids[0].Quantity.Equal(wantQty) {
		t.Fatalf("bid 数量 got=%s want=%s", book.Bids[0].Quantity, wantQty)
	}

	// 起始价 3500，终值价 4000，中点价应落在两者之间
	if !(book.Bids[0].Price.GreaterThan(decimal.NewFromInt(3500)) && book.Bids[0].Price.LessThan(decimal.NewFromInt(4000))) {
		t.Fatalf("bid 价格应落在 (3500, 4000), got=%s", book.Bids[0].Price)
	}
}

func TestAggregate_SkipsWrongToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := now.Unix()

	// 输入代币与市场 base 不符的 ask
	o := askOrder("0xa1", "1000000000000000000", "3600000000", "3600000000", ts-10, ts+10, ts+600)
	o.Input.Token = "0xdeadbeef00000000000000000000000000000000"

	book := Aggregate(market, []types.Order{o}, nil, now)
	if len(book.Asks) != 0 {
		t.Fatalf("错误代币的订单不应进簿 got=%d", len(book.Asks))
	}
}

func TestAggregate_EmptyInputs(t *testing.T) {
	book := Aggregate(market, nil, nil, time.Unix(1_700_000_000, 0))
	if len(book.Asks) != 0 || len(book.Bids) != 0 {
		t.Fatalf("空输入应产生空簿")
	}
	if _, ok := book.BestBid(); ok {
		t.Fatalf("空簿不应有最优 bid")
	}
}
