package book

import (
	"context"
	"time"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/pkg/logger"
)

// OrdersAPI 拉取一个市场两个方向未成交订单的能力（由中继客户端提供）
type OrdersAPI interface {
	OpenOrdersForMarket(ctx context.Context, market types.Market) (sellingBase, sellingQuote []types.Order, err error)
}

// Source 实时订单簿来源：每次查询都从中继拉当前未成交订单
// 并按查询时刻重新聚合。不做任何缓存。
type Source struct {
	api OrdersAPI
	now func() time.Time
}

// NewSource 创建订单簿来源
func NewSource(api OrdersAPI) *Source {
	return &Source{api: api, now: time.Now}
}

// FetchBook 拉取并聚合 market 的订单簿。
// 一侧拉取失败时用另一侧的部分结果继续（半边簿也能参与估价），
// 两侧都空且有错误时才向上报错。
func (s *Source) FetchBook(ctx context.Context, market types.Market) (*types.OrderBook, error) {
	sellingBase, sellingQuote, err := s.api.OpenOrdersForMarket(ctx, market)
	if err != nil {
		if len(sellingBase) == 0 && len(sellingQuote) == 0 {
			return nil, err
		}
		logger.Warnf("订单簿只拉到一侧，按部分结果聚合: market=%s err=%v", market.Symbol, err)
	}
	return Aggregate(market, sellingBase, sellingQuote, s.now()), nil
}
