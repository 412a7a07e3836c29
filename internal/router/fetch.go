package router

import (
	"context"
	"sync"
	"time"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/pkg/logger"
	"github.com/fillbot/gofill/pkg/syncgroup"
)

// BookSource 按市场获取实时订单簿
type BookSource interface {
	FetchBook(ctx context.Context, market types.Market) (*types.OrderBook, error)
}

// CollectBooks 并发拉取 routes 涉及的全部市场的订单簿。
// 每个市场一个 goroutine、各自限时；单个市场失败或超时只记日志、
// 留下缺口，绝不取消兄弟请求——缺了一跳的路径作废，
// 其余路径照常参与估价。
func CollectBooks(ctx context.Context, src BookSource, routes []types.Route, timeout time.Duration) map[string]*types.OrderBook {
	markets := make(map[string]types.Market)
	for _, r := range routes {
		for _, m := range r.Markets {
			markets[m.Symbol] = m
		}
	}

	var mu sync.Mutex
	books := make(map[string]*types.OrderBook, len(markets))

	sg := syncgroup.NewSyncGroup()
	for _, m := range markets {
		sg.Go(func() {
			hopCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			bk, err := src.FetchBook(hopCtx, m)
			if err != nil {
				logger.Warnf("拉取订单簿失败: market=%s err=%v", m.Symbol, err)
				return
			}
			if bk == nil {
				return
			}
			mu.Lock()
			books[m.Symbol] = bk
			mu.Unlock()
		})
	}
	sg.Wait()
	return books
}
