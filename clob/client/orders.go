package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/pkg/logger"
	"github.com/fillbot/gofill/pkg/ratelimit"
)

// GetOrders 查询订单。params 为 nil 时只按客户端绑定的链过滤。
func (c *Client) GetOrders(ctx context.Context, params *types.OrdersParams) (*types.OrdersResponse, error) {
	if err := c.limiter.Wait(ctx, ratelimit.KeyOrdersGet); err != nil {
		return nil, networkErr(fmt.Errorf("限速等待失败: %w", err))
	}

	reqID := requestID()
	query := c.buildOrdersQuery(params)
	logger.Debugf("[%s] GET %s params=%v", reqID, EndpointGetOrders, query)

	var out types.OrdersResponse
	req := c.http.R().SetQueryParams(query).SetResult(&out)
	if _, err := execute(ctx, req, "GET", EndpointGetOrders); err != nil {
		logger.Debugf("[%s] 查询订单失败: %v", reqID, err)
		return nil, err
	}
	return &out, nil
}

// GetOrderByHash 按哈希查询单个订单；中继没有该订单时返回 KindNotFound。
func (c *Client) GetOrderByHash(ctx context.Context, orderHash string) (*types.Order, error) {
	if orderHash == "" {
		return nil, validationErr("orderHash 为空")
	}
	resp, err := c.GetOrders(ctx, &types.OrdersParams{OrderHash: &orderHash})
	if err != nil {
		return nil, err
	}
	if len(resp.Orders) == 0 {
		return nil, &APIError{Kind: KindNotFound, Message: fmt.Sprintf("订单不存在: %s", orderHash)}
	}
	return &resp.Orders[0], nil
}

// OpenOrdersForMarket 拉取一个市场两个方向的未成交订单：
// sellingBase 是输入侧为 base 的订单，sellingQuote 是输入侧为 quote 的订单。
// 一侧失败时返回另一侧的部分结果和该侧的错误，由调用方决定是否继续。
func (c *Client) OpenOrdersForMarket(ctx context.Context, market types.Market) (sellingBase, sellingQuote []types.Order, err error) {
	open := types.OrderStatusOpen
	limit := 500

	baseResp, baseErr := c.GetOrders(ctx, &types.OrdersParams{
		SellToken:   &market.Base.Address,
		BuyToken:    &market.Quote.Address,
		OrderStatus: &open,
		Limit:       &limit,
	})
	quoteResp, quoteErr := c.GetOrders(ctx, &types.OrdersParams{
		SellToken:   &market.Quote.Address,
		BuyToken:    &market.Base.Address,
		OrderStatus: &open,
		Limit:       &limit,
	})

	if baseResp != nil {
		sellingBase = baseResp.Orders
	}
	if quoteResp != nil {
		sellingQuote = quoteResp.Orders
	}
	if baseErr != nil {
		return sellingBase, sellingQuote, baseErr
	}
	return sellingBase, sellingQuote, quoteErr
}

// PostOrder 提交已签名订单。
// 中继拒绝时不自动重试：重试需要新 nonce，由上层重新走 Build/Sign。
func (c *Client) PostOrder(ctx context.Context, order *types.PostOrderRequest) (*types.PostOrderResponse, error) {
	if order == nil || order.EncodedOrder == "" || order.Signature == "" {
		return nil, validationErr("订单载荷不完整")
	}
	if err := c.limiter.Wait(ctx, ratelimit.KeyOrderPost); err != nil {
		return nil, networkErr(fmt.Errorf("限速等待失败: %w", err))
	}

	reqID := requestID()
	logger.Infof("[%s] 提交订单 chainId=%d", reqID, order.ChainID)

	var out types.PostOrderResponse
	req := c.http.R().SetBody(order).SetResult(&out)
	if _, err := execute(ctx, req, "POST", EndpointPostOrder); err != nil {
		logger.Warnf("[%s] 提交订单失败: %v", reqID, err)
		return nil, err
	}
	logger.Infof("[%s] 订单已受理 hash=%s", reqID, out.Hash)
	return &out, nil
}

// CancelOrder 请求取消订单。取消在中继层是尽力而为：
// 中继应答成功只代表不再撮合，链上防重放不在此层。
func (c *Client) CancelOrder(ctx context.Context, cancel *types.CancelOrderRequest) (*types.CancelOrderResponse, error) {
	if cancel == nil || cancel.Hash == "" || cancel.Signature == "" || cancel.Swapper == "" {
		return nil, validationErr("取消请求不完整")
	}
	if err := c.limiter.Wait(ctx, ratelimit.KeyCancelPost); err != nil {
		return nil, networkErr(fmt.Errorf("限速等待失败: %w", err))
	}

	reqID := requestID()
	logger.Infof("[%s] 请求取消 hash=%s", reqID, cancel.Hash)

	var out types.CancelOrderResponse
	req := c.http.R().SetBody(cancel).SetResult(&out)
	if _, err := execute(ctx, req, "POST", EndpointCancelOrder); err != nil {
		logger.Warnf("[%s] 取消失败: %v", reqID, err)
		return nil, err
	}
	return &out, nil
}

// buildOrdersQuery 组装查询参数，nil 字段不参与过滤
func (c *Client) buildOrdersQuery(params *types.OrdersParams) map[string]string {
	query := map[string]string{
		"chainId": strconv.FormatInt(c.chainID, 10),
	}
	if params == nil {
		return query
	}
	if params.ChainID != nil {
		query["chainId"] = strconv.FormatInt(*params.ChainID, 10)
	}
	if params.OrderStatus != nil {
		query["orderStatus"] = string(*params.OrderStatus)
	}
	if params.SellToken != nil {
		query["sellToken"] = *params.SellToken
	}
	if params.BuyToken != nil {
		query["buyToken"] = *params.BuyToken
	}
	if params.Swapper != nil {
		query["swapper"] = *params.Swapper
	}
	if params.OrderHash != nil {
		query["orderHash"] = *params.OrderHash
	}
	if params.Limit != nil {
		query["limit"] = strconv.Itoa(*params.Limit)
	}
	if params.SortKey != nil {
		query["sortKey"] = *params.SortKey
	}
	if params.Desc != nil {
		query["desc"] = strconv.FormatBool(*params.Desc)
	}
	if params.Cursor != nil {
		query["cursor"] = *params.Cursor
	}
	return query
}

// requestID 短请求 ID，只用于把一次调用的日志串起来
func requestID() string {
	return uuid.NewString()[:8]
}
