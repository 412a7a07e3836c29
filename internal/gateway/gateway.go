// Package gateway 是订单执行入口：组装 Dutch 订单、签名、
// 提交中继、请求取消。提交失败不自动重试（重试需要新 nonce，
// 必须重新走 Build/Sign）；取消前先抢订单锁，抢不到就让调用方稍后再试。
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fillbot/gofill/clob/signing"
	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/internal/guard"
	"github.com/fillbot/gofill/internal/nonce"
	"github.com/fillbot/gofill/internal/wallet"
	"github.com/fillbot/gofill/pkg/logger"
)

// Relay 中继能力（由 clob/client 提供）
type Relay interface {
	GetOrders(ctx context.Context, params *types.OrdersParams) (*types.OrdersResponse, error)
	PostOrder(ctx context.Context, order *types.PostOrderRequest) (*types.PostOrderResponse, error)
	CancelOrder(ctx context.Context, cancel *types.CancelOrderRequest) (*types.CancelOrderResponse, error)
}

// Config 执行配置（来自链配置，EIP-712 域由外部提供）
type Config struct {
	ChainID       int64
	Reactor       string
	DomainName    string
	DomainVersion string
	OrderDuration time.Duration
}

// Gateway 订单执行网关
type Gateway struct {
	cfg    Config
	relay  Relay
	signer wallet.Signer
	nonces nonce.Authority
	locks  *guard.Table
	now    func() time.Time
}

// New 创建网关。locks 由调用方持有：后台撮合和取消入口
// 必须共享同一张锁表才谈得上互斥。
func New(cfg Config, relay Relay, signer wallet.Signer, nonces nonce.Authority, locks *guard.Table) *Gateway {
	return &Gateway{
		cfg:    cfg,
		relay:  relay,
		signer: signer,
		nonces: nonces,
		locks:  locks,
		now:    time.Now,
	}
}

// BuildParams 下单参数
type BuildParams struct {
	// SellToken swapper 付出的代币
	SellToken types.Token
	// BuyToken swapper 换回的代币
	BuyToken types.Token
	// Amount 卖出数量（自然单位）
	Amount decimal.Decimal
	// LimitPrice 每卖出一单位换回的 buy 代币数
	LimitPrice decimal.Decimal
	// Slippage 滑点容忍度 [0,1)，决定衰减终值：
	// endAmount = startAmount * (1 - Slippage)，是 swapper 接受的下限
	Slippage decimal.Decimal
}

// Build 组装一个未签名 Dutch 订单：
// deadline = now + 配置时长，decayStart = now，decayEnd = deadline - 1，
// nonce 从外部权威按 swapper 地址领取。
func (g *Gateway) Build(ctx context.Context, p BuildParams) (*types.DutchOrder, error) {
	if p.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("卖出数量必须为正")
	}
	if p.LimitPrice.Sign() <= 0 {
		return nil, fmt.Errorf("限价必须为正")
	}
	if p.Slippage.Sign() < 0 || p.Slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("滑点必须在 [0,1) 内")
	}

	swapper := g.signer.Address()
	n, err := g.nonces.UseNonce(ctx, swapper)
	if err != nil {
		return nil, fmt.Errorf("领取 nonce 失败: %w", err)
	}

	now := g.now().Unix()
	deadline := now + int64(g.cfg.OrderDuration/time.Second)

	sellAmount := p.Amount.Shift(p.SellToken.Decimals).Floor()
	startOut := p.Amount.Mul(p.LimitPrice).Shift(p.BuyToken.Decimals).Floor()
	endOut := startOut.Mul(decimal.NewFromInt(1).Sub(p.Slippage)).Floor()
	if sellAmount.Sign() <= 0 || startOut.Sign() <= 0 || endOut.Sign() <= 0 {
		return nil, fmt.Errorf("金额换算后为零，decimals 或数量配置有误")
	}

	return &types.DutchOrder{
		ChainID:        g.cfg.ChainID,
		Reactor:        g.cfg.Reactor,
		Swapper:        swapper,
		Nonce:          n,
		Deadline:       deadline,
		DecayStartTime: now,
		DecayEndTime:   deadline - 1,
		Input: types.DutchInput{
			Token:       p.SellToken.Address,
			StartAmount: sellAmount.BigInt(),
			EndAmount:   sellAmount.BigInt(),
		},
		Outputs: []types.DutchOutput{{
			Token:       p.BuyToken.Address,
			StartAmount: startOut.BigInt(),
			EndAmount:   endOut.BigInt(),
			Recipient:   swapper,
		}},
	}, nil
}

// Sign 计算订单哈希、ABI 编码并委托签名器出 typed-data 签名
func (g *Gateway) Sign(order *types.DutchOrder) (*types.SignedOrder, error) {
	typedData, err := signing.BuildOrderTypedData(order, g.cfg.DomainName, g.cfg.DomainVersion)
	if err != nil {
		return nil, fmt.Errorf("组装 typed data 失败: %w", err)
	}
	orderHash, err := signing.OrderHash(typedData)
	if err != nil {
		return nil, err
	}
	sig, err := g.signer.SignTypedData(typedData)
	if err != nil {
		return nil, fmt.Errorf("订单签名失败: %w", err)
	}
	encoded, err := signing.EncodeOrder(order)
	if err != nil {
		return nil, err
	}
	return &types.SignedOrder{
		Order:        *order,
		OrderHash:    orderHash,
		Signature:    sig,
		EncodedOrder: encoded,
	}, nil
}

// Submit 提交已签名订单，成功后把哈希纳入锁表管理。
// 中继拒单时错误原话向上透传，不重试。
func (g *Gateway) Submit(ctx context.Context, signed *types.SignedOrder) (string, error) {
	if signed == nil || signed.EncodedOrder == "" || signed.Signature == "" {
		return "", fmt.Errorf("订单未签名")
	}
	resp, err := g.relay.PostOrder(ctx, &types.PostOrderRequest{
		EncodedOrder: signed.EncodedOrder,
		Signature:    signed.Signature,
		ChainID:      g.cfg.ChainID,
	})
	if err != nil {
		return "", err
	}

	hash := resp.Hash
	if hash == "" {
		hash = signed.OrderHash
	}
	g.locks.AddOrders(hash)
	logger.Infof("订单已提交 hash=%s deadline=%d", hash, signed.Order.Deadline)
	return hash, nil
}

// Cancel 请求取消订单。先抢锁：订单正被其它操作占用时
// 返回 guard.ErrOrderLocked，调用方稍后重试；本层绝不悄悄排队。
// 中继确认后订单移出锁表，失败则释放锁还原状态。
func (g *Gateway) Cancel(ctx context.Context, orderHash string) error {
	if orderHash == "" {
		return fmt.Errorf("orderHash 为空")
	}
	if !g.locks.TryLock(orderHash) {
		return fmt.Errorf("订单 %s 正被占用: %w", orderHash, guard.ErrOrderLocked)
	}

	hashBytes, err := signing.HashBytes(orderHash)
	if err != nil {
		g.locks.Release(orderHash)
		return err
	}
	sig, err := g.signer.SignMessage(hashBytes)
	if err != nil {
		g.locks.Release(orderHash)
		return fmt.Errorf("取消签名失败: %w", err)
	}

	_, err = g.relay.CancelOrder(ctx, &types.CancelOrderRequest{
		Signature: sig,
		Hash:      orderHash,
		Swapper:   g.signer.Address(),
	})
	if err != nil {
		g.locks.Release(orderHash)
		return err
	}

	// 已取消的订单立即移出锁表
	g.locks.RemoveOrders(orderHash)
	logger.Infof("订单已取消 hash=%s", orderHash)
	return nil
}

// SyncOpenOrders 从中继拉取本 swapper 的全部未成交订单，
// 整体替换锁表的受管集（锁状态归零）。返回受管订单数。
func (g *Gateway) SyncOpenOrders(ctx context.Context) (int, error) {
	swapper := g.signer.Address()
	open := types.OrderStatusOpen
	resp, err := g.relay.GetOrders(ctx, &types.OrdersParams{
		Swapper:     &swapper,
		OrderStatus: &open,
	})
	if err != nil {
		return 0, err
	}

	hashes := make([]string, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		hashes = append(hashes, o.OrderHash)
	}
	g.locks.UpdateOrders(hashes)
	return len(hashes), nil
}
