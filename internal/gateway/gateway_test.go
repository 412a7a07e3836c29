package gateway

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/internal/guard"
	"github.com/fillbot/gofill/internal/nonce"
	"github.com/fillbot/gofill/internal/wallet"
)

// fakeRelay 记录调用并返回预设结果
type fakeRelay struct {
	postErr    error
	cancelErr  error
	posted     []*types.PostOrderRequest
	cancelled  []*types.CancelOrderRequest
	openOrders []types.Order
}

func (f *fakeRelay) GetOrders(context.Context, *types.OrdersParams) (*types.OrdersResponse, error) {
	return &types.OrdersResponse{Orders: f.openOrders}, nil
}

func (f *fakeRelay) PostOrder(_ context.Context, req *types.PostOrderRequest) (*types.PostOrderResponse, error) {
	if f.postErr != nil {
		return nil, f.postErr
	}
	f.posted = append(f.posted, req)
	return &types.PostOrderResponse{Hash: postedHash}, nil
}

func (f *fakeRelay) CancelOrder(_ context.Context, req *types.CancelOrderRequest) (*types.CancelOrderResponse, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	f.cancelled = append(f.cancelled, req)
	return &types.CancelOrderResponse{Hash: req.Hash, Cancelled: true}, nil
}

const testKey = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

// postedHash 模拟中继回执的订单哈希（32 字节 hex）
var postedHash = "0x" + strings.Repeat("cd", 32)

var (
	tWETH = types.Token{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18}
	tUSDC = types.Token{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6}
)

func newGateway(t *testing.T, relay Relay) (*Gateway, *guard.Table) {
	t.Helper()
	signer, err := wallet.NewLocalSigner(testKey)
	require.NoError(t, err)
	locks := guard.NewTable()
	g := New(Config{
		ChainID:       1,
		Reactor:       "0x1111111111111111111111111111111111111111",
		DomainName:    "DutchOrderReactor",
		DomainVersion: "1",
		OrderDuration: 120 * time.Second,
	}, relay, signer, nonce.NewMemory(), locks)
	g.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return g, locks
}

func buildParams() BuildParams {
	return BuildParams{
		SellToken:  tWETH,
		BuyToken:   tUSDC,
		Amount:     decimal.NewFromInt(2),
		LimitPrice: decimal.NewFromInt(3500),
		Slippage:   decimal.NewFromFloat(0.01),
	}
}

func TestBuild_Windows(t *testing.T) {
	g, _ := newGateway(t, &fakeRelay{})
	o, err := g.Build(context.Background(), buildParams())
	require.NoError(t, err)

	assert.Equal(t, int64(1_700_000_000), o.DecayStartTime)
	assert.Equal(t, int64(1_700_000_120), o.Deadline)
	// decayEnd 必须正好是 deadline-1
	assert.Equal(t, o.Deadline-1, o.DecayEndTime)
	assert.Equal(t, int64(0), o.Nonce.Int64())
}

func TestBuild_Amounts(t *testing.T) {
	g, _ := newGateway(t, &fakeRelay{})
	o, err := g.Build(context.Background(), buildParams())
	require.NoError(t, err)

	// 卖 2 WETH = 2e18 最小单位
	want, _ := new(big.Int).SetString("2000000000000000000", 10)
	assert.Zero(t, o.Input.StartAmount.Cmp(want))
	assert.Zero(t, o.Input.EndAmount.Cmp(want))

	// startOut = 2 * 3500 USDC = 7000e6；endOut = startOut * 0.99
	require.Len(t, o.Outputs, 1)
	assert.Equal(t, int64(7000_000000), o.Outputs[0].StartAmount.Int64())
	assert.Equal(t, int64(6930_000000), o.Outputs[0].EndAmount.Int64())
	assert.Equal(t, g.signer.Address(), o.Outputs[0].Recipient)
}

func TestBuild_NonceAdvances(t *testing.T) {
	g, _ := newGateway(t, &fakeRelay{})
	o1, err := g.Build(context.Background(), buildParams())
	require.NoError(t, err)
	o2, err := g.Build(context.Background(), buildParams())
	require.NoError(t, err)
	assert.Equal(t, o1.Nonce.Int64()+1, o2.Nonce.Int64())
}

func TestBuild_RejectsBadParams(t *testing.T) {
	g, _ := newGateway(t, &fakeRelay{})

	p := buildParams()
	p.Amount = decimal.Zero
	_, err := g.Build(context.Background(), p)
	require.Error(t, err)

	p = buildParams()
	p.Slippage = decimal.NewFromInt(1)
	_, err = g.Build(context.Background(), p)
	require.Error(t, err)
}

func TestSignAndSubmit(t *testing.T) {
	relay := &fakeRelay{}
	g, locks := newGateway(t, relay)

	o, err := g.Build(context.Background(), buildParams())
	require.NoError(t, err)
	signed, err := g.Sign(o)
	require.NoError(t, err)
	assert.NotEmpty(t, signed.OrderHash)
	assert.NotEmpty(t, signed.Signature)
	assert.NotEmpty(t, signed.EncodedOrder)

	hash, err := g.Submit(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, postedHash, hash)
	// 提交成功后订单进入锁表且未占用
	assert.True(t, locks.IsManaged(hash))
	assert.False(t, locks.IsLocked(hash))

	require.Len(t, relay.posted, 1)
	assert.Equal(t, int64(1), relay.posted[0].ChainID)
}

func TestSubmit_RelayErrorSurfaced(t *testing.T) {
	relayErr := errors.New(`{"errorCode":"NONCE_USED"}`)
	g, locks := newGateway(t, &fakeRelay{postErr: relayErr})

	o, _ := g.Build(context.Background(), buildParams())
	signed, _ := g.Sign(o)
	_, err := g.Submit(context.Background(), signed)
	require.ErrorIs(t, err, relayErr)
	assert.Zero(t, locks.Len(), "失败的提交不应进锁表")
}

func TestCancel(t *testing.T) {
	relay := &fakeRelay{}
	g, locks := newGateway(t, relay)

	td, _ := g.Build(context.Background(), buildParams())
	signed, _ := g.Sign(td)
	hash, _ := g.Submit(context.Background(), signed)

	require.NoError(t, g.Cancel(context.Background(), hash))
	// 取消成功后订单移出锁表（视为不受管）
	assert.False(t, locks.IsManaged(hash))
	assert.False(t, locks.IsLocked(hash))

	require.Len(t, relay.cancelled, 1)
	assert.Equal(t, hash, relay.cancelled[0].Hash)
	assert.Equal(t, g.signer.Address(), relay.cancelled[0].Swapper)
	assert.NotEmpty(t, relay.cancelled[0].Signature)
}

func TestCancel_LockedOrderRejected(t *testing.T) {
	g, locks := newGateway(t, &fakeRelay{})
	hash := "0x" + strings.Repeat("aa", 32)
	locks.Lock(hash)

	err := g.Cancel(context.Background(), hash)
	require.ErrorIs(t, err, guard.ErrOrderLocked)
}

func TestCancel_RelayFailureReleasesLock(t *testing.T) {
	relayErr := errors.New("relay unavailable")
	g, locks := newGateway(t, &fakeRelay{cancelErr: relayErr})
	hash := "0x" + strings.Repeat("bb", 32)
	locks.AddOrders(hash)

	err := g.Cancel(context.Background(), hash)
	require.ErrorIs(t, err, relayErr)
	// 失败后锁必须释放，订单仍受管
	assert.True(t, locks.IsManaged(hash))
	assert.False(t, locks.IsLocked(hash))
}

func TestSyncOpenOrders(t *testing.T) {
	relay := &fakeRelay{openOrders: []types.Order{
		{OrderHash: "0x01"}, {OrderHash: "0x02"},
	}}
	g, locks := newGateway(t, relay)
	locks.Lock("0xstale")

	n, err := g.SyncOpenOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, locks.IsManaged("0x01"))
	assert.False(t, locks.IsManaged("0xstale"))
	assert.False(t, locks.IsLocked("0x01"))
}
