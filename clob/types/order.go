package types

import "math/big"

// OrderInput Dutch 订单输入侧（swapper 卖出的代币）。
// 金额为十进制整数字符串（最小单位），内存中再换成 *big.Int，
// 全程不经过浮点。
type OrderInput struct {
	// Token 代币合约地址
	Token string `json:"token"`

	// StartAmount 衰减起始输入量
	StartAmount string `json:"startAmount"`

	// EndAmount 衰减结束输入量（Dutch 订单输入侧通常不衰减，两者相等）
	EndAmount string `json:"endAmount"`
}

// OrderOutput Dutch 订单输出侧（swapper 或手续费接收方收到的代币）
type OrderOutput struct {
	// Token 代币合约地址
	Token string `json:"token"`

	// StartAmount 衰减起始输出量
	StartAmount string `json:"startAmount"`

	// EndAmount 衰减结束输出量（終值，对 taker 最有利）
	EndAmount string `json:"endAmount"`

	// Recipient 接收地址
	Recipient string `json:"recipient"`
}

// Order 中继返回的 Dutch 订单。
// OrderHash 是不透明字符串键：只做相等比较和透传，永不解析成数字。
type Order struct {
	OrderHash      string        `json:"orderHash"`
	ChainID        int64         `json:"chainId"`
	OrderStatus    OrderStatus   `json:"orderStatus"`
	Swapper        string        `json:"swapper"`
	Input          OrderInput    `json:"input"`
	Outputs        []OrderOutput `json:"outputs"`
	Nonce          string        `json:"nonce"`
	Deadline       int64         `json:"deadline"`
	DecayStartTime int64         `json:"decayStartTime"`
	DecayEndTime   int64         `json:"decayEndTime"`
	EncodedOrder   string        `json:"encodedOrder,omitempty"`
	Signature      string        `json:"signature,omitempty"`
	QuoteID        string        `json:"quoteId,omitempty"`
	CreatedAt      int64         `json:"createdAt,omitempty"`
}

// PrimaryOutput 返回 swapper 侧的主输出（第一个 output，按协议约定）。
// 没有 output 时返回 false。
func (o *Order) PrimaryOutput() (OrderOutput, bool) {
	if len(o.Outputs) == 0 {
		return OrderOutput{}, false
	}
	return o.Outputs[0], true
}

// DutchInput 待签名订单的输入侧（内存表示）
type DutchInput struct {
	Token       string
	StartAmount *big.Int
	EndAmount   *big.Int
}

// DutchOutput 待签名订单的输出侧（内存表示）
type DutchOutput struct {
	Token       string
	StartAmount *big.Int
	EndAmount   *big.Int
	Recipient   string
}

// DutchOrder 待签名的 Dutch 订单（金额为整数最小单位）
type DutchOrder struct {
	ChainID        int64
	Reactor        string // 结算合约地址（来自链配置，EIP-712 domain 的 verifyingContract）
	Swapper        string
	Nonce          *big.Int
	Deadline       int64
	DecayStartTime int64
	DecayEndTime   int64
	Input          DutchInput
	Outputs        []DutchOutput
}

// SignedOrder 已签名、可提交的订单
type SignedOrder struct {
	Order        DutchOrder
	OrderHash    string
	Signature    string
	EncodedOrder string
}

// PostOrderRequest 提交订单请求体
type PostOrderRequest struct {
	EncodedOrder string `json:"encodedOrder"`
	Signature    string `json:"signature"`
	ChainID      int64  `json:"chainId"`
	QuoteID      string `json:"quoteId,omitempty"`
}

// PostOrderResponse 提交订单响应
type PostOrderResponse struct {
	Hash string `json:"hash"`
}

// CancelOrderRequest 取消订单请求体（签名对象是订单哈希本身）
type CancelOrderRequest struct {
	Signature string `json:"signature"`
	Hash      string `json:"hash"`
	Swapper   string `json:"swapper"`
}

// CancelOrderResponse 取消订单响应
type CancelOrderResponse struct {
	Hash      string `json:"hash"`
	Cancelled bool   `json:"cancelled"`
}

// OrdersResponse GET /orders 响应（cursor 为空表示没有下一页）
type OrdersResponse struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor,omitempty"`
}

// OrdersParams 查询订单参数（nil 字段不参与过滤）
type OrdersParams struct {
	ChainID     *int64
	OrderStatus *OrderStatus
	SellToken   *string
	BuyToken    *string
	Swapper     *string
	OrderHash   *string
	Limit       *int
	SortKey     *string
	Desc        *bool
	Cursor      *string
}
