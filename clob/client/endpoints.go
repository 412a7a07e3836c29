package client

// 中继 API 端点
const (
	// EndpointGetOrders 查询订单（支持 chainId/buyToken/sellToken/orderStatus/orderHash 过滤）
	EndpointGetOrders = "/orders"

	// EndpointPostOrder 提交已签名订单
	EndpointPostOrder = "/order"

	// EndpointCancelOrder 请求取消订单（中继侧尽力而为，链上防重放不在此层）
	EndpointCancelOrder = "/cancel"
)
