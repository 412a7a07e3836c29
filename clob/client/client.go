// Package client 是链下中继的 HTTP 客户端：查订单、提交订单、请求取消。
// 每个端点都过限速器；错误按 ErrorKind 分类，中继报文原样保留。
package client

import (
	"github.com/go-resty/resty/v2"

	"github.com/fillbot/gofill/pkg/ratelimit"
)

// Client 中继客户端。构造后只读，可被多个 goroutine 并发使用。
type Client struct {
	host    string
	chainID int64
	http    *resty.Client
	limiter *ratelimit.Manager
}

// New 创建中继客户端
func New(host string, chainID int64) *Client {
	return &Client{
		host:    host,
		chainID: chainID,
		http:    newRestyClient(host),
		limiter: ratelimit.NewManager(),
	}
}

// Host 中继地址
func (c *Client) Host() string {
	return c.host
}

// ChainID 客户端绑定的链
func (c *Client) ChainID() int64 {
	return c.chainID
}
