// Package feed 订阅行情推送里的成交事件，维护各市场的最新成交价。
// 只服务于展示（ticker、TUI）：撮合与估价永远基于实时聚合的订单簿，
// 绝不读这里的数据。
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/pkg/cache"
	"github.com/fillbot/gofill/pkg/logger"
	"github.com/fillbot/gofill/pkg/sigchan"
	"github.com/fillbot/gofill/pkg/syncgroup"
)

// FillHandler 成交事件回调
type FillHandler func(types.FillEvent)

// Client 行情推送客户端（信号驱动重连）
type Client struct {
	url     string
	markets []string

	mu     sync.RWMutex
	conn   *websocket.Conn
	closed bool

	handlersMu sync.RWMutex
	handlers   []FillHandler

	reconnectC     *sigchan.Chan
	reconnectCount int
	maxReconnects  int
	reconnectDelay time.Duration

	// lastFill 最新成交价快照，带 TTL：太久没有成交的市场
	// 在展示层自动消失，避免挂着一个过时价格
	lastFill *cache.InMemoryCache[string, types.FillEvent]

	sg     *syncgroup.SyncGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New 创建行情客户端
func New(url string, markets []string) *Client {
	return &Client{
		url:            url,
		markets:        markets,
		reconnectC:     sigchan.New(1),
		maxReconnects:  10,
		reconnectDelay: 5 * time.Second,
		lastFill:       cache.New[string, types.FillEvent](5 * time.Minute),
		sg:             syncgroup.NewSyncGroup(),
	}
}

// OnFill 注册成交回调（Connect 前调用）
func (c *Client) OnFill(h FillHandler) {
	c.handlersMu.Lock()
	c.handlers = append(c.handlers, h)
	c.handlersMu.Unlock()
}

// LastFill 市场的最新成交（TTL 内）；没有返回 false
func (c *Client) LastFill(market string) (types.FillEvent, bool) {
	return c.lastFill.Get(market)
}

// Connect 建立连接并启动读循环与重连器
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	if err := c.dial(); err != nil {
		return err
	}

	c.sg.Go(func() { c.readLoop(c.ctx) })
	c.sg.Go(func() { c.reconnector(c.ctx) })
	return nil
}

// dial 拨号并发订阅请求
func (c *Client) dial() error {
	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("连接行情推送失败: %w", err)
	}

	sub := map[string]interface{}{
		"type":    "subscribe",
		"markets": c.markets,
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return fmt.Errorf("发送订阅失败: %w", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	logger.Infof("行情推送已连接: %s markets=%d", c.url, len(c.markets))
	return nil
}

// wsMessage 推送报文封包
type wsMessage struct {
	Type string `json:"type"`
	types.FillEvent
}

// readLoop 读报文直到连接断开，断开后发重连信号
func (c *Client) readLoop(ctx context.Context) {
	for {
		c.mu.RLock()
		conn := c.conn
		closed := c.closed
		c.mu.RUnlock()
		if closed || conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			logger.Warnf("行情连接断开: %v", err)
			c.reconnectC.Emit()
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("行情报文解析失败，跳过: %v", err)
			continue
		}
		if msg.Type != "fill" || msg.Market == "" {
			continue
		}

		c.lastFill.Set(msg.Market, msg.FillEvent, 0)
		c.handlersMu.RLock()
		handlers := c.handlers
		c.handlersMu.RUnlock()
		for _, h := range handlers {
			h(msg.FillEvent)
		}
	}
}

// reconnector 收到信号后退避重连，超过上限就放弃。
// 行情是展示辅助，放弃重连不影响撮合正确性。
func (c *Client) reconnector(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.reconnectC.C():
		}

		c.reconnectCount++
		if c.reconnectCount > c.maxReconnects {
			logger.Errorf("行情重连超过 %d 次，放弃", c.maxReconnects)
			return
		}

		delay := c.reconnectDelay * time.Duration(c.reconnectCount)
		logger.Infof("行情 %s 后重连 (第 %d/%d 次)", delay, c.reconnectCount, c.maxReconnects)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if err := c.dial(); err != nil {
			logger.Warnf("行情重连失败: %v", err)
			c.reconnectC.Emit()
			continue
		}
		c.reconnectCount = 0
		c.sg.Go(func() { c.readLoop(ctx) })
	}
}

// Close 关闭连接并等待所有 goroutine 退出
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	c.sg.Wait()
	c.lastFill.Close()
	return err
}
