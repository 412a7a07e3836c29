// Package sigchan 提供非阻塞的信号 channel，
// 用于行情连接的重连通知等"事件发生了"场景，不传递数据。
package sigchan

// Chan 非阻塞信号 channel
type Chan struct {
	c chan struct{}
}

// New 创建信号 channel
func New(bufferSize int) *Chan {
	return &Chan{c: make(chan struct{}, bufferSize)}
}

// Emit 发送信号；channel 已满时丢弃（非阻塞）
func (c *Chan) Emit() {
	select {
	case c.c <- struct{}{}:
	default:
	}
}

// C 返回内部 channel（用于 select）
func (c *Chan) C() <-chan struct{} {
	return c.c
}
