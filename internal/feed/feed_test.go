package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fillbot/gofill/clob/types"
)

// newFeedServer 起一个假的推送端：收到订阅后按 fills 逐条推送
func newFeedServer(t *testing.T, fills []types.FillEvent) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// 等订阅报文
		var sub map[string]interface{}
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("读订阅失败: %v", err)
			return
		}
		if sub["type"] != "subscribe" {
			t.Errorf("首包不是订阅: %v", sub)
			return
		}

		for _, f := range fills {
			payload, _ := json.Marshal(map[string]interface{}{
				"type":      "fill",
				"market":    f.Market,
				"orderHash": f.OrderHash,
				"price":     f.Price,
				"quantity":  f.Quantity,
				"timestamp": f.Timestamp,
			})
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
		// 留着连接等客户端关闭
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_ReceivesFills(t *testing.T) {
	fill := types.FillEvent{Market: "WETH-USDC", OrderHash: "0xf1", Price: "3550.5", Quantity: "2", Timestamp: 1_700_000_000}
	srv := newFeedServer(t, []types.FillEvent{fill})

	c := New(wsURL(srv), []string{"WETH-USDC"})
	received := make(chan types.FillEvent, 1)
	c.OnFill(func(f types.FillEvent) { received <- f })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	select {
	case got := <-received:
		if got.Market != fill.Market || got.Price != fill.Price {
			t.Fatalf("成交事件不符: %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("超时未收到成交事件")
	}

	// 最新成交进入快照
	deadline := time.Now().Add(time.Second)
	for {
		if last, ok := c.LastFill("WETH-USDC"); ok {
			if last.Price != "3550.5" {
				t.Fatalf("快照价格不符: %s", last.Price)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("快照未更新")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClient_IgnoresUnknownMessages(t *testing.T) {
	// 第一条是无关类型，第二条才是成交
	srv := newFeedServer(t, []types.FillEvent{
		{Market: ""}, // type=fill 但缺 market，应被跳过
		{Market: "WETH-USDC", Price: "3600"},
	})

	c := New(wsURL(srv), []string{"WETH-USDC"})
	received := make(chan types.FillEvent, 2)
	c.OnFill(func(f types.FillEvent) { received <- f })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	select {
	case got := <-received:
		if got.Market != "WETH-USDC" {
			t.Fatalf("坏报文未被跳过: %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("超时未收到成交事件")
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	c := New("ws://127.0.0.1:1/feed", nil)
	if err := c.Connect(context.Background()); err == nil {
		t.Fatalf("期望连接失败报错")
	}
}
