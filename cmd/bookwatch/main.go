// bookwatch 终端看板：展示配置内各市场的簿顶（最优买卖价）
// 和行情推送的最新成交价。纯展示工具，不做任何交易。
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/fillbot/gofill/internal/feed"
	"github.com/fillbot/gofill/internal/registry"
	"github.com/fillbot/gofill/pkg/config"
	"github.com/fillbot/gofill/pkg/logger"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))
	bidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	askStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	fillStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// marketRow 一个市场的展示行
type marketRow struct {
	symbol   string
	bestBid  string
	bidQty   string
	bestAsk  string
	askQty   string
	lastFill string
	updated  time.Time
	fetchErr string
}

// model bubbletea 模型。订单簿在后台 goroutine 拉取，
// 模型只消费快照，Update 里不做网络 IO。
type model struct {
	rows    []string // 市场符号，固定顺序
	dataMu  *sync.RWMutex
	data    map[string]*marketRow
	chainID int64
}

type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf(" gofill bookwatch · chain %d ", m.chainID)))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %12s %10s %12s %10s %12s %8s",
		"MARKET", "BID", "BIDQTY", "ASK", "ASKQTY", "LAST", "AGE")))
	b.WriteString("\n")

	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	for _, sym := range m.rows {
		row := m.data[sym]
		if row == nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("%-12s %s", sym, "加载中...")))
			b.WriteString("\n")
			continue
		}
		if row.fetchErr != "" {
			b.WriteString(fmt.Sprintf("%-12s %s\n", sym, dimStyle.Render(row.fetchErr)))
			continue
		}
		age := dimStyle.Render(fmt.Sprintf("%5.0fs", time.Since(row.updated).Seconds()))
		b.WriteString(fmt.Sprintf("%-12s %s %10s %s %10s %s %s\n",
			sym,
			bidStyle.Render(fmt.Sprintf("%12s", row.bestBid)),
			row.bidQty,
			askStyle.Render(fmt.Sprintf("%12s", row.bestAsk)),
			row.askQty,
			fillStyle.Render(fmt.Sprintf("%12s", row.lastFill)),
			age,
		))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q 退出 · 簿顶每 3s 刷新 · LAST 来自行情推送（仅展示）"))
	b.WriteString("\n")
	return b.String()
}

// refreshLoop 周期性拉取每个市场的簿顶
func refreshLoop(ctx context.Context, rt *registry.ChainRuntime, ticker *feed.Client, dataMu *sync.RWMutex, data map[string]*marketRow) {
	refresh := func() {
		for _, mkt := range rt.Config.Markets {
			fetchCtx, cancel := context.WithTimeout(ctx, rt.FetchTimeout())
			bk, err := rt.Books.FetchBook(fetchCtx, mkt)
			cancel()

			row := &marketRow{symbol: mkt.Symbol, bestBid: "-", bidQty: "-", bestAsk: "-", askQty: "-", lastFill: "-", updated: time.Now()}
			if err != nil {
				row.fetchErr = fmt.Sprintf("拉取失败: %v", err)
			} else {
				if lvl, ok := bk.BestBid(); ok {
					row.bestBid = lvl.Price.StringFixed(4)
					row.bidQty = lvl.Quantity.StringFixed(2)
				}
				if lvl, ok := bk.BestAsk(); ok {
					row.bestAsk = lvl.Price.StringFixed(4)
					row.askQty = lvl.Quantity.StringFixed(2)
				}
			}
			if ticker != nil {
				if last, ok := ticker.LastFill(mkt.Symbol); ok {
					row.lastFill = last.Price
				}
			}

			dataMu.Lock()
			data[mkt.Symbol] = row
			dataMu.Unlock()
		}
	}

	refresh()
	t := time.NewTicker(3 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			refresh()
		}
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	chainID := flag.Int64("chain", 1, "链 ID")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	// TUI 占用终端，日志必须落文件
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = "logs/bookwatch.log"
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, OutputFile: logFile}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	reg, err := registry.New(cfg, nil, nil)
	if err != nil {
		log.Fatalf("装配运行时失败: %v", err)
	}
	rt, ok := reg.Chain(*chainID)
	if !ok {
		log.Fatalf("链 %d 未配置", *chainID)
	}
	if len(rt.Config.Markets) == 0 {
		log.Fatalf("链 %d 没有配置市场", *chainID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 行情推送可选：没配 feed_url 就只看簿顶
	var ticker *feed.Client
	if rt.Config.FeedURL != "" {
		symbols := make([]string, 0, len(rt.Config.Markets))
		for _, mkt := range rt.Config.Markets {
			symbols = append(symbols, mkt.Symbol)
		}
		sort.Strings(symbols)
		ticker = feed.New(rt.Config.FeedURL, symbols)
		if err := ticker.Connect(ctx); err != nil {
			logger.Warnf("行情推送连接失败，只展示簿顶: %v", err)
			ticker = nil
		} else {
			defer ticker.Close()
		}
	}

	var dataMu sync.RWMutex
	data := make(map[string]*marketRow)
	go refreshLoop(ctx, rt, ticker, &dataMu, data)

	rows := make([]string, 0, len(rt.Config.Markets))
	for _, mkt := range rt.Config.Markets {
		rows = append(rows, mkt.Symbol)
	}

	p := tea.NewProgram(model{rows: rows, dataMu: &dataMu, data: data, chainID: *chainID})
	if _, err := p.Run(); err != nil {
		log.Fatalf("TUI 退出异常: %v", err)
	}
}
