// quoter 命令行询价工具：给定卖/买代币和数量，
// 枚举可行路径、并发拉取沿途订单簿、输出最优报价。
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/internal/registry"
	"github.com/fillbot/gofill/internal/router"
	"github.com/fillbot/gofill/pkg/config"
	"github.com/fillbot/gofill/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	chainID := flag.Int64("chain", 1, "链 ID")
	sell := flag.String("sell", "", "卖出代币符号")
	buy := flag.String("buy", "", "买入代币符号")
	side := flag.String("side", "SELL", "方向：SELL=按卖出量询价，BUY=按买入量询价")
	amountStr := flag.String("amount", "", "数量（自然单位）")
	flag.Parse()

	// .env 可选，不存在时静默跳过
	_ = godotenv.Load()

	if *sell == "" || *buy == "" || *amountStr == "" {
		flag.Usage()
		os.Exit(2)
	}
	amount, err := decimal.NewFromString(*amountStr)
	if err != nil || amount.Sign() <= 0 {
		log.Fatalf("数量非法: %s", *amountStr)
	}
	tradeSide := types.Side(strings.ToUpper(*side))
	if tradeSide != types.SideSell && tradeSide != types.SideBuy {
		log.Fatalf("方向非法: %s", *side)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	// 询价是只读操作，不需要签名器
	reg, err := registry.New(cfg, nil, nil)
	if err != nil {
		log.Fatalf("装配运行时失败: %v", err)
	}
	rt, ok := reg.Chain(*chainID)
	if !ok {
		log.Fatalf("链 %d 未配置", *chainID)
	}

	ctx := context.Background()
	routes := rt.Finder.PossibleRoutes(*sell, *buy)
	if len(routes) == 0 {
		fmt.Printf("%s -> %s: 没有可行路径（无直达市场，桥接代币也不通）\n", *sell, *buy)
		return
	}

	fmt.Printf("候选路径 %d 条:\n", len(routes))
	for i, r := range routes {
		fmt.Printf("  [%d] %s\n", i+1, r)
	}

	books := router.CollectBooks(ctx, rt.Books, routes, rt.FetchTimeout())
	quote, err := rt.Finder.Estimate(routes, books, tradeSide, *sell, *buy, amount)
	if err != nil {
		log.Fatalf("估价失败: %v", err)
	}
	if quote == nil {
		// 没有流动性是正常结果，不是故障
		fmt.Printf("%s -> %s: 路径存在但当前没有流动性\n", *sell, *buy)
		return
	}

	fmt.Printf("\n最优路径: %s\n", quote.Route)
	fmt.Printf("方向:     %s\n", quote.Side)
	fmt.Printf("付出:     %s %s\n", quote.AmountIn, strings.ToUpper(*sell))
	fmt.Printf("换回:     %s %s\n", quote.AmountOut, strings.ToUpper(*buy))
	fmt.Printf("复合价格: %s\n", quote.Price)
}
