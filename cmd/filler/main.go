// filler 订单命令行：构造、签名、提交、撤销荷兰式订单。
// 子命令：
//
//	place  -sell WETH -buy USDC -amount 1.5 -price 3500 -slippage 0.01
//	cancel -hash 0x...
//	sync            同步链上 relay 的未成交订单到本地锁表
//	orders          列出本地管理的订单
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/fillbot/gofill/clob/types"
	"github.com/fillbot/gofill/internal/gateway"
	"github.com/fillbot/gofill/internal/registry"
	"github.com/fillbot/gofill/pkg/config"
	"github.com/fillbot/gofill/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	sub := os.Args[1]
	fs := flag.NewFlagSet(sub, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "配置文件路径")
	chainID := fs.Int64("chain", 1, "链 ID")

	var (
		sellSym  = fs.String("sell", "", "卖出代币符号")
		buySym   = fs.String("buy", "", "买入代币符号")
		amount   = fs.String("amount", "", "卖出数量（自然单位）")
		price    = fs.String("price", "", "限价：每单位卖出代币换回的买入代币数")
		slippage = fs.String("slippage", "0.01", "滑点容忍度 [0,1)")
		hash     = fs.String("hash", "", "订单哈希（cancel 用）")
	)
	if err := fs.Parse(os.Args[2:]); err != nil {
		log.Fatal(err)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, OutputFile: cfg.Log.File}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	signer, err := registry.SignerFromConfig(cfg.Wallet)
	if err != nil {
		log.Fatalf("构造签名器失败: %v", err)
	}
	if signer == nil {
		log.Fatalf("没有配置钱包，无法下单")
	}
	nonces, closeNonce, err := registry.NonceFromConfig(cfg)
	if err != nil {
		log.Fatalf("构造 nonce 存储失败: %v", err)
	}
	defer closeNonce()

	reg, err := registry.New(cfg, signer, nonces)
	if err != nil {
		log.Fatalf("装配运行时失败: %v", err)
	}
	rt, ok := reg.Chain(*chainID)
	if !ok {
		log.Fatalf("链 %d 未配置", *chainID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch sub {
	case "place":
		runPlace(ctx, rt, *sellSym, *buySym, *amount, *price, *slippage)
	case "cancel":
		runCancel(ctx, rt, *hash)
	case "sync":
		runSync(ctx, rt)
	case "orders":
		runOrders(rt)
	default:
		usage()
	}
}

func runPlace(ctx context.Context, rt *registry.ChainRuntime, sellSym, buySym, amountStr, priceStr, slippageStr string) {
	sell, buy, err := resolvePair(rt.Config.Markets, sellSym, buySym)
	if err != nil {
		log.Fatal(err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		log.Fatalf("数量无效: %v", err)
	}
	limit, err := decimal.NewFromString(priceStr)
	if err != nil {
		log.Fatalf("限价无效: %v", err)
	}
	slip, err := decimal.NewFromString(slippageStr)
	if err != nil {
		log.Fatalf("滑点无效: %v", err)
	}

	order, err := rt.Gateway.Build(ctx, gateway.BuildParams{
		SellToken:  sell,
		BuyToken:   buy,
		Amount:     amount,
		LimitPrice: limit,
		Slippage:   slip,
	})
	if err != nil {
		log.Fatalf("构造订单失败: %v", err)
	}
	signed, err := rt.Gateway.Sign(order)
	if err != nil {
		log.Fatalf("签名失败: %v", err)
	}
	orderHash, err := rt.Gateway.Submit(ctx, signed)
	if err != nil {
		log.Fatalf("提交失败: %v", err)
	}
	fmt.Printf("订单已提交\n")
	fmt.Printf("  hash:     %s\n", orderHash)
	fmt.Printf("  卖出:     %s %s\n", amount, sell.Symbol)
	fmt.Printf("  起始换回: %s %s\n", amount.Mul(limit), buy.Symbol)
	fmt.Printf("  过期时间: %s\n", time.Unix(order.Deadline, 0).Format(time.RFC3339))
}

func runCancel(ctx context.Context, rt *registry.ChainRuntime, hash string) {
	if hash == "" {
		log.Fatalf("必须传 -hash")
	}
	if err := rt.Gateway.Cancel(ctx, hash); err != nil {
		log.Fatalf("撤单失败: %v", err)
	}
	fmt.Printf("已撤销 %s\n", hash)
}

func runSync(ctx context.Context, rt *registry.ChainRuntime) {
	n, err := rt.Gateway.SyncOpenOrders(ctx)
	if err != nil {
		log.Fatalf("同步失败: %v", err)
	}
	fmt.Printf("同步完成，当前管理 %d 个未成交订单\n", n)
}

func runOrders(rt *registry.ChainRuntime) {
	hashes := rt.Locks.Hashes()
	if len(hashes) == 0 {
		fmt.Println("本地没有管理中的订单")
		return
	}
	for _, h := range hashes {
		state := "空闲"
		if rt.Locks.IsLocked(h) {
			state = "锁定"
		}
		fmt.Printf("%s  %s\n", h, state)
	}
}

// resolvePair 在配置的市场里找 sell/buy 符号对应的代币。
// 两个符号必须属于同一个市场的 base 和 quote。
func resolvePair(markets []types.Market, sellSym, buySym string) (types.Token, types.Token, error) {
	if sellSym == "" || buySym == "" {
		return types.Token{}, types.Token{}, fmt.Errorf("必须传 -sell 和 -buy")
	}
	sellSym = strings.ToUpper(sellSym)
	buySym = strings.ToUpper(buySym)
	for _, m := range markets {
		b, q := strings.ToUpper(m.Base.Symbol), strings.ToUpper(m.Quote.Symbol)
		if b == sellSym && q == buySym {
			return m.Base, m.Quote, nil
		}
		if q == sellSym && b == buySym {
			return m.Quote, m.Base, nil
		}
	}
	return types.Token{}, types.Token{}, fmt.Errorf("没有配置 %s/%s 市场", sellSym, buySym)
}

func usage() {
	fmt.Fprintln(os.Stderr, "用法: filler <place|cancel|sync|orders> [flags]")
	os.Exit(2)
}
