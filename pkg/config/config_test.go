package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
log:
  level: debug
wallet:
  derivation_path: "m/44'/60'/0'/0/0"
nonce_path: data/nonces.db
chains:
  - chain_id: 1
    relay_url: https://relay.example.com
    reactor: "0x1111111111111111111111111111111111111111"
    domain:
      name: DutchOrderReactor
      version: "1"
    order_duration_seconds: 90
    bridge_tokens:
      - symbol: WETH
        address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
        decimals: 18
    markets:
      - symbol: WETH-USDC
        base:
          symbol: WETH
          address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
          decimals: 18
        quote:
          symbol: USDC
          address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
          decimals: 6
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("写配置失败: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch, ok := cfg.Chain(1)
	if !ok {
		t.Fatalf("缺少 chain 1")
	}
	if ch.OrderDuration().Seconds() != 90 {
		t.Fatalf("order duration: got=%v", ch.OrderDuration())
	}
	if len(ch.Markets) != 1 || ch.Markets[0].Symbol != "WETH-USDC" {
		t.Fatalf("markets 解析错误: %+v", ch.Markets)
	}
	if ch.Markets[0].Base.Decimals != 18 || ch.Markets[0].Quote.Decimals != 6 {
		t.Fatalf("decimals 解析错误")
	}
	if cfg.NoncePath != "data/nonces.db" {
		t.Fatalf("nonce_path: got=%q", cfg.NoncePath)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GOFILL_PRIVATE_KEY", "deadbeef")
	t.Setenv("GOFILL_RELAY_URL", "http://127.0.0.1:9000")
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Wallet.PrivateKey != "deadbeef" {
		t.Fatalf("私钥未被环境覆盖")
	}
	if cfg.Chains[0].RelayURL != "http://127.0.0.1:9000" {
		t.Fatalf("relay_url 未被环境覆盖: %s", cfg.Chains[0].RelayURL)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"没有链", "chains: []"},
		{"缺 relay_url", `
chains:
  - chain_id: 1
    reactor: "0x11"
    domain: {name: X, version: "1"}
`},
		{"缺 domain", `
chains:
  - chain_id: 1
    relay_url: http://r
    reactor: "0x11"
`},
	}
	for _, c := range cases {
		if _, err := Load(writeConfig(t, c.body)); err == nil {
			t.Fatalf("%s: 期望校验失败", c.name)
		}
	}
}
