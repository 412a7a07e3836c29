// keystore-init 把私钥或助记词写入加密 keystore。
// 从标准输入读取密钥材料，避免出现在 shell 历史里。
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fillbot/gofill/internal/wallet"
)

func main() {
	var (
		dbPath    = flag.String("keystore", getenv("GOFILL_KEYSTORE_PATH", "data/keystore"), "keystore 路径")
		secretKey = flag.String("secret-key", getenv("GOFILL_KEYSTORE_KEY", ""), "32 字节加密钥（hex 或 base64）")
		kind      = flag.String("kind", "private-key", "写入类型：private-key 或 mnemonic")
	)
	flag.Parse()

	keyBytes, err := wallet.ParseEncryptionKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("必须提供加密钥：设置 GOFILL_KEYSTORE_KEY 或传 -secret-key"))
	}

	var prompt string
	switch *kind {
	case "private-key":
		prompt = "请输入 hex 私钥（可带 0x 前缀），回车确认："
	case "mnemonic":
		prompt = "请输入助记词（12/15/18/21/24 个单词），回车确认："
	default:
		fatal(fmt.Errorf("未知类型: %s", *kind))
	}

	fmt.Fprintln(os.Stderr, prompt)
	secret := strings.TrimSpace(readLine())
	if secret == "" {
		fatal(fmt.Errorf("输入为空"))
	}

	ks, err := wallet.OpenKeystore(*dbPath, keyBytes)
	if err != nil {
		fatal(err)
	}
	defer ks.Close()

	switch *kind {
	case "private-key":
		// 先验证能构造签名器再落库
		signer, err := wallet.NewLocalSigner(secret)
		if err != nil {
			fatal(fmt.Errorf("私钥无效: %w", err))
		}
		if err := ks.SetPrivateKey(secret); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "已写入私钥，地址 %s\n", signer.Address())
	case "mnemonic":
		signer, err := wallet.FromMnemonic(secret, "")
		if err != nil {
			fatal(fmt.Errorf("助记词无效: %w", err))
		}
		if err := ks.SetMnemonic(secret); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "已写入助记词，默认派生地址 %s\n", signer.Address())
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func readLine() string {
	r := bufio.NewReader(os.Stdin)
	line, _ := r.ReadString('\n')
	return line
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
