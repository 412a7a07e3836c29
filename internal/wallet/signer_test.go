package wallet

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// 测试专用私钥（公开的占位钥，绝不能用于真实资产）
const testKey = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

func TestLocalSigner_Address(t *testing.T) {
	s, err := NewLocalSigner(testKey)
	if err != nil {
		t.Fatalf("NewLocalSigner: %v", err)
	}
	if !strings.HasPrefix(s.Address(), "0x") || len(s.Address()) != 42 {
		t.Fatalf("地址格式非法: %s", s.Address())
	}
	// 带 0x 前缀应当解析出同一个地址
	s2, err := NewLocalSigner("0x" + testKey)
	if err != nil {
		t.Fatalf("带前缀解析失败: %v", err)
	}
	if s.Address() != s2.Address() {
		t.Fatalf("前缀影响了地址: %s vs %s", s.Address(), s2.Address())
	}
}

func TestSignMessage_Recoverable(t *testing.T) {
	s, _ := NewLocalSigner(testKey)
	payload := []byte("cancel 0xdeadbeef")

	sig, err := s.SignMessage(payload)
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	sigBytes := common.FromHex(sig)
	if len(sigBytes) != 65 {
		t.Fatalf("签名长度错误: %d", len(sigBytes))
	}

	pub, err := crypto.SigToPub(accounts.TextHash(payload), sigBytes)
	if err != nil {
		t.Fatalf("恢复公钥失败: %v", err)
	}
	if crypto.PubkeyToAddress(*pub).Hex() != s.Address() {
		t.Fatalf("恢复出的地址不匹配")
	}
}

func TestSignMessage_RejectsEmpty(t *testing.T) {
	s, _ := NewLocalSigner(testKey)
	if _, err := s.SignMessage(nil); err == nil {
		t.Fatalf("期望空载荷报错")
	}
}

func TestFromMnemonic(t *testing.T) {
	// BIP-39 规范测试助记词
	const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	s, err := FromMnemonic(mnemonic, "m/44'/60'/0'/0/0")
	if err != nil {
		t.Fatalf("FromMnemonic: %v", err)
	}
	// 该助记词在默认路径下的地址是公开已知的
	if s.Address() != "0x9858EfFD232B4033E47d90003D41EC34EcaEda94" {
		t.Fatalf("派生地址不符: %s", s.Address())
	}

	if _, err := FromMnemonic("not a mnemonic", ""); err == nil {
		t.Fatalf("期望非法助记词报错")
	}
}

func TestKeystore_RoundTrip(t *testing.T) {
	ks, err := OpenKeystore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("OpenKeystore: %v", err)
	}
	defer ks.Close()

	if _, err := ks.Signer(""); err == nil {
		t.Fatalf("空库应当报错")
	}
	if err := ks.SetPrivateKey(testKey); err != nil {
		t.Fatalf("SetPrivateKey: %v", err)
	}
	s, err := ks.Signer("")
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	want, _ := NewLocalSigner(testKey)
	if s.Address() != want.Address() {
		t.Fatalf("keystore 取回的钥不一致")
	}
}

func TestParseEncryptionKey(t *testing.T) {
	if k, err := ParseEncryptionKey(""); err != nil || k != nil {
		t.Fatalf("空串应返回 nil: %v %v", k, err)
	}
	hexKey := strings.Repeat("ab", 32)
	k, err := ParseEncryptionKey(hexKey)
	if err != nil || len(k) != 32 {
		t.Fatalf("hex 解析失败: %v", err)
	}
	if _, err := ParseEncryptionKey("abcd"); err == nil {
		t.Fatalf("期望短钥报错")
	}
}
