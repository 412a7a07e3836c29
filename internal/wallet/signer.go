// Package wallet 提供签名能力与密钥存储。
// Signer 是执行层看到的唯一签名接口：typed-data 签订单，
// EIP-191 消息签取消请求。私钥可来自 hex、助记词派生或加密 keystore。
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// Signer 外部签名方。实现方负责钥匙的保管。
type Signer interface {
	// Address swapper 地址（0x 前缀 hex）
	Address() string
	// SignTypedData 对 EIP-712 typed data 签名，返回 0x 前缀的 65 字节签名
	SignTypedData(typedData apitypes.TypedData) (string, error)
	// SignMessage 对任意字节做 EIP-191 个人消息签名
	SignMessage(payload []byte) (string, error)
}

// LocalSigner 本地私钥签名器
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalSigner 从 hex 私钥构造签名器
func NewLocalSigner(hexKey string) (*LocalSigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("私钥为空")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("解析私钥失败: %w", err)
	}
	return &LocalSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// FromMnemonic 从助记词按派生路径构造签名器
func FromMnemonic(mnemonic, derivationPath string) (*LocalSigner, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("助记词为空")
	}
	if strings.TrimSpace(derivationPath) == "" {
		derivationPath = "m/44'/60'/0'/0/0"
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("助记词非法: %w", err)
	}
	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("派生路径非法: %w", err)
	}
	acct, err := w.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("派生账户失败: %w", err)
	}
	pk, err := w.PrivateKeyHex(acct)
	if err != nil {
		return nil, fmt.Errorf("导出私钥失败: %w", err)
	}
	return NewLocalSigner(pk)
}

// Address swapper 地址
func (s *LocalSigner) Address() string {
	return s.address.Hex()
}

// SignTypedData 对 EIP-712 typed data 签名。
// crypto.Sign 返回 r(32)+s(32)+v(1)，v 已是恢复 ID，直接透传。
func (s *LocalSigner) SignTypedData(typedData apitypes.TypedData) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("计算 EIP-712 哈希失败: %w", err)
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return "", fmt.Errorf("签名失败: %w", err)
	}
	return "0x" + common.Bytes2Hex(sig), nil
}

// SignMessage EIP-191 个人消息签名（"\x19Ethereum Signed Message:\n" 前缀）
func (s *LocalSigner) SignMessage(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("签名载荷为空")
	}
	sig, err := crypto.Sign(accounts.TextHash(payload), s.key)
	if err != nil {
		return "", fmt.Errorf("签名失败: %w", err)
	}
	return "0x" + common.Bytes2Hex(sig), nil
}
