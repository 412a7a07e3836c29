package wallet

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// keystore 里用到的键
const (
	keyPrivateKey = "private_key"
	keyMnemonic   = "mnemonic"
)

// Keystore 静态加密的本地密钥库（Badger）。
// 加密由 Badger 的 value log + key registry 提供，本层只做读写。
type Keystore struct {
	db *badger.DB
}

// OpenKeystore 打开密钥库。encryptionKey 必须 32 字节；
// 传 nil 则明文存储（只应出现在本地联调）。
func OpenKeystore(path string, encryptionKey []byte) (*Keystore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("keystore 路径为空")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if len(encryptionKey) > 0 {
		// Badger 加密模式要求开索引缓存
		opts = opts.
			WithEncryptionKey(encryptionKey).
			WithIndexCacheSize(100 << 20)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开 keystore 失败: %w", err)
	}
	return &Keystore{db: db}, nil
}

// Close 关闭密钥库
func (k *Keystore) Close() error {
	if k == nil || k.db == nil {
		return nil
	}
	return k.db.Close()
}

// Signer 从密钥库构造签名器：优先用私钥，其次用助记词派生。
func (k *Keystore) Signer(derivationPath string) (*LocalSigner, error) {
	if pk, ok, err := k.get(keyPrivateKey); err != nil {
		return nil, err
	} else if ok {
		return NewLocalSigner(pk)
	}
	if mn, ok, err := k.get(keyMnemonic); err != nil {
		return nil, err
	} else if ok {
		return FromMnemonic(mn, derivationPath)
	}
	return nil, errors.New("keystore 中没有私钥或助记词")
}

// SetPrivateKey 写入 hex 私钥
func (k *Keystore) SetPrivateKey(hexKey string) error {
	return k.set(keyPrivateKey, strings.TrimSpace(hexKey))
}

// SetMnemonic 写入助记词
func (k *Keystore) SetMnemonic(mnemonic string) error {
	return k.set(keyMnemonic, strings.TrimSpace(mnemonic))
}

func (k *Keystore) get(key string) (string, bool, error) {
	if k == nil || k.db == nil {
		return "", false, errors.New("keystore 未打开")
	}
	var out string
	found := false
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, err
	}
	return out, found && out != "", nil
}

func (k *Keystore) set(key, val string) error {
	if k == nil || k.db == nil {
		return errors.New("keystore 未打开")
	}
	if val == "" {
		return fmt.Errorf("keystore 值不能为空: %s", key)
	}
	return k.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(val))
	})
}

// ParseEncryptionKey 解析 32 字节加密钥（hex 或 base64），空串返回 nil
func ParseEncryptionKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	rawHex := strings.TrimPrefix(raw, "0x")
	if b, err := hex.DecodeString(rawHex); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("加密钥必须 32 字节，实际 %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("加密钥必须 32 字节，实际 %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("加密钥必须是 32 字节的 hex 或 base64")
}
