package nonce

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite 持久化 nonce 权威。nonce 以十进制字符串落库，
// 避免 64 位整数截断大值。
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）nonce 数据库
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开 nonce 数据库失败: %w", err)
	}
	// 串行化访问，UseNonce 的读改写在单连接上天然原子
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close 关闭数据库
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS nonces (
  swapper TEXT PRIMARY KEY,
  next TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("nonce 建表失败: %w", err)
		}
	}
	return nil
}

// UseNonce 在事务里消费下一个 nonce
func (s *SQLite) UseNonce(ctx context.Context, swapper string) (*big.Int, error) {
	key := normalize(swapper)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var nextStr string
	err = tx.QueryRowContext(ctx, `SELECT next FROM nonces WHERE swapper=?`, key).Scan(&nextStr)
	cur := big.NewInt(0)
	switch {
	case err == sql.ErrNoRows:
		// 首次使用，从 0 开始
	case err != nil:
		return nil, fmt.Errorf("读取 nonce 失败: %w", err)
	default:
		var ok bool
		cur, ok = new(big.Int).SetString(nextStr, 10)
		if !ok {
			return nil, fmt.Errorf("nonce 记录损坏: swapper=%s next=%q", key, nextStr)
		}
	}

	next := new(big.Int).Add(cur, big.NewInt(1))
	_, err = tx.ExecContext(ctx, `
INSERT INTO nonces (swapper, next, updated_at) VALUES (?,?,?)
ON CONFLICT(swapper) DO UPDATE SET next=excluded.next, updated_at=excluded.updated_at
`, key, next.String(), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("写入 nonce 失败: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交 nonce 事务失败: %w", err)
	}
	return cur, nil
}
