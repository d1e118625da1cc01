package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/betbot/polytrader/internal/trading"
)

// schema 提交历史表结构
const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ref         TEXT NOT NULL UNIQUE,
	address     TEXT NOT NULL,
	token_id    TEXT NOT NULL,
	side        TEXT NOT NULL,
	price       REAL NOT NULL,
	size        REAL NOT NULL,
	order_type  TEXT NOT NULL,
	order_id    TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'pending',
	error_msg   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_address ON submissions(address);
CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
`

// SubmissionStore 基于 SQLite 的提交历史存储
type SubmissionStore struct {
	db *sql.DB
}

// Open 打开（必要时创建）提交历史数据库
func Open(path string) (*SubmissionStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// SQLite 单写者
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}

	return &SubmissionStore{db: db}, nil
}

func (s *SubmissionStore) Close() error {
	return s.db.Close()
}

// RecordAttempt 记录一次提交尝试
func (s *SubmissionStore) RecordAttempt(ctx context.Context, rec *trading.SubmissionRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (ref, address, token_id, side, price, size, order_type, order_id, status, error_msg, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Ref, rec.Address, rec.TokenID, rec.Side, rec.Price, rec.Size,
		rec.OrderType, rec.OrderID, rec.Status, rec.ErrorMsg, createdAt, createdAt,
	)
	if err != nil {
		return fmt.Errorf("写入提交记录失败: %w", err)
	}
	return nil
}

// UpdateOutcome 更新提交结果
func (s *SubmissionStore) UpdateOutcome(ctx context.Context, ref string, status string, orderID string, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET status = ?, order_id = ?, error_msg = ?, updated_at = ? WHERE ref = ?`,
		status, orderID, errMsg, time.Now(), ref,
	)
	if err != nil {
		return fmt.Errorf("更新提交记录失败: %w", err)
	}
	return nil
}

// Recent 返回最近的提交记录
func (s *SubmissionStore) Recent(ctx context.Context, limit int) ([]trading.SubmissionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ref, address, token_id, side, price, size, order_type, order_id, status, error_msg, created_at
		FROM submissions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}
	defer rows.Close()

	var records []trading.SubmissionRecord
	for rows.Next() {
		var rec trading.SubmissionRecord
		if err := rows.Scan(&rec.Ref, &rec.Address, &rec.TokenID, &rec.Side, &rec.Price, &rec.Size,
			&rec.OrderType, &rec.OrderID, &rec.Status, &rec.ErrorMsg, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("扫描提交记录失败: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FindByRef 按幂等引用查询单条记录
func (s *SubmissionStore) FindByRef(ctx context.Context, ref string) (*trading.SubmissionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ref, address, token_id, side, price, size, order_type, order_id, status, error_msg, created_at
		FROM submissions WHERE ref = ?`, ref)

	var rec trading.SubmissionRecord
	err := row.Scan(&rec.Ref, &rec.Address, &rec.TokenID, &rec.Side, &rec.Price, &rec.Size,
		&rec.OrderType, &rec.OrderID, &rec.Status, &rec.ErrorMsg, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}
	return &rec, nil
}
