package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/betbot/polytrader/internal/trading"
)

func openTestStore(t *testing.T) *SubmissionStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "trader.db"))
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndUpdate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := &trading.SubmissionRecord{
		Ref:       "ref-1",
		Address:   "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf",
		TokenID:   "100",
		Side:      "BUY",
		Price:     0.5,
		Size:      10,
		OrderType: "GTC",
		Status:    "pending",
		CreatedAt: time.Now(),
	}
	if err := store.RecordAttempt(ctx, rec); err != nil {
		t.Fatalf("写入提交记录失败: %v", err)
	}

	if err := store.UpdateOutcome(ctx, "ref-1", "matched", "0xabc", ""); err != nil {
		t.Fatalf("更新提交记录失败: %v", err)
	}

	got, err := store.FindByRef(ctx, "ref-1")
	if err != nil {
		t.Fatalf("查询提交记录失败: %v", err)
	}
	if got == nil {
		t.Fatal("应能按 ref 查到记录")
	}
	if got.Status != "matched" || got.OrderID != "0xabc" {
		t.Errorf("记录内容不符: %+v", got)
	}
	if got.TokenID != "100" || got.Side != "BUY" {
		t.Errorf("原始订单参数应保留: %+v", got)
	}
}

func TestFindByRefMissing(t *testing.T) {
	store := openTestStore(t)

	got, err := store.FindByRef(context.Background(), "no-such-ref")
	if err != nil {
		t.Fatalf("查询不存在的记录不应报错: %v", err)
	}
	if got != nil {
		t.Errorf("不存在的 ref 应返回 nil: %+v", got)
	}
}

func TestRecentOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, ref := range []string{"ref-a", "ref-b", "ref-c"} {
		err := store.RecordAttempt(ctx, &trading.SubmissionRecord{
			Ref: ref, Address: "0x1", TokenID: "100", Side: "BUY",
			Price: 0.5, Size: 1, OrderType: "GTC", Status: "pending",
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("写入提交记录失败: %v", err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("查询最近记录失败: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("应返回 2 条记录，实际 %d", len(records))
	}
	// 最新的在前
	if records[0].Ref != "ref-c" || records[1].Ref != "ref-b" {
		t.Errorf("排序不符: %s, %s", records[0].Ref, records[1].Ref)
	}
}

func TestDuplicateRefRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := &trading.SubmissionRecord{
		Ref: "ref-dup", Address: "0x1", TokenID: "100", Side: "BUY",
		Price: 0.5, Size: 1, OrderType: "GTC", Status: "pending",
		CreatedAt: time.Now(),
	}
	if err := store.RecordAttempt(ctx, rec); err != nil {
		t.Fatalf("首次写入失败: %v", err)
	}
	if err := store.RecordAttempt(ctx, rec); err == nil {
		t.Error("幂等引用重复写入应失败")
	}
}
