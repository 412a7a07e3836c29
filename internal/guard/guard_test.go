package guard

import (
	"sync"
	"testing"
)

func TestLockReleaseIdempotent(t *testing.T) {
	tbl := NewTable()
	tbl.AddOrders("0xabc")

	if tbl.IsLocked("0xabc") {
		t.Fatalf("新纳入的订单不应处于占用状态")
	}

	tbl.Lock("0xabc")
	tbl.Lock("0xabc") // 重复占用是幂等的
	if !tbl.IsLocked("0xabc") {
		t.Fatalf("占用后应为 locked")
	}

	tbl.Release("0xabc")
	tbl.Release("0xabc") // 重复释放同样幂等
	if tbl.IsLocked("0xabc") {
		t.Fatalf("释放后应为 unlocked")
	}
}

func TestUnmanagedHashImplicitlyAvailable(t *testing.T) {
	tbl := NewTable()

	// 不受管的哈希：查询不报错、返回未占用
	if tbl.IsLocked("0xunknown") {
		t.Fatalf("不受管哈希应视为未占用")
	}
	// 释放不受管哈希是 no-op，不会把它纳入管理
	tbl.Release("0xunknown")
	if tbl.IsManaged("0xunknown") {
		t.Fatalf("Release 不应把哈希纳入管理")
	}

	// TryLock 抢占成功并自动纳入管理
	if !tbl.TryLock("0xunknown") {
		t.Fatalf("不受管哈希首次 TryLock 应成功")
	}
	if !tbl.IsManaged("0xunknown") || !tbl.IsLocked("0xunknown") {
		t.Fatalf("TryLock 成功后应为受管且占用")
	}
	if tbl.TryLock("0xunknown") {
		t.Fatalf("二次 TryLock 必须失败")
	}
}

func TestUpdateOrdersReplacesSetAndResetsLocks(t *testing.T) {
	tbl := NewTable()
	tbl.AddOrders("0xa", "0xb")
	tbl.Lock("0xa")

	tbl.UpdateOrders([]string{"0xb", "0xc"})

	if tbl.Len() != 2 {
		t.Fatalf("受管数量 got=%d want=2", tbl.Len())
	}
	if tbl.IsManaged("0xa") {
		t.Fatalf("0xa 应已被替换出集合")
	}
	if tbl.IsLocked("0xb") || tbl.IsLocked("0xc") {
		t.Fatalf("整体替换后所有锁状态应归零")
	}
}

func TestResetKeepsManagedSet(t *testing.T) {
	tbl := NewTable()
	tbl.AddOrders("0xa", "0xb")
	tbl.Lock("0xa")
	tbl.Lock("0xb")

	tbl.Reset()

	if tbl.Len() != 2 {
		t.Fatalf("Reset 不应改变受管集 got=%d", tbl.Len())
	}
	if tbl.IsLocked("0xa") || tbl.IsLocked("0xb") {
		t.Fatalf("Reset 后所有订单都应未占用")
	}
}

func TestRemoveOrdersDropsLockState(t *testing.T) {
	tbl := NewTable()
	tbl.AddOrders("0xa")
	tbl.Lock("0xa")

	tbl.RemoveOrders("0xa")
	if tbl.Len() != 0 {
		t.Fatalf("移除后受管数量应为 0")
	}
	// 移除即丢弃锁状态，重新纳入后是干净的
	tbl.AddOrders("0xa")
	if tbl.IsLocked("0xa") {
		t.Fatalf("重新纳入的订单不应继承旧锁状态")
	}
}

func TestTryLockMutualExclusion(t *testing.T) {
	tbl := NewTable()
	tbl.AddOrders("0xhot")

	const workers = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tbl.TryLock("0xhot") {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 1 {
		t.Fatalf("并发 TryLock 只允许一个赢家 got=%d", acquired)
	}
	if !tbl.IsLocked("0xhot") {
		t.Fatalf("赢家持有的锁应保持占用")
	}
}

func TestEmptyHashIgnored(t *testing.T) {
	tbl := NewTable()
	tbl.AddOrders("")
	if tbl.Len() != 0 {
		t.Fatalf("空哈希不应被纳入管理")
	}
	if tbl.TryLock("") {
		t.Fatalf("空哈希不可抢占")
	}
}
