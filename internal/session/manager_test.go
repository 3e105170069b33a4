package session

import (
	"context"
	"testing"
	"time"
)

func TestManager_RedisDisabledUsesMemory(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mgr := NewManager(func() RedisSettings { return RedisSettings{} }, time.Hour, fixedClock(now), nil)
	ctx := context.Background()

	if errPut := mgr.Put(ctx, "sid-1", Data{UserID: 3}); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	data, ok, errGet := mgr.Get(ctx, "sid-1")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if !ok || data.UserID != 3 {
		t.Fatalf("expected memory-backed session, got ok=%v data=%+v", ok, data)
	}
}

func TestManager_BeginAnalysisDelegates(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mgr := NewManager(nil, time.Hour, fixedClock(now), nil)
	ctx := context.Background()

	if errPut := mgr.Put(ctx, "sid-1", Data{UserID: 3}); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}

	startMS := now.UnixMilli()
	first, err := mgr.BeginAnalysis(ctx, "sid-1", startMS, testWindowMS)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !first.Allowed {
		t.Fatalf("expected first call allowed")
	}
	second, err := mgr.BeginAnalysis(ctx, "sid-1", startMS+1, testWindowMS)
	if err != nil {
		t.Fatalf("second begin: %v", err)
	}
	if second.Allowed {
		t.Fatalf("expected second call blocked")
	}
}

func TestManager_EnabledWithoutAddrFallsBack(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	provider := func() RedisSettings { return RedisSettings{Enabled: true} }
	mgr := NewManager(provider, time.Hour, fixedClock(now), nil)
	ctx := context.Background()

	if errPut := mgr.Put(ctx, "sid-1", Data{UserID: 3}); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	if _, ok, errGet := mgr.Get(ctx, "sid-1"); errGet != nil || !ok {
		t.Fatalf("expected fallback to memory, got ok=%v err=%v", ok, errGet)
	}
}
