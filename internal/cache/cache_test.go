package cache

import (
	"context"
	"testing"
	"time"

	"retailops/backend/internal/domain"
)

func TestMemoryPayrollCacheBumpInvalidates(t *testing.T) {
	c := NewMemoryPayrollCache()
	ctx := context.Background()

	v, err := c.Version(ctx, "emp-1")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	key := PayrollKey("emp-1", v, domain.CurrencyEUR, "2024-01-01", "2024-01-31")
	if err := c.Set(ctx, key, &domain.PayrollSummary{EmployeeID: "emp-1"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, key); !ok {
		t.Fatalf("expected cache hit before bump")
	}

	if err := c.Bump(ctx, "emp-1"); err != nil {
		t.Fatalf("bump: %v", err)
	}
	next, _ := c.Version(ctx, "emp-1")
	if next != v+1 {
		t.Fatalf("expected version %d, got %d", v+1, next)
	}
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatalf("expected stale key to be dropped after bump")
	}
	if _, ok, _ := c.Get(ctx, PayrollKey("emp-1", next, domain.CurrencyEUR, "2024-01-01", "2024-01-31")); ok {
		t.Fatalf("expected miss on fresh version key")
	}
}

func TestMemoryPayrollCacheBumpIsPerEmployee(t *testing.T) {
	c := NewMemoryPayrollCache()
	ctx := context.Background()

	key := PayrollKey("emp-10", 0, domain.CurrencyGBP, "2024-01-01", "2024-01-31")
	_ = c.Set(ctx, key, &domain.PayrollSummary{EmployeeID: "emp-10"}, 0)

	_ = c.Bump(ctx, "emp-1")
	if _, ok, _ := c.Get(ctx, key); !ok {
		t.Fatalf("expected emp-10 entry to survive a bump of emp-1")
	}
}

func TestMemoryPayrollCacheExpires(t *testing.T) {
	c := NewMemoryPayrollCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", &domain.PayrollSummary{}, time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}
