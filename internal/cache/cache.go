package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"retailops/backend/internal/domain"
)

// PayrollCache stores computed payroll summaries. Keys embed a per-employee
// version so that bumping the version invalidates every cached period for
// that employee at once.
type PayrollCache interface {
	Get(ctx context.Context, key string) (*domain.PayrollSummary, bool, error)
	Set(ctx context.Context, key string, value *domain.PayrollSummary, ttl time.Duration) error
	Version(ctx context.Context, employeeID string) (int64, error)
	Bump(ctx context.Context, employeeID string) error
}

func PayrollKey(employeeID string, version int64, currency domain.Currency, from string, to string) string {
	return fmt.Sprintf("payroll:%s:v%d:%s:%s:%s", employeeID, version, currency, from, to)
}

func versionKey(employeeID string) string {
	return "payroll:ver:" + employeeID
}

type NoopPayrollCache struct{}

func (NoopPayrollCache) Get(_ context.Context, _ string) (*domain.PayrollSummary, bool, error) {
	return nil, false, nil
}

func (NoopPayrollCache) Set(_ context.Context, _ string, _ *domain.PayrollSummary, _ time.Duration) error {
	return nil
}

func (NoopPayrollCache) Version(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (NoopPayrollCache) Bump(_ context.Context, _ string) error {
	return nil
}

type memoryEntry struct {
	value     domain.PayrollSummary
	expiresAt time.Time
}

// MemoryPayrollCache is the single-process cache used when Redis is not
// configured.
type MemoryPayrollCache struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	versions map[string]int64
	now      func() time.Time
}

func NewMemoryPayrollCache() *MemoryPayrollCache {
	return &MemoryPayrollCache{
		entries:  make(map[string]memoryEntry),
		versions: make(map[string]int64),
		now:      time.Now,
	}
}

func (c *MemoryPayrollCache) Get(_ context.Context, key string) (*domain.PayrollSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	value := entry.value
	return &value, true, nil
}

func (c *MemoryPayrollCache) Set(_ context.Context, key string, value *domain.PayrollSummary, ttl time.Duration) error {
	if value == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: *value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

func (c *MemoryPayrollCache) Version(_ context.Context, employeeID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[employeeID], nil
}

// Bump also drops the employee's stale entries, which would otherwise sit in
// memory until their TTL.
func (c *MemoryPayrollCache) Bump(_ context.Context, employeeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions[employeeID]++
	prefix := "payroll:" + employeeID + ":"
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}
