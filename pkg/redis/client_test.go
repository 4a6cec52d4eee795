package redis

import (
	"context"
	"fmt"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ufsc-france/gestion-backend/pkg/config"
)

func TestIncrWithTTLArmsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.RateLimitKey("email:login:abc")

	for want := int64(1); want <= 3; want++ {
		count, err := client.IncrWithTTL(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
	}
	if len(mock.expireCalls) != 1 || mock.expireCalls[0].ttl != time.Minute {
		t.Fatalf("expected a single expire call, got %+v", mock.expireCalls)
	}
}

func TestCompareAndDeleteOnlyRemovesOwnValue(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.LockKey("cron-worker")
	_ = client.Set(ctx, key, "worker-a", time.Minute)

	deleted, err := client.CompareAndDelete(ctx, key, "worker-b")
	if err != nil || deleted {
		t.Fatalf("foreign owner deleted=%v err=%v", deleted, err)
	}
	deleted, err = client.CompareAndDelete(ctx, key, "worker-a")
	if err != nil || !deleted {
		t.Fatalf("owner deleted=%v err=%v", deleted, err)
	}
	if _, err := client.Get(ctx, key); err != ErrNil {
		t.Fatalf("expected key gone, got %v", err)
	}
	if len(mock.scripts) != 2 || mock.scripts[0] != compareAndDelete {
		t.Fatalf("expected the compare-and-delete script, got %v", mock.scripts)
	}
}

func TestScanKeysFollowsCursor(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i := 0; i < 5; i++ {
		_ = client.Set(ctx, client.StatsKey(fmt.Sprintf("club-%d", i), "2025-2026"), "{}", time.Hour)
	}
	_ = client.Set(ctx, client.IdempotencyKey("commerce", "d-1"), "1", time.Hour)
	mock.pageSize = 2

	keys, err := client.ScanKeys(ctx, client.StatsPattern())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 5 {
		t.Fatalf("expected 5 stats keys, got %v", keys)
	}
	if mock.scanCalls < 3 {
		t.Fatalf("expected paging through the cursor, got %d calls", mock.scanCalls)
	}

	if err := client.Del(ctx, keys...); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := client.Get(ctx, client.IdempotencyKey("commerce", "d-1")); err != nil {
		t.Fatalf("non stats keys must survive, got %v", err)
	}
	if err := client.Del(ctx); err != nil {
		t.Fatalf("empty del should be a no-op: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("commerce", "id"); got != "ufsc:idempotency:commerce:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("login"); got != "ufsc:rate_limit:login" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.StatsKey("club", "2025-2026"); got != "ufsc:stats:club:2025-2026" {
		t.Fatalf("unexpected stats key %s", got)
	}
	if got := client.StatsKey("club", ""); got != "ufsc:stats:club" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
	if got := client.StatsPattern(); got != "ufsc:stats:*" {
		t.Fatalf("unexpected stats pattern %s", got)
	}
	if got := client.LockKey("cron"); got != "ufsc:lock:cron" {
		t.Fatalf("unexpected lock key %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected missing address to fail")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 3 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if _, err := client.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error from nil store")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without raw client should be nil, got %v", err)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
	pageSize    int
	scanCalls   int
	scripts     []string
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:     make(map[string]string),
		incr:     make(map[string]int64),
		pageSize: 100,
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	m.scanCalls++
	matched := make([]string, 0, len(m.data))
	for key := range m.data {
		if ok, _ := path.Match(match, key); ok {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)

	start := int(cursor)
	end := start + m.pageSize
	if end >= len(matched) {
		return redis.NewScanCmdResult(matched[start:], 0, nil)
	}
	return redis.NewScanCmdResult(matched[start:end], uint64(end), nil)
}

// Eval understands only the compare-and-delete script.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	m.scripts = append(m.scripts, script)
	if script != compareAndDelete || len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unsupported script"))
	}
	if v, ok := m.data[keys[0]]; ok && v == fmt.Sprint(args[0]) {
		delete(m.data, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}
