// Package redistest provides an in-memory stand-in for the redis helpers.
package redistest

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ufsc-france/gestion-backend/pkg/redis"
)

type entry struct {
	value   string
	expires time.Time
}

// Memory implements redis.CacheStore and redis.IdempotencyStore.
type Memory struct {
	mu    sync.Mutex
	data  map[string]entry
	now   func() time.Time
	Fail  error
	Calls map[string]int
}

func NewMemory() *Memory {
	return &Memory{data: map[string]entry{}, now: time.Now, Calls: map[string]int{}}
}

var (
	_ redis.CacheStore       = (*Memory)(nil)
	_ redis.IdempotencyStore = (*Memory)(nil)
)

func (m *Memory) track(op string) error {
	m.Calls[op]++
	return m.Fail
}

func (m *Memory) alive(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("get"); err != nil {
		return "", err
	}
	e, ok := m.alive(key)
	if !ok {
		return "", redis.ErrNil
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("set"); err != nil {
		return err
	}
	m.data[key] = m.newEntry(value, ttl)
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("setnx"); err != nil {
		return false, err
	}
	if _, ok := m.alive(key); ok {
		return false, nil
	}
	m.data[key] = m.newEntry(value, ttl)
	return true, nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("del"); err != nil {
		return err
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// CompareAndDelete removes key only while it holds value.
func (m *Memory) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("cad"); err != nil {
		return false, err
	}
	e, ok := m.alive(key)
	if !ok || e.value != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *Memory) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("scan"); err != nil {
		return nil, err
	}
	var keys []string
	for k := range m.data {
		if _, ok := m.alive(k); !ok {
			continue
		}
		if matched, _ := path.Match(pattern, k); matched {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// IncrWithTTL increments a counter and arms the TTL on the first hit.
func (m *Memory) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("incr"); err != nil {
		return 0, err
	}
	e, ok := m.alive(key)
	var count int64
	if ok {
		fmt.Sscan(e.value, &count)
	}
	count++
	if !ok {
		e = m.newEntry(count, ttl)
	} else {
		e.value = stringify(count)
	}
	m.data[key] = e
	return count, nil
}

func (m *Memory) RateLimitKey(scope string) string {
	return join("rate_limit", scope)
}

func (m *Memory) IdempotencyKey(scope, id string) string {
	return join("idempotency", scope, id)
}

func (m *Memory) StatsKey(clubID, season string) string {
	return join("stats", clubID, season)
}

func (m *Memory) StatsPattern() string {
	return join("stats", "*")
}

// Len reports the number of live keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if _, ok := m.alive(k); ok {
			n++
		}
	}
	return n
}

// Advance moves the internal clock forward to expire keys.
func (m *Memory) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.now()
	m.now = func() time.Time { return current.Add(d) }
}

func (m *Memory) newEntry(value any, ttl time.Duration) entry {
	e := entry{value: stringify(value)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	return e
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func join(parts ...string) string {
	return "ufsc:" + strings.Join(parts, ":")
}
