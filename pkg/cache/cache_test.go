package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := Disabled("--no-cache")
	defer c.Close()

	if got := DisabledReason(c); got != "--no-cache" {
		t.Errorf("DisabledReason = %q, want --no-cache", got)
	}
	if got := DisabledReason(NewNullCache()); got != "no cache configured" {
		t.Errorf("DisabledReason(NewNullCache()) = %q", got)
	}
	if got := DisabledReason(&NullCache{}); got != "disabled" {
		t.Errorf("DisabledReason(zero NullCache) = %q", got)
	}

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "result:a"); hit || err != nil {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "result:a", []byte(`{"buses":[]}`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "result:a")
	if err != nil || !hit {
		t.Fatalf("Get after Set = hit %v, err %v", hit, err)
	}
	if string(data) != `{"buses":[]}` {
		t.Errorf("Get = %s", data)
	}

	if err := c.Delete(ctx, "result:a"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "result:a"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "result:a"); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without TTL should hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry = hit %v, err %v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestLabelledHash(t *testing.T) {
	net := Hash([]byte(`{"name":"feeder"}`))
	a := LabelledHash(net, []byte(`[{"bus":0,"vm_pu":1.02}]`))
	b := LabelledHash(net, []byte(`[{"bus":0,"vm_pu":1.0}]`))
	if a == b {
		t.Error("different voltage tables should give different hashes")
	}
	if a == net || len(a) != 64 {
		t.Errorf("LabelledHash = %q, want a fresh 64-char hash", a)
	}
	if a != LabelledHash(net, []byte(`[{"bus":0,"vm_pu":1.02}]`)) {
		t.Error("LabelledHash should be deterministic")
	}
}

func TestShortHash(t *testing.T) {
	h := Hash([]byte("feeder"))
	if got := ShortHash(h); got != h[:12] {
		t.Errorf("ShortHash = %q, want %q", got, h[:12])
	}
	if got := ShortHash("abc"); got != "abc" {
		t.Errorf("ShortHash(abc) = %q", got)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	rk1 := k.ResultKey("abc", ResultKeyOpts{})
	rk2 := k.ResultKey("abc", ResultKeyOpts{FillUnresolved: true})
	if rk1 == rk2 {
		t.Error("Different ResultKeyOpts should produce different keys")
	}
	if rk1 != k.ResultKey("abc", ResultKeyOpts{}) {
		t.Error("ResultKey should be deterministic")
	}
	if rk1 == k.ResultKey("abd", ResultKeyOpts{}) {
		t.Error("Different network hashes should produce different keys")
	}
	if rk1[:7] != "result:" {
		t.Errorf("ResultKey should start with result: %s", rk1)
	}

	gk1 := k.RenderKey("abc", RenderKeyOpts{Format: "svg"})
	gk2 := k.RenderKey("abc", RenderKeyOpts{Format: "dot"})
	if gk1 == gk2 {
		t.Error("Different RenderKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "staging:")

	want := "staging:" + inner.ResultKey("abc", ResultKeyOpts{})
	if got := scoped.ResultKey("abc", ResultKeyOpts{}); got != want {
		t.Errorf("ScopedKeyer ResultKey = %s, want %s", got, want)
	}

	rk := scoped.RenderKey("abc", RenderKeyOpts{})
	if len(rk) < 15 || rk[:8] != "staging:" {
		t.Errorf("ScopedKeyer RenderKey should be prefixed: %s", rk)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	want := "prefix:" + NewDefaultKeyer().ResultKey("h", ResultKeyOpts{})
	if got := scoped.ResultKey("h", ResultKeyOpts{}); got != want {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

// fastBackoff keeps retry tests quick.
func fastBackoff() Backoff {
	return Backoff{Attempts: 3, Delay: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestBackoffRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	if err := fastBackoff().Retry(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err = %v, calls = %d", err, calls)
	}

	// A non-retryable error, such as a run that fails to encode, stops at once.
	calls = 0
	err := fastBackoff().Retry(ctx, func() error { calls++; return ErrNetwork })
	if err != ErrNetwork || calls != 1 {
		t.Errorf("non-retryable: err = %v, calls = %d", err, calls)
	}

	calls = 0
	err = fastBackoff().Retry(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err = %v, calls = %d", err, calls)
	}

	calls = 0
	err = fastBackoff().Retry(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err = %v, calls = %d", err, calls)
	}
}

func TestBackoffWaits(t *testing.T) {
	var waits []time.Duration
	var attempts []int
	b := Backoff{Attempts: 4, Delay: time.Millisecond, Max: 3 * time.Millisecond}
	b.OnRetry = func(attempt int, wait time.Duration, err error) {
		attempts = append(attempts, attempt)
		waits = append(waits, wait)
		if !errors.Is(err, ErrNetwork) {
			t.Errorf("OnRetry error = %v", err)
		}
	}
	_ = b.Retry(context.Background(), func() error { return Retryable(ErrNetwork) })

	wantWaits := []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}
	if len(waits) != len(wantWaits) {
		t.Fatalf("waits = %v, want %v", waits, wantWaits)
	}
	for i := range wantWaits {
		if waits[i] != wantWaits[i] || attempts[i] != i+1 {
			t.Errorf("retry %d: attempt %d wait %v, want attempt %d wait %v", i, attempts[i], waits[i], i+1, wantWaits[i])
		}
	}
}

func TestBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunBackoff.Retry(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRunBackoffSpan(t *testing.T) {
	var total time.Duration
	b := RunBackoff
	wait := b.Delay
	for i := 1; i < b.Attempts; i++ {
		total += min(wait, b.Max)
		wait *= 2
	}
	if total < 2*time.Second || total > 3*time.Second {
		t.Errorf("RunBackoff waits %v in total, want between 2s and 3s", total)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("VOLTSEED_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VOLTSEED_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "voltseed-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	key := "result:" + Hash([]byte(t.Name()))
	defer c.Delete(ctx, key)

	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, hit %v, err %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// port 1 is reserved and refuses connections
	if _, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("NewRedisCache should fail for an unreachable server")
	}
}
