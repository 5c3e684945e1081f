package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, opts ...func(*StoreConfig)) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	cfg := StoreConfig{
		Dir:        t.TempDir(),
		MaxEntries: 16,
		DefaultTTL: time.Hour,
		Now:        clock.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, clock
}

// --- Basic Put/Get ---

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	data := json.RawMessage(`{"name":"tokyo","days":7}`)
	if err := s.Put("open-meteo:tokyo", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := s.Get("open-meteo:tokyo")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != string(data) {
		t.Errorf("round-trip mismatch: got %s, want %s", got, data)
	}
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if _, ok := s.Get("nope"); ok {
		t.Error("expected miss for unknown key")
	}
	if st := s.Stats(); st.Misses != 1 {
		t.Errorf("Misses = %d, want 1", st.Misses)
	}
}

func TestPutRejectsInvalidJSON(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Put("bad", json.RawMessage(`{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestPutOverwrites(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.Put("k", json.RawMessage(`1`))
	_ = s.Put("k", json.RawMessage(`2`))

	got, ok := s.Get("k")
	if !ok || string(got) != "2" {
		t.Errorf("Get = %s, %v; want 2, true", got, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

// --- TTL ---

func TestExpiredEntryMissesButServesStale(t *testing.T) {
	s, clock := newTestStore(t)
	_ = s.Put("k", json.RawMessage(`"v"`))

	clock.Advance(59 * time.Minute)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("entry should still be fresh")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := s.Get("k"); ok {
		t.Error("expired entry should miss on Get")
	}

	v, fresh, ok := s.GetStale("k")
	if !ok {
		t.Fatal("GetStale should return expired entry")
	}
	if fresh {
		t.Error("fresh = true for expired entry")
	}
	if string(v) != `"v"` {
		t.Errorf("stale value = %s", v)
	}
	if st := s.Stats(); st.Stale < 2 {
		t.Errorf("Stale = %d, want >= 2", st.Stale)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s, clock := newTestStore(t)
	if err := s.PutWithTTL("forever", json.RawMessage(`true`), 0); err != nil {
		t.Fatalf("PutWithTTL: %v", err)
	}
	clock.Advance(24 * 365 * time.Hour)
	if _, ok := s.Get("forever"); !ok {
		t.Error("zero-TTL entry should never expire")
	}
}

// --- Eviction ---

func TestLRUEviction(t *testing.T) {
	s, clock := newTestStore(t, func(c *StoreConfig) { c.MaxEntries = 3 })

	for i := range 3 {
		_ = s.Put(fmt.Sprintf("k%d", i), json.RawMessage(`0`))
		clock.Advance(time.Second)
	}
	// Touch k0 so k1 becomes the oldest.
	if _, ok := s.Get("k0"); !ok {
		t.Fatal("k0 missing")
	}
	_ = s.Put("k3", json.RawMessage(`0`))

	if _, ok := s.Get("k1"); ok {
		t.Error("k1 should have been evicted")
	}
	for _, k := range []string{"k0", "k2", "k3"} {
		if _, ok := s.Get(k); !ok {
			t.Errorf("%s should survive eviction", k)
		}
	}
	if st := s.Stats(); st.Evictions != 1 || st.Entries != 3 {
		t.Errorf("Stats = %+v, want 1 eviction and 3 entries", st)
	}
}

// --- Delete ---

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.Put("a", json.RawMessage(`1`))
	_ = s.Put("b", json.RawMessage(`2`))

	s.Delete("a")
	s.Delete("missing")
	if _, ok := s.Get("a"); ok {
		t.Error("a should be deleted")
	}

	if s.Len() != 1 {
		t.Errorf("Len after Delete = %d, want 1", s.Len())
	}
	files, _ := filepath.Glob(filepath.Join(s.cfg.Dir, "*.json"))
	if len(files) != 1 {
		t.Errorf("entry files after Delete = %v, want one", files)
	}
}

// --- Persistence ---

func TestReopenIndexesExistingEntries(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	cfg := StoreConfig{Dir: dir, DefaultTTL: time.Hour, Now: clock.Now}

	s1, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_ = s1.Put("persisted", json.RawMessage(`{"x":1}`))

	// Garbage and leftover temp files are cleaned on open.
	_ = os.WriteFile(filepath.Join(dir, "deadbeef.json"), []byte("garbage"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, ".tmp-123"), []byte("partial"), 0o644)

	s2, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := s2.Get("persisted")
	if !ok || string(got) != `{"x":1}` {
		t.Errorf("Get after reopen = %s, %v", got, ok)
	}
	if s2.Len() != 1 {
		t.Errorf("Len after reopen = %d, want 1", s2.Len())
	}
	if _, err := os.Stat(filepath.Join(dir, ".tmp-123")); !os.IsNotExist(err) {
		t.Error("temp file should be removed on open")
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore(StoreConfig{}); err == nil {
		t.Error("expected error for empty Dir")
	}
}

func TestHashKeyStable(t *testing.T) {
	a := hashKey("open-meteo:tokyo:2026-01-01:2026-01-07")
	b := hashKey("open-meteo:tokyo:2026-01-01:2026-01-07")
	if a != b {
		t.Error("hashKey not deterministic")
	}
	if len(a) != 16 || strings.ContainsAny(a, "/:") {
		t.Errorf("hashKey = %q, want 16 hex chars", a)
	}
	if a == hashKey("open-meteo:tokyo:2026-01-01:2026-01-08") {
		t.Error("distinct keys hashed equal")
	}
}

// --- Typed helpers ---

type archive struct {
	Location string    `json:"location"`
	Values   []float64 `json:"values"`
}

func TestTypedRoundTrip(t *testing.T) {
	s, clock := newTestStore(t)
	in := archive{Location: "tokyo", Values: []float64{1.5, 0, 12}}

	if err := PutTypedWithTTL(s, "arch", in, 0); err != nil {
		t.Fatalf("PutTypedWithTTL: %v", err)
	}
	out, ok := GetTyped[archive](s, "arch")
	if !ok {
		t.Fatal("GetTyped miss")
	}
	if out.Location != in.Location || len(out.Values) != 3 || out.Values[2] != 12 {
		t.Errorf("GetTyped = %+v, want %+v", out, in)
	}

	if err := PutTypedWithTTL(s, "short", in, time.Minute); err != nil {
		t.Fatalf("PutTypedWithTTL: %v", err)
	}
	clock.Advance(2 * time.Minute)
	if _, ok := GetTyped[archive](s, "short"); ok {
		t.Error("expired typed entry should miss")
	}
	stale, fresh, ok := GetTypedStale[archive](s, "short")
	if !ok || fresh || stale.Location != "tokyo" {
		t.Errorf("GetTypedStale = %+v, fresh=%v ok=%v", stale, fresh, ok)
	}
}

func TestGetTypedWrongShape(t *testing.T) {
	s, _ := newTestStore(t)
	_ = s.Put("num", json.RawMessage(`42`))
	if _, ok := GetTyped[archive](s, "num"); ok {
		t.Error("decoding a number into a struct should miss")
	}
	if s.Len() != 0 {
		t.Error("undecodable entry was kept")
	}
	if _, _, ok := GetTypedStale[archive](s, "num"); ok {
		t.Error("deleted entry served stale")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(t, func(c *StoreConfig) { c.MaxEntries = 8 })

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 20 {
				key := fmt.Sprintf("g%d-%d", g, i%4)
				_ = PutTypedWithTTL(s, key, i, 0)
				_, _ = GetTyped[int](s, key)
			}
		}()
	}
	wg.Wait()

	if n := s.Len(); n > 8 {
		t.Errorf("Len = %d, exceeds MaxEntries", n)
	}
}
