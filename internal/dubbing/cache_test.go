package dubbing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]string
	getErr  error
	putErr  error
	puts    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, lang, text string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.entries[lang+"|"+text]
	return v, ok, nil
}

func (s *memoryStore) Put(_ context.Context, lang, text, translated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[lang+"|"+text] = translated
	return nil
}

func TestTranslationCacheCallsTranslatorOncePerText(t *testing.T) {
	tr := newFakeTranslator()
	cache := NewTranslationCache(tr, "RU", nil, nil)
	ctx := context.Background()

	for _, text := range []string{"hello", "world", "hello", "hello", "world"} {
		got, err := cache.Translate(ctx, text)
		if err != nil {
			t.Fatalf("Translate(%q): %v", text, err)
		}
		if want := map[string]string{"hello": "HELLO@RU", "world": "WORLD@RU"}[text]; got != want {
			t.Fatalf("Translate(%q) = %q, want %q", text, got, want)
		}
	}
	if tr.count("hello") != 1 || tr.count("world") != 1 {
		t.Fatalf("expected one call per text, got hello=%d world=%d", tr.count("hello"), tr.count("world"))
	}
	stats := cache.Stats()
	if stats.Calls != 2 || stats.Hits != 3 || stats.Entries != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestTranslationCacheCollapsesConcurrentRequests(t *testing.T) {
	tr := newFakeTranslator()
	tr.delay = 50 * time.Millisecond
	cache := NewTranslationCache(tr, "DE", nil, nil)

	var wg sync.WaitGroup
	results := make([]string, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = cache.Translate(context.Background(), "same line")
		}()
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("request %d: %v", i, errs[i])
		}
		if results[i] != "SAME LINE@DE" {
			t.Fatalf("request %d got %q", i, results[i])
		}
	}
	if got := tr.count("same line"); got != 1 {
		t.Fatalf("translator called %d times, want 1", got)
	}
}

func TestTranslationCacheDoesNotCacheFailures(t *testing.T) {
	tr := newFakeTranslator()
	tr.fail["flaky"] = errBoom
	cache := NewTranslationCache(tr, "RU", nil, nil)

	if _, err := cache.Translate(context.Background(), "flaky"); !errors.Is(err, errBoom) {
		t.Fatalf("expected translator error, got %v", err)
	}
	delete(tr.fail, "flaky")
	got, err := cache.Translate(context.Background(), "flaky")
	if err != nil {
		t.Fatalf("second Translate: %v", err)
	}
	if got != "FLAKY@RU" || tr.count("flaky") != 2 {
		t.Fatalf("got %q after %d calls", got, tr.count("flaky"))
	}
}

func TestTranslationCacheUsesStore(t *testing.T) {
	store := newMemoryStore()
	store.entries["RU|stored"] = "из кэша"
	tr := newFakeTranslator()
	cache := NewTranslationCache(tr, "RU", store, nil)
	ctx := context.Background()

	got, err := cache.Translate(ctx, "stored")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "из кэша" || tr.total() != 0 {
		t.Fatalf("expected store hit without translator call, got %q calls=%d", got, tr.total())
	}

	if _, err := cache.Translate(ctx, "fresh"); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if store.entries["RU|fresh"] != "FRESH@RU" {
		t.Fatalf("expected fresh translation written through, store=%v", store.entries)
	}
	if stats := cache.Stats(); stats.StoreHits != 1 || stats.Calls != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestTranslationCacheToleratesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("database is locked")
	store.putErr = errors.New("disk full")
	tr := newFakeTranslator()
	cache := NewTranslationCache(tr, "RU", store, nil)

	got, err := cache.Translate(context.Background(), "text")
	if err != nil {
		t.Fatalf("store errors must not fail translation: %v", err)
	}
	if got != "TEXT@RU" || store.puts != 1 {
		t.Fatalf("got %q puts=%d", got, store.puts)
	}
}
