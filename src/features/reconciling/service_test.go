package reconciling

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
)

// MockProvider is a scripted metadata provider.
type MockProvider struct {
	name    string
	result  *book.Metadata
	err     error
	mu      sync.Mutex
	lookups int
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Lookup(ctx context.Context, title, author string) (*book.Metadata, error) {
	m.mu.Lock()
	m.lookups++
	m.mu.Unlock()
	return m.result, m.err
}

func (m *MockProvider) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

// MockCache is an in-memory cache with controllable freshness.
type MockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	stale   bool
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, fp string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.entries[fp]
	if !ok {
		return nil, false, nil
	}
	return payload, !m.stale, nil
}

func (m *MockCache) Put(ctx context.Context, fp string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fp] = payload
	return nil
}

func (m *MockCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
	return nil
}

func (m *MockCache) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func testConfig(providers config.Providers) *config.Manager {
	return config.NewManager(&config.Config{
		Providers: providers,
		Genres:    config.Genres{Enforcement: false},
	})
}

func testGroup(title, author string) *book.Group {
	return &book.Group{
		ID:   "g1",
		Name: title,
		Metadata: &book.Metadata{
			Title:  book.Str(title),
			Author: book.Str(author),
		},
	}
}

func TestReconcile_ProviderValuesWinOverTagSeed(t *testing.T) {
	provider := &MockProvider{name: "audible", result: &book.Metadata{
		Title:    book.Str("Provider Title"),
		Narrator: book.Str("Jane Reader"),
	}}
	cfg := testConfig(config.Providers{"audible": {Enabled: true, Priority: 1}})
	service := NewService(cfg, NewMockCache(), []Provider{provider})

	outcome, err := service.Reconcile(context.Background(), testGroup("Tag Title", "Tag Author"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := book.Val(outcome.Metadata.Title); got != "Provider Title" {
		t.Errorf("provider title should win, got %q", got)
	}
	if got := book.Val(outcome.Metadata.Narrator); got != "Jane Reader" {
		t.Errorf("provider should supply narrator, got %q", got)
	}
	if got := book.Val(outcome.Metadata.Author); got != "Tag Author" {
		t.Errorf("tag seed should fill fields no provider supplied, got %q", got)
	}
}

func TestReconcile_ProviderCorrectsJunkTags(t *testing.T) {
	provider := &MockProvider{name: "audible", result: &book.Metadata{
		Title: book.Str("Night of the Ninth Dragon"),
		Year:  book.Str("2016"),
	}}
	cfg := testConfig(config.Providers{"audible": {Enabled: true, Priority: 1}})
	service := NewService(cfg, NewMockCache(), []Provider{provider})

	group := testGroup("Track 10", "Mary Pope Osborne")
	group.Metadata.Year = book.Str("0000")

	outcome, err := service.Reconcile(context.Background(), group)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := book.Val(outcome.Metadata.Title); got != "Night of the Ninth Dragon" {
		t.Errorf("ripper junk title must be replaced, got %q", got)
	}
	if got := book.Val(outcome.Metadata.Year); got != "2016" {
		t.Errorf("provider year must replace the tag year, got %q", got)
	}
}

func TestReconcile_PriorityOrdersFieldMerge(t *testing.T) {
	first := &MockProvider{name: "audible", result: &book.Metadata{Publisher: book.Str("First House")}}
	second := &MockProvider{name: "google_books", result: &book.Metadata{Publisher: book.Str("Second House")}}
	cfg := testConfig(config.Providers{
		"audible":      {Enabled: true, Priority: 2},
		"google_books": {Enabled: true, Priority: 1},
	})
	service := NewService(cfg, NewMockCache(), []Provider{first, second})

	outcome, err := service.Reconcile(context.Background(), testGroup("Book", "Author"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := book.Val(outcome.Metadata.Publisher); got != "Second House" {
		t.Errorf("lower priority number should win, got %q", got)
	}
}

func TestReconcile_GenresUnionAcrossProviders(t *testing.T) {
	first := &MockProvider{name: "audible", result: &book.Metadata{Genres: []string{"Fantasy"}}}
	second := &MockProvider{name: "openlibrary", result: &book.Metadata{Genres: []string{"Adventure", "Fantasy"}}}
	cfg := testConfig(config.Providers{
		"audible":     {Enabled: true, Priority: 1},
		"openlibrary": {Enabled: true, Priority: 2},
	})
	service := NewService(cfg, NewMockCache(), []Provider{first, second})

	outcome, err := service.Reconcile(context.Background(), testGroup("Book", "Author"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(outcome.Metadata.Genres) != 2 {
		t.Errorf("expected union of 2 genres, got %v", outcome.Metadata.Genres)
	}
}

func TestReconcile_SecondCallHitsCache(t *testing.T) {
	provider := &MockProvider{name: "audible", result: &book.Metadata{Narrator: book.Str("Jane Reader")}}
	cfg := testConfig(config.Providers{"audible": {Enabled: true, Priority: 1}})
	service := NewService(cfg, NewMockCache(), []Provider{provider})

	ctx := context.Background()
	if _, err := service.Reconcile(ctx, testGroup("Book", "Author")); err != nil {
		t.Fatalf("first call: %v", err)
	}
	outcome, err := service.Reconcile(ctx, testGroup("Book", "Author"))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if provider.Lookups() != 1 {
		t.Errorf("expected 1 provider lookup, got %d", provider.Lookups())
	}
	if !outcome.FromCache {
		t.Error("second reconciliation should come from cache")
	}
}

func TestReconcile_StaleCacheUsedWhenProvidersFail(t *testing.T) {
	cache := NewMockCache()
	stale := map[string]*book.Metadata{"audible": {Narrator: book.Str("Old Narrator")}}
	payload, _ := json.Marshal(stale)
	fp := Fingerprint("Book", "Author")
	cache.entries[fp] = payload
	cache.stale = true

	provider := &MockProvider{name: "audible", err: errors.New("upstream down")}
	cfg := testConfig(config.Providers{"audible": {Enabled: true, Priority: 1}})
	service := NewService(cfg, cache, []Provider{provider})

	outcome, err := service.Reconcile(context.Background(), testGroup("Book", "Author"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !outcome.Degraded {
		t.Error("stale fallback should be flagged degraded")
	}
	if got := book.Val(outcome.Metadata.Narrator); got != "Old Narrator" {
		t.Errorf("expected stale narrator, got %q", got)
	}
}

func TestReconcile_TagsOnlyWhenEverythingFails(t *testing.T) {
	provider := &MockProvider{name: "audible", err: errors.New("upstream down")}
	cfg := testConfig(config.Providers{"audible": {Enabled: true, Priority: 1}})
	service := NewService(cfg, NewMockCache(), []Provider{provider})

	group := testGroup("Book", "Author")
	outcome, err := service.Reconcile(context.Background(), group)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := book.Val(outcome.Metadata.Title); got != "Book" {
		t.Errorf("expected tag title, got %q", got)
	}
	if outcome.Degraded || outcome.FromCache {
		t.Error("tags-only outcome should not be degraded or cached")
	}
}

func TestReconcile_NoTitleSkipsProviders(t *testing.T) {
	provider := &MockProvider{name: "audible", result: &book.Metadata{}}
	cfg := testConfig(config.Providers{"audible": {Enabled: true, Priority: 1}})
	service := NewService(cfg, NewMockCache(), []Provider{provider})

	group := &book.Group{ID: "g1", Metadata: &book.Metadata{Author: book.Str("Author")}}
	if _, err := service.Reconcile(context.Background(), group); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if provider.Lookups() != 0 {
		t.Errorf("no lookup expected without a title, got %d", provider.Lookups())
	}
}

func TestReconcile_DisabledProviderNeverQueried(t *testing.T) {
	provider := &MockProvider{name: "audible", result: &book.Metadata{}}
	cfg := testConfig(config.Providers{"audible": {Enabled: false, Priority: 1}})
	service := NewService(cfg, NewMockCache(), []Provider{provider})

	if _, err := service.Reconcile(context.Background(), testGroup("Book", "Author")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if provider.Lookups() != 0 {
		t.Errorf("disabled provider was queried %d times", provider.Lookups())
	}
}

func TestFingerprint_NormalizesCaseAndWhitespace(t *testing.T) {
	a := Fingerprint("The  Hobbit", "J.R.R. Tolkien")
	b := Fingerprint("the hobbit", "j.r.r. tolkien")
	if a != b {
		t.Error("fingerprints should match across case and whitespace")
	}
	c := Fingerprint("The Hobbit", "Someone Else")
	if a == c {
		t.Error("different authors must not collide")
	}
}

func TestReconcile_ConcurrentLookupsCollapse(t *testing.T) {
	provider := &MockProvider{name: "audible", result: &book.Metadata{Narrator: book.Str("Jane Reader")}}
	cfg := testConfig(config.Providers{"audible": {Enabled: true, Priority: 1}})
	service := NewService(cfg, NewMockCache(), []Provider{provider})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Reconcile(context.Background(), testGroup("Book", "Author")); err != nil {
				t.Errorf("reconcile failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if provider.Lookups() > 1 {
		t.Errorf("concurrent identical lookups should collapse, got %d", provider.Lookups())
	}
}
