package reconciling

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
	"tomekeeper/src/features/metrics"
)

// Provider looks up canonical metadata for a book from one external source.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, title, author string) (*book.Metadata, error)
}

// Cache stores raw per-provider responses keyed by query fingerprint.
// A nil payload means a miss; fresh=false means the row outlived its TTL
// but is still usable as a degraded fallback.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (payload []byte, fresh bool, err error)
	Put(ctx context.Context, fingerprint string, payload []byte) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Outcome is the result of reconciling one group.
type Outcome struct {
	Metadata  *book.Metadata `json:"metadata"`
	Sources   []string       `json:"sources,omitempty"`
	FromCache bool           `json:"from_cache"`
	Degraded  bool           `json:"degraded"`
}

// Service reconciles tag-seeded group metadata against the configured
// metadata providers, caching provider responses by query fingerprint.
type Service struct {
	config    *config.Manager
	cache     Cache
	providers []Provider

	flight *flightGroup
}

// NewService creates the reconciling service. Provider registration order
// breaks priority ties.
func NewService(cfg *config.Manager, cache Cache, providers []Provider) *Service {
	return &Service{
		config:    cfg,
		cache:     cache,
		providers: providers,
		flight:    newFlightGroup(),
	}
}

// Fingerprint derives the cache key for a title/author query. It is stable
// across case and whitespace differences so re-scans reuse cached lookups.
func Fingerprint(title, author string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	sum := sha1.Sum([]byte(norm(title) + "|" + norm(author)))
	return hex.EncodeToString(sum[:])
}

// Reconcile produces canonical metadata for a group. Provider values win
// field by field in priority order; the tag seed only fills what every
// provider left unknown. When all providers fail and a stale cache row
// exists, the stale data is used and the outcome is flagged degraded.
func (s *Service) Reconcile(ctx context.Context, group *book.Group) (*Outcome, error) {
	start := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	seed := &book.Metadata{}
	if group.Metadata != nil {
		copied := *group.Metadata
		copied.Genres = append([]string(nil), group.Metadata.Genres...)
		seed = &copied
	}

	cfg := s.config.Get()
	if !book.Has(seed.Title) {
		// Nothing to query with; the tags are all we have.
		seed.Genres = NormalizeGenres(seed.Genres, cfg.Genres)
		return &Outcome{Metadata: seed}, nil
	}

	fp := Fingerprint(book.Val(seed.Title), book.Val(seed.Author))
	results, sources, fromCache, degraded, err := s.flight.do(fp, func() (map[string]*book.Metadata, []string, bool, bool, error) {
		return s.lookup(ctx, fp, book.Val(seed.Title), book.Val(seed.Author))
	})
	if err != nil {
		return nil, err
	}

	order := s.mergeOrder(cfg.Providers)
	merged := mergeResults(order, results)
	if book.Has(merged.Description) {
		merged.Description = book.Str(SanitizeDescription(*merged.Description))
	}

	final := merged
	final.FillFrom(seed)
	final.Genres = NormalizeGenres(append(append([]string(nil), merged.Genres...), seed.Genres...), cfg.Genres)

	return &Outcome{Metadata: final, Sources: sources, FromCache: fromCache, Degraded: degraded}, nil
}

// ClearCache drops every cached provider response.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// CacheCount returns the number of cached queries.
func (s *Service) CacheCount(ctx context.Context) (int, error) {
	return s.cache.Count(ctx)
}

// lookup answers one fingerprint from the cache or, on a miss, from the
// enabled providers.
func (s *Service) lookup(ctx context.Context, fp, title, author string) (map[string]*book.Metadata, []string, bool, bool, error) {
	payload, fresh, err := s.cache.Get(ctx, fp)
	if err != nil {
		slog.Warn("Cache read failed, querying providers", "error", err)
	}
	if payload != nil && fresh {
		results, err := decodePayload(payload)
		if err == nil {
			metrics.CacheHits.Inc()
			return results, keysOf(results), true, false, nil
		}
		slog.Warn("Discarding undecodable cache entry", "fingerprint", fp, "error", err)
	}
	metrics.CacheMisses.Inc()

	results := s.queryProviders(ctx, title, author)
	if len(results) > 0 {
		if encoded, err := json.Marshal(results); err == nil {
			if err := s.cache.Put(ctx, fp, encoded); err != nil {
				slog.Warn("Cache store failed", "fingerprint", fp, "error", err)
			}
		}
		return results, keysOf(results), false, false, nil
	}

	// Every provider failed or came back empty. A stale cache row beats
	// nothing at all.
	if payload != nil {
		if stale, err := decodePayload(payload); err == nil && len(stale) > 0 {
			slog.Warn("All providers failed, using stale cache entry", "fingerprint", fp)
			return stale, keysOf(stale), true, true, nil
		}
	}
	return nil, nil, false, false, nil
}

// queryProviders runs every enabled provider in merge order, collecting
// whatever succeeds. Provider failures are logged, not fatal.
func (s *Service) queryProviders(ctx context.Context, title, author string) map[string]*book.Metadata {
	cfg := s.config.Get()
	results := make(map[string]*book.Metadata)
	for _, p := range s.orderedProviders(cfg.Providers) {
		md, err := p.Lookup(ctx, title, author)
		switch {
		case err != nil:
			metrics.ProviderQueries.WithLabelValues(p.Name(), "error").Inc()
			slog.Warn("Provider lookup failed", "provider", p.Name(), "title", title, "error", err)
		case md == nil:
			metrics.ProviderQueries.WithLabelValues(p.Name(), "empty").Inc()
		default:
			metrics.ProviderQueries.WithLabelValues(p.Name(), "ok").Inc()
			results[p.Name()] = md
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// orderedProviders filters to enabled providers and sorts them by configured
// priority, keeping registration order for ties.
func (s *Service) orderedProviders(cfg config.Providers) []Provider {
	var out []Provider
	for _, p := range s.providers {
		if pc, ok := cfg[p.Name()]; ok && pc.Enabled {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return cfg[out[i].Name()].Priority < cfg[out[j].Name()].Priority
	})
	return out
}

func (s *Service) mergeOrder(cfg config.Providers) []string {
	ordered := s.orderedProviders(cfg)
	names := make([]string, len(ordered))
	for i, p := range ordered {
		names[i] = p.Name()
	}
	return names
}

func decodePayload(payload []byte) (map[string]*book.Metadata, error) {
	var results map[string]*book.Metadata
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("failed to decode cached responses: %w", err)
	}
	return results, nil
}

func keysOf(m map[string]*book.Metadata) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
