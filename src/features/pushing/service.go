package pushing

import (
	"context"
	"fmt"
	"log/slog"

	"tomekeeper/src/book"
	"tomekeeper/src/features/config"
	"tomekeeper/src/features/metrics"
	"tomekeeper/src/features/reconciling"
	"tomekeeper/src/infra/abs"
)

// LibraryClient talks to the remote audiobook server.
type LibraryClient interface {
	TestConnection(ctx context.Context) error
	ListItems(ctx context.Context) ([]abs.Item, error)
	UpdateItemMetadata(ctx context.Context, itemID string, md *book.Metadata) (int, error)
	TriggerRescan(ctx context.Context) error
}

// Service pushes reconciled metadata to the remote library server. The
// item list is fetched once per batch; matching is by path first, then by
// title and author.
type Service struct {
	config *config.Manager
	client LibraryClient
}

// NewService creates the pushing service.
func NewService(cfg *config.Manager, client LibraryClient) *Service {
	return &Service{config: cfg, client: client}
}

// Push sends metadata for each item to its matching remote library entry.
// Unmatched items are reported, not failed; per-item update errors don't
// stop the batch.
func (s *Service) Push(ctx context.Context, syncItems []book.SyncItem) (*book.PushResult, error) {
	items, err := s.client.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote items: %w", err)
	}

	result := &book.PushResult{}
	for _, si := range syncItems {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item, ok := abs.MatchItem(items, si.Path)
		if !ok {
			item, ok = abs.MatchItemByMetadata(items, &si.Metadata)
		}
		if !ok {
			metrics.PushedItems.WithLabelValues("unmatched").Inc()
			result.Unmatched = append(result.Unmatched, si.Path)
			continue
		}

		status, err := s.client.UpdateItemMetadata(ctx, item.ID, &si.Metadata)
		if err != nil {
			metrics.PushedItems.WithLabelValues("error").Inc()
			result.Failed = append(result.Failed, book.PushFailure{
				Path: si.Path, Reason: err.Error(), Status: status,
			})
			slog.Warn("Push failed", "path", si.Path, "item", item.ID, "error", err)
			continue
		}
		metrics.PushedItems.WithLabelValues("ok").Inc()
		result.Updated++
	}
	return result, nil
}

// PushGroups builds sync items from scanned groups that carry reconciled
// metadata and pushes them. Multi-file groups push once, keyed by their
// first file's path.
func (s *Service) PushGroups(ctx context.Context, groups []*book.Group) (*book.PushResult, error) {
	var syncItems []book.SyncItem
	for _, g := range groups {
		if g.Metadata == nil || len(g.Files) == 0 {
			continue
		}
		syncItems = append(syncItems, book.SyncItem{Path: g.Files[0].Path, Metadata: *g.Metadata})
	}
	return s.Push(ctx, syncItems)
}

// TestConnection checks the remote server is reachable with the configured
// token.
func (s *Service) TestConnection(ctx context.Context) error {
	return s.client.TestConnection(ctx)
}

// TriggerRescan asks the remote server to rescan its library.
func (s *Service) TriggerRescan(ctx context.Context) error {
	return s.client.TriggerRescan(ctx)
}

// NormalizeRemoteGenres re-applies the local genre policy to every remote
// item, patching only items whose genre list actually changes.
func (s *Service) NormalizeRemoteGenres(ctx context.Context) (*book.PushResult, error) {
	items, err := s.client.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote items: %w", err)
	}

	policy := s.config.Get().Genres
	result := &book.PushResult{}
	for i := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		normalized := reconciling.NormalizeGenres(items[i].Metadata.Genres, policy)
		if sameList(items[i].Metadata.Genres, normalized) {
			continue
		}

		status, err := s.client.UpdateItemMetadata(ctx, items[i].ID, &book.Metadata{Genres: normalized})
		if err != nil {
			metrics.PushedItems.WithLabelValues("error").Inc()
			result.Failed = append(result.Failed, book.PushFailure{
				Path: items[i].Path, Reason: err.Error(), Status: status,
			})
			continue
		}
		metrics.PushedItems.WithLabelValues("ok").Inc()
		result.Updated++
	}
	return result, nil
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
