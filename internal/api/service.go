package api

import (
	"context"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
)

// ContentReader abstracts the store interactions needed for API queries.
type ContentReader interface {
	List(ctx context.Context, states ...content.State) ([]*content.Item, error)
	Stats(ctx context.Context) (map[content.State]int, error)
	GetByID(ctx context.Context, id int64) (*content.Item, error)
}

// ContentService exposes read-only item operations returning API DTOs.
type ContentService struct {
	store ContentReader
}

// NewContentService constructs a ContentService around the provided reader.
func NewContentService(store ContentReader) *ContentService {
	if store == nil {
		return nil
	}
	return &ContentService{store: store}
}

// List returns items filtered by state.
func (s *ContentService) List(ctx context.Context, states ...content.State) ([]ContentItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.List(ctx, states...)
	if err != nil {
		return nil, err
	}
	return FromContentItems(items), nil
}

// Stats returns summary counts keyed by state string.
func (s *ContentService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStats(stats), nil
}

// Describe fetches a single item including its script body.
func (s *ContentService) Describe(ctx context.Context, id int64) (*ContentItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromContentItem(item, true)
	return &dto, nil
}
