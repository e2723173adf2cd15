package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"scrape-aggregator/internal/repository"
)

// ItemListParams mirror the read API's item filters. Pointer fields are
// absent when nil.
type ItemListParams struct {
	Source   string
	SeenFrom *time.Time
	SeenTo   *time.Time
	MinPrice *float64
	MaxPrice *float64
	Query    string
	Limit    int
	Offset   int
}

type SearchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type ItemListUsecase interface {
	ListItems(ctx context.Context, params ItemListParams) ([]ItemView, error)
}

type ItemList struct {
	items  repository.ItemRepository
	cache  SearchCache
	logger *log.Logger
}

func NewItemListUsecase(items repository.ItemRepository, cache SearchCache, logger *log.Logger) *ItemList {
	return &ItemList{items: items, cache: cache, logger: logger}
}

// ListItems validates the filter set and reads through the cache. Inverted
// ranges are a client error, never silently an empty result.
func (u *ItemList) ListItems(ctx context.Context, params ItemListParams) ([]ItemView, error) {
	limit := params.Limit
	if limit == 0 {
		limit = 20
	}
	if limit < 0 || limit > 100 {
		return nil, ErrInvalidInput
	}
	if params.Offset < 0 {
		return nil, ErrInvalidInput
	}
	if params.MinPrice != nil && *params.MinPrice < 0 {
		return nil, ErrInvalidInput
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return nil, ErrInvalidInput
	}
	if params.SeenFrom != nil && params.SeenTo != nil && params.SeenFrom.After(*params.SeenTo) {
		return nil, ErrInvalidInput
	}
	params.Limit = limit
	params.Source = strings.TrimSpace(params.Source)
	params.Query = strings.TrimSpace(params.Query)

	cacheable := params.hasFilter()
	cacheKey := ""
	if cacheable && u.cache != nil {
		cacheKey = ItemsSearchCacheKey(params)
		var cached []ItemView
		hit, err := u.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && hit {
			if u.logger != nil {
				u.logger.Printf("[Items] Cache HIT: %s", cacheKey)
			}
			return cached, nil
		}
	}

	rows, err := u.items.List(ctx, repository.ItemListFilter{
		Source:   params.Source,
		SeenFrom: params.SeenFrom,
		SeenTo:   params.SeenTo,
		MinPrice: params.MinPrice,
		MaxPrice: params.MaxPrice,
		Query:    params.Query,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			return nil, ErrUnavailable
		}
		return nil, ErrInternal
	}

	out := make([]ItemView, 0, len(rows))
	for _, it := range rows {
		out = append(out, itemView(it))
	}

	if cacheable && u.cache != nil {
		_ = u.cache.SetJSON(ctx, cacheKey, out, 0)
	}
	return out, nil
}

func (p ItemListParams) hasFilter() bool {
	return strings.TrimSpace(p.Source) != "" ||
		p.SeenFrom != nil || p.SeenTo != nil ||
		p.MinPrice != nil || p.MaxPrice != nil ||
		strings.TrimSpace(p.Query) != ""
}
