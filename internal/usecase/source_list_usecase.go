package usecase

import (
	"context"
	"errors"

	"scrape-aggregator/internal/domain/source"
	"scrape-aggregator/internal/repository"
)

type SourceListUsecase interface {
	ListSources(ctx context.Context) ([]source.Source, error)
}

type SourceList struct {
	sources repository.SourceRepository
}

func NewSourceListUsecase(sources repository.SourceRepository) *SourceList {
	return &SourceList{sources: sources}
}

func (u *SourceList) ListSources(ctx context.Context) ([]source.Source, error) {
	out, err := u.sources.List(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			return nil, ErrUnavailable
		}
		return nil, ErrInternal
	}
	return out, nil
}
