package usecase

import (
	"context"
	"errors"

	"scrape-aggregator/internal/repository"

	"github.com/google/uuid"
)

type ItemGetUsecase interface {
	GetItem(ctx context.Context, id uuid.UUID) (ItemView, error)
}

type ItemGet struct {
	items repository.ItemRepository
}

func NewItemGetUsecase(items repository.ItemRepository) *ItemGet {
	return &ItemGet{items: items}
}

func (u *ItemGet) GetItem(ctx context.Context, id uuid.UUID) (ItemView, error) {
	if id == uuid.Nil {
		return ItemView{}, ErrInvalidInput
	}
	it, err := u.items.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotFound):
			return ItemView{}, ErrNotFound
		case errors.Is(err, repository.ErrStoreUnavailable):
			return ItemView{}, ErrUnavailable
		default:
			return ItemView{}, ErrInternal
		}
	}
	return itemView(it), nil
}
