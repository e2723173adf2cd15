package usecase

import (
	"context"
	"errors"

	"scrape-aggregator/internal/domain/scrape"
	"scrape-aggregator/internal/repository"

	"github.com/google/uuid"
)

type JobHistoryUsecase interface {
	ListJobs(ctx context.Context, limit, offset int) ([]scrape.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (scrape.Job, error)
}

type JobHistory struct {
	jobs repository.ScrapeJobRepository
}

func NewJobHistoryUsecase(jobs repository.ScrapeJobRepository) *JobHistory {
	return &JobHistory{jobs: jobs}
}

func (u *JobHistory) ListJobs(ctx context.Context, limit, offset int) ([]scrape.Job, error) {
	if limit == 0 {
		limit = 20
	}
	if limit < 0 || limit > 100 {
		return nil, ErrInvalidInput
	}
	if offset < 0 {
		return nil, ErrInvalidInput
	}
	out, err := u.jobs.List(ctx, limit, offset)
	if err != nil {
		if errors.Is(err, repository.ErrStoreUnavailable) {
			return nil, ErrUnavailable
		}
		return nil, ErrInternal
	}
	return out, nil
}

func (u *JobHistory) GetJob(ctx context.Context, id uuid.UUID) (scrape.Job, error) {
	if id == uuid.Nil {
		return scrape.Job{}, ErrInvalidInput
	}
	job, err := u.jobs.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			return scrape.Job{}, ErrNotFound
		case errors.Is(err, repository.ErrStoreUnavailable):
			return scrape.Job{}, ErrUnavailable
		default:
			return scrape.Job{}, ErrInternal
		}
	}
	return job, nil
}
