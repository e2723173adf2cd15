package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"scrape-aggregator/internal/database"
	"scrape-aggregator/internal/domain/scrape"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ScrapeJobRepository interface {
	Create(ctx context.Context, job scrape.Job) error
	Finish(ctx context.Context, job scrape.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (scrape.Job, error)
	List(ctx context.Context, limit, offset int) ([]scrape.Job, error)
}

type PostgresScrapeJobRepository struct {
	db database.DB
}

func NewPostgresScrapeJobRepository(db database.DB) *PostgresScrapeJobRepository {
	return &PostgresScrapeJobRepository{db: db}
}

func (r *PostgresScrapeJobRepository) Create(ctx context.Context, job scrape.Job) error {
	if job.Status != scrape.StatusRunning {
		return fmt.Errorf("new job must be running, got %s", job.Status)
	}
	sources, err := json.Marshal(job.Sources)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO scrape_jobs (id, started_at, sources_json, status) VALUES ($1,$2,$3,$4)`,
		job.ID, job.StartedAt, sources, string(job.Status),
	)
	return classify(err)
}

// Finish writes the terminal row exactly once: the WHERE clause refuses to
// touch a job that already left the running state.
func (r *PostgresScrapeJobRepository) Finish(ctx context.Context, job scrape.Job) error {
	if !job.Status.Terminal() {
		return fmt.Errorf("finish with non-terminal status %s", job.Status)
	}
	n, err := r.db.Exec(ctx,
		`UPDATE scrape_jobs SET
			ended_at = $2,
			items_seen = $3,
			items_new = $4,
			items_updated = $5,
			items_failed = $6,
			status = $7,
			error_summary = $8
		 WHERE id = $1 AND status = 'running'`,
		job.ID, job.EndedAt, job.ItemsSeen, job.ItemsNew, job.ItemsUpdated,
		job.ItemsFailed, string(job.Status), nullableText(job.ErrorSummary),
	)
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return fmt.Errorf("job %s already finished", job.ID)
	}
	return nil
}

func (r *PostgresScrapeJobRepository) FindByID(ctx context.Context, id uuid.UUID) (scrape.Job, error) {
	row := r.db.QueryRow(ctx, jobSelect+` WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return scrape.Job{}, ErrJobNotFound
		}
		return scrape.Job{}, classify(err)
	}
	return job, nil
}

func (r *PostgresScrapeJobRepository) List(ctx context.Context, limit, offset int) ([]scrape.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, jobSelect+` ORDER BY started_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]scrape.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

const jobSelect = `SELECT id, started_at, ended_at, sources_json,
	items_seen, items_new, items_updated, items_failed, status, COALESCE(error_summary, '')
 FROM scrape_jobs`

func scanJob(row database.Row) (scrape.Job, error) {
	var job scrape.Job
	var sources []byte
	var status string
	if err := row.Scan(
		&job.ID, &job.StartedAt, &job.EndedAt, &sources,
		&job.ItemsSeen, &job.ItemsNew, &job.ItemsUpdated, &job.ItemsFailed,
		&status, &job.ErrorSummary,
	); err != nil {
		return scrape.Job{}, err
	}
	job.Status = scrape.Status(status)
	if len(sources) > 0 {
		_ = json.Unmarshal(sources, &job.Sources)
	}
	return job, nil
}
