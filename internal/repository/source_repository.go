package repository

import (
	"context"
	"fmt"
	"strings"

	"scrape-aggregator/internal/database"
	"scrape-aggregator/internal/domain/source"
)

type SourceRepository interface {
	List(ctx context.Context) ([]source.Source, error)
	Upsert(ctx context.Context, s source.Source) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
}

type PostgresSourceRepository struct {
	db database.DB
}

func NewPostgresSourceRepository(db database.DB) *PostgresSourceRepository {
	return &PostgresSourceRepository{db: db}
}

func (r *PostgresSourceRepository) List(ctx context.Context) ([]source.Source, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, kind, enabled FROM sources ORDER BY id ASC`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]source.Source, 0)
	for rows.Next() {
		var s source.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.Kind, &s.Enabled); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Upsert registers a configured source. The enabled flag is left alone on
// conflict: it belongs to the administrator, not to configuration reloads.
func (r *PostgresSourceRepository) Upsert(ctx context.Context, s source.Source) error {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return fmt.Errorf("empty source id")
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO sources (id, name, kind, enabled) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, kind = EXCLUDED.kind`,
		id, s.Name, s.Kind, s.Enabled,
	)
	return classify(err)
}

func (r *PostgresSourceRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("empty source id")
	}
	n, err := r.db.Exec(ctx, `UPDATE sources SET enabled = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return fmt.Errorf("unknown source: %s", id)
	}
	return nil
}
